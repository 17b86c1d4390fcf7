package enums

// CheckoutState tracks where a checkout attempt sits in its lifecycle.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateValidating CheckoutState = "validating"
	CheckoutStateBlocked    CheckoutState = "blocked"
	CheckoutStateReady      CheckoutState = "ready"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateCommitted  CheckoutState = "committed"
	CheckoutStateFailed     CheckoutState = "failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateValidating,
	CheckoutStateBlocked,
	CheckoutStateReady,
	CheckoutStateSubmitting,
	CheckoutStateCommitted,
	CheckoutStateFailed,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	return isOneOf(c, validCheckoutStates)
}

// IsTerminal reports whether the state ends a checkout attempt.
func (c CheckoutState) IsTerminal() bool {
	return c == CheckoutStateCommitted || c == CheckoutStateFailed
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	return parseEnum(value, "checkout state", validCheckoutStates)
}
