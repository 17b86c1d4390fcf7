package enums

// CartStatus tracks whether a cart snapshot is active or already converted.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusConverted,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	return isOneOf(c, validCartStatuses)
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	return parseEnum(value, "cart status", validCartStatuses)
}
