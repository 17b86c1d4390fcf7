package enums

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
	AggregateCart  OutboxAggregateType = "cart"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateCart,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	return isOneOf(a, validAggregateTypes)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parseEnum(value, "aggregate type", validAggregateTypes)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated  OutboxEventType = "order_created"
	EventCartConverted OutboxEventType = "cart_converted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventCartConverted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	return isOneOf(e, validOutboxEventTypes)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseEnum(value, "event type", validOutboxEventTypes)
}
