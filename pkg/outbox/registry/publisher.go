package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/outbox"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/payloads"
)

// EventDescriptor binds an event type to the aggregate it belongs to, the
// topic it publishes on, and a factory for its typed payload.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is a fully decoded outbox row, ready to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry knows every event type the bookstore emits. A row whose
// type is not registered can never publish and is rejected as non-retryable.
type EventRegistry struct {
	byType map[enums.OutboxEventType]EventDescriptor
}

// NewEventRegistry builds the registry with the configured topic names.
// Both order events share the orders topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}

	descriptors := []EventDescriptor{
		{
			EventType:      enums.EventOrderCreated,
			AggregateType:  enums.AggregateOrder,
			Topic:          cfg.OrdersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderCreatedEvent{} },
		},
		{
			EventType:      enums.EventCartConverted,
			AggregateType:  enums.AggregateCart,
			Topic:          cfg.OrdersTopic,
			PayloadFactory: func() interface{} { return &payloads.CartConvertedEvent{} },
		},
	}

	byType := make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))
	for _, desc := range descriptors {
		byType[desc.EventType] = desc
	}
	return &EventRegistry{byType: byType}, nil
}

// Resolve checks the row against its descriptor and decodes the envelope
// and typed payload. Every failure here is non-retryable: a malformed row
// stays malformed no matter how often it is retried.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.byType[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	body := bytes.TrimSpace(envelope.Data)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

// NonRetryableError tells the publisher to park the row instead of
// retrying it.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}
