package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/outbox"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/payloads"
)

func TestResolveDecodesOrderCreated(t *testing.T) {
	t.Parallel()
	reg := ordersRegistry(t)

	orderID := uuid.New()
	body, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:           orderID,
		CustomerID:        uuid.New(),
		ShippingMethod:    enums.ShippingMethodStandard,
		SubtotalCents:     4200,
		ShippingCostCents: 500,
		TotalCents:        4700,
		PlacedAt:          time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       wrapInEnvelope(t, body),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "order-events-test" {
		t.Fatalf("topic = %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	if !ok {
		t.Fatalf("payload type = %T", resolved.Payload)
	}
	if payload.OrderID != orderID {
		t.Fatalf("payload order id = %s, want %s", payload.OrderID, orderID)
	}
	if resolved.Envelope.EventID == "" || resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope identity missing: %+v", resolved.Envelope)
	}
}

func TestResolveRejectsMalformedRows(t *testing.T) {
	t.Parallel()
	reg := ordersRegistry(t)

	cases := map[string]models.OutboxEvent{
		"unknown event type": {
			EventType:     enums.OutboxEventType("order_refunded"),
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       wrapInEnvelope(t, []byte(`{"reason":"none"}`)),
		},
		"aggregate mismatch": {
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateCart,
			AggregateID:   uuid.New(),
			Payload:       wrapInEnvelope(t, []byte(`{}`)),
		},
		"missing aggregate id": {
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.Nil,
			Payload:       wrapInEnvelope(t, []byte(`{}`)),
		},
		"null payload body": {
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       wrapInEnvelope(t, []byte("null")),
		},
		"garbage envelope": {
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{not json`),
		},
	}

	for name, event := range cases {
		event := event
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := reg.Resolve(event)
			if err == nil {
				t.Fatalf("expected Resolve to fail")
			}
			var nonRetry NonRetryableError
			if !errors.As(err, &nonRetry) {
				t.Fatalf("every resolve failure must be non-retryable, got %T", err)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	t.Parallel()
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatalf("expected error without an orders topic")
	}
}

func ordersRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "order-events-test"})
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}
	return reg
}

func wrapInEnvelope(t *testing.T, body []byte) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       body,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
