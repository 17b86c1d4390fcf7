package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/outbox"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/idempotency"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns published order_created events into in-app notifications.
// Malformed messages are acked: redelivering them cannot fix them. Handler
// and idempotency failures are nacked so Pub/Sub retries the delivery.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	guard        *idempotency.Guard
	logg         *logger.Logger
}

func NewConsumer(repo repository, subscription *pubsub.Subscriber, guard *idempotency.Guard, logg *logger.Logger) (*Consumer, error) {
	switch {
	case repo == nil:
		return nil, fmt.Errorf("notifications repository required")
	case subscription == nil:
		return nil, fmt.Errorf("orders subscription required")
	case guard == nil:
		return nil, fmt.Errorf("idempotency guard required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{repo: repo, subscription: subscription, guard: guard, logg: logg}, nil
}

// Run blocks on the subscription until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.handle(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// handle reports whether the message should be acked.
func (c *Consumer) handle(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderCreated) {
		c.logg.Info(logCtx, "skipping non-order event")
		return true
	}

	eventID, payload, err := decodeOrderCreated(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "undecodable order event", err)
		return true
	}

	duplicate, err := c.guard.CheckAndMark(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if duplicate {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_id":    payload.OrderID.String(),
		"customer_id": payload.CustomerID.String(),
	})
	if err := c.notifyOrderPlaced(ctx, payload); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		// Release the claim so the redelivery is not swallowed as a duplicate.
		_ = c.guard.Forget(ctx, orderNotificationConsumer, eventID)
		return false
	}

	c.logg.Info(logCtx, "customer notified of placed order")
	return true
}

func decodeOrderCreated(data []byte) (uuid.UUID, payloads.OrderCreatedEvent, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return uuid.Nil, payloads.OrderCreatedEvent{}, fmt.Errorf("decode envelope: %w", err)
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return uuid.Nil, payloads.OrderCreatedEvent{}, fmt.Errorf("invalid event id: %w", err)
	}
	var payload payloads.OrderCreatedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return uuid.Nil, payloads.OrderCreatedEvent{}, fmt.Errorf("decode payload: %w", err)
	}
	if payload.CustomerID == uuid.Nil || payload.OrderID == uuid.Nil {
		return uuid.Nil, payloads.OrderCreatedEvent{}, fmt.Errorf("event missing order or customer id")
	}
	return eventID, payload, nil
}

func (c *Consumer) notifyOrderPlaced(ctx context.Context, payload payloads.OrderCreatedEvent) error {
	itemCount := 0
	for _, line := range payload.Lines {
		itemCount += line.Qty
	}
	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	return c.repo.Create(ctx, &models.Notification{
		ID:         uuid.New(),
		CustomerID: payload.CustomerID,
		Type:       enums.NotificationTypeOrder,
		Title:      "Order placed",
		Message:    fmt.Sprintf("Your order of %d item(s) for %s has been placed.", itemCount, formatCents(payload.TotalCents)),
		Link:       &link,
	})
}

func formatCents(cents int) string {
	if cents < 0 {
		cents = 0
	}
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
