package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/outbox"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/payloads"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/registry"
)

func TestDrainOnceMarksFailureAndKeepsGoing(t *testing.T) {
	first := orderEvent(t, 0)
	second := orderEvent(t, 0)
	rows := &rowRecorder{events: []models.OutboxEvent{first, second}}
	topic := &scriptedTopic{outcomes: []error{errors.New("transient"), nil}}
	dead := &deadLetterRecorder{}

	pub := testPublisher(t, rows, topic, dead, nil)
	claimed, err := pub.drainOnce(context.Background())
	if err != nil {
		t.Fatalf("drainOnce: %v", err)
	}
	if claimed != 2 {
		t.Fatalf("claimed = %d, want 2", claimed)
	}
	if len(rows.failed) != 1 || rows.failed[0] != first.ID {
		t.Fatalf("failed rows = %v, want just %s", rows.failed, first.ID)
	}
	if len(rows.published) != 1 || rows.published[0] != second.ID {
		t.Fatalf("published rows = %v, want just %s", rows.published, second.ID)
	}
	if len(dead.entries) != 0 {
		t.Fatalf("a retryable failure must not reach the dead letter table")
	}
}

func TestDrainOnceParksUnresolvableEvent(t *testing.T) {
	event := orderEvent(t, 0)
	rows := &rowRecorder{events: []models.OutboxEvent{event}}
	dead := &deadLetterRecorder{}

	pub := testPublisher(t, rows, &scriptedTopic{}, dead, nil)
	pub.resolver = resolveError{registry.NewNonRetryableError(errors.New("invalid payload"))}

	if _, err := pub.drainOnce(context.Background()); err != nil {
		t.Fatalf("drainOnce: %v", err)
	}
	if len(dead.entries) != 1 {
		t.Fatalf("dead letter entries = %d, want 1", len(dead.entries))
	}
	entry := dead.entries[0]
	if entry.ID == uuid.Nil {
		t.Fatalf("dead letter entry must carry its own id")
	}
	if entry.EventID != event.ID {
		t.Fatalf("entry event_id = %s, want %s", entry.EventID, event.ID)
	}
	if !bytes.Equal(entry.Payload, event.Payload) {
		t.Fatalf("entry payload does not match the event payload")
	}
	if entry.ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("entry reason = %s", entry.ErrorReason)
	}
	if len(rows.terminal) != 1 || rows.terminal[0] != event.ID {
		t.Fatalf("row was not marked terminal")
	}
}

func TestDrainOnceParksEventAtMaxAttempts(t *testing.T) {
	event := orderEvent(t, 1)
	event.EventType = enums.EventCartConverted
	event.AggregateType = enums.AggregateCart
	rows := &rowRecorder{events: []models.OutboxEvent{event}}
	topic := &scriptedTopic{outcomes: []error{errors.New("transient")}}
	dead := &deadLetterRecorder{}

	pub := testPublisher(t, rows, topic, dead, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := pub.drainOnce(context.Background()); err != nil {
		t.Fatalf("drainOnce: %v", err)
	}
	if len(dead.entries) != 1 {
		t.Fatalf("dead letter entries = %d, want 1", len(dead.entries))
	}
	if dead.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("entry reason = %s", dead.entries[0].ErrorReason)
	}
	if dead.entries[0].ID == uuid.Nil {
		t.Fatalf("dead letter entry must carry its own id")
	}
	if len(rows.published) != 0 {
		t.Fatalf("a parked event must not be marked published")
	}
}

func testPublisher(t *testing.T, rows *rowRecorder, topic topicPublisher, dead *deadLetterRecorder, override *config.OutboxConfig) *Publisher {
	t.Helper()
	outboxCfg := config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
	if override != nil {
		outboxCfg = *override
	}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	pub, err := NewPublisher(Params{
		Config:        &config.Config{Outbox: outboxCfg},
		Logger:        logg,
		DB:            passthroughDB{},
		PubSub:        noopBroker{},
		Repository:    rows,
		Registry:      echoResolver{},
		PublisherFor:  func(string) topicPublisher { return topic },
		DLQRepository: dead,
	})
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	return pub
}

func orderEvent(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

// rowRecorder remembers which outbox rows got which terminal call.
type rowRecorder struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (r *rowRecorder) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return r.events, nil
}

func (r *rowRecorder) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *rowRecorder) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *rowRecorder) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	r.terminal = append(r.terminal, id)
	return nil
}

type deadLetterRecorder struct {
	entries []models.OutboxDLQ
}

func (r *deadLetterRecorder) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	r.entries = append(r.entries, entry)
	return nil
}

type passthroughDB struct{}

func (passthroughDB) Ping(context.Context) error { return nil }

func (passthroughDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type noopBroker struct{}

func (noopBroker) Ping(context.Context) error { return nil }

func (noopBroker) Publisher(string) *gcppubsub.Publisher { return nil }

// scriptedTopic replays one publish outcome per call, in order.
type scriptedTopic struct {
	outcomes []error
}

func (s *scriptedTopic) Publish(context.Context, *gcppubsub.Message) publishFuture {
	if len(s.outcomes) == 0 {
		return nil
	}
	next := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return settledFuture{next}
}

type settledFuture struct {
	err error
}

func (f settledFuture) Get(context.Context) (string, error) { return "", f.err }

// echoResolver resolves every event onto the orders topic with its own id.
type echoResolver struct{}

func (echoResolver) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "bookstore-order-events",
			AggregateType: event.AggregateType,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    event.ID.String(),
			OccurredAt: time.Now(),
		},
		Payload: &payloads.OrderCreatedEvent{},
	}, nil
}

type resolveError struct {
	err error
}

func (r resolveError) Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error) {
	return nil, r.err
}
