package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/outbox"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/registry"
)

const (
	fallbackBatchSize = 50
	fallbackPollMs    = 500
	publishTimeout    = 15 * time.Second
	backoffCeiling    = 10 * time.Second
	jitterSpan        = 250 * time.Millisecond
)

var jitterRand = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// topicPublisher narrows the Pub/Sub publisher so tests can swap in fakes.
type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishFuture
}

type publishFuture interface {
	Get(context.Context) (string, error)
}

type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	PubSub        pubSubClient
	Repository    outboxRepository
	Registry      eventResolver
	PublisherFor  func(topic string) topicPublisher
	DLQRepository dlqRepository
}

// Publisher drains order events from the bookstore outbox table into
// Pub/Sub. Each poll claims a locked batch inside one transaction, so a
// crashed publisher leaves rows unclaimed rather than half-marked.
// Retryable failures bump the attempt count and back off with jitter;
// unresolvable events are parked in the dead letter table.
type Publisher struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	broker       pubSubClient
	resolver     eventResolver
	dlq          dlqRepository
	publisherFor func(topic string) topicPublisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewPublisher(params Params) (*Publisher, error) {
	required := []struct {
		name string
		ok   bool
	}{
		{"config", params.Config != nil},
		{"logger", params.Logger != nil},
		{"database client", params.DB != nil},
		{"pubsub client", params.PubSub != nil},
		{"outbox repository", params.Repository != nil},
		{"event registry", params.Registry != nil},
		{"dlq repository", params.DLQRepository != nil},
	}
	for _, dep := range required {
		if !dep.ok {
			return nil, fmt.Errorf("%s is required", dep.name)
		}
	}

	publisherFor := params.PublisherFor
	if publisherFor == nil {
		publisherFor = func(topic string) topicPublisher {
			live := params.PubSub.Publisher(topic)
			if live == nil {
				return nil
			}
			return liveTopic{live}
		}
	}

	out := &Publisher{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		broker:       params.PubSub,
		resolver:     params.Registry,
		dlq:          params.DLQRepository,
		publisherFor: publisherFor,
		batchSize:    params.Config.Outbox.BatchSize,
		maxAttempts:  params.Config.Outbox.MaxAttempts,
		pollInterval: time.Duration(params.Config.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if out.batchSize <= 0 {
		out.batchSize = fallbackBatchSize
	}
	if out.maxAttempts <= 0 {
		out.maxAttempts = defaultMaxPublishAttempts
	}
	if out.pollInterval <= 0 {
		out.pollInterval = fallbackPollMs * time.Millisecond
	}
	return out, nil
}

const defaultMaxPublishAttempts = 10

func (p *Publisher) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := p.db.Ping(ctx); err != nil {
		p.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := p.broker.Ping(ctx); err != nil {
		p.logg.Error(ctx, "pubsub ping failed", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	backoff := p.pollInterval
	for {
		select {
		case <-ctx.Done():
			p.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		drained, err := p.drainOnce(ctx)
		if err != nil {
			p.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = growBackoff(backoff, p.pollInterval)
			if err := p.idle(ctx, jittered(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = p.pollInterval

		// An empty poll means the table is drained; wait before the next one.
		if drained == 0 {
			if err := p.idle(ctx, jittered(p.pollInterval)); err != nil {
				return err
			}
		}
	}
}

// drainOnce claims one batch and dispatches every event in it, returning
// the number of rows claimed.
func (p *Publisher) drainOnce(ctx context.Context) (int, error) {
	claimed := 0
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := p.repo.FetchUnpublishedForPublish(tx, p.batchSize, p.maxAttempts)
		if err != nil {
			return err
		}
		claimed = len(events)
		for _, event := range events {
			if err := p.dispatch(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

// dispatch publishes a single event and records the outcome on its row.
func (p *Publisher) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	resolved, err := p.resolver.Resolve(event)
	if err != nil {
		return p.park(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, "", nil)
	}

	topic := resolved.Descriptor.Topic
	fields := p.logFields(event, resolved.Envelope, topic)

	pubErr := p.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := p.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		p.logg.Info(p.logg.WithFields(ctx, fields), "outbox event published")
		return nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(pubErr, &nonRetry) {
		return p.park(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, pubErr, topic, fields)
	}

	nextAttempt := event.AttemptCount + 1
	fields["attempt_count"] = nextAttempt
	if nextAttempt >= p.maxAttempts {
		fields["terminal_reason"] = "max_attempts"
		terminalErr := fmt.Errorf("max publish attempts reached: %w", pubErr)
		return p.park(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, terminalErr, topic, fields)
	}

	warnCtx := p.logg.WithField(p.logg.WithFields(ctx, fields), "error", pubErr.Error())
	p.logg.Warn(warnCtx, "outbox publish failed")
	if err := p.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return nil
}

// park moves an event to the dead letter table and marks its row terminal.
func (p *Publisher) park(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, topic string, fields map[string]any) error {
	if fields == nil {
		fields = p.logFields(event, outbox.PayloadEnvelope{}, topic)
	}
	fields["error_reason"] = reason
	warnCtx := p.logg.WithField(p.logg.WithFields(ctx, fields), "error", cause.Error())
	p.logg.Warn(warnCtx, "outbox event will not be retried")

	message := cause.Error()
	entry := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &message,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := p.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := p.repo.MarkTerminalTx(tx, event.ID, cause, p.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := p.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	future := pub.Publish(publishCtx, msg)
	if future == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := future.Get(publishCtx)
	return err
}

func (p *Publisher) logFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"batch_size":     p.batchSize,
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (p *Publisher) idle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func growBackoff(current, base time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	if next := current * 2; next < backoffCeiling {
		return next
	}
	return backoffCeiling
}

func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterRand.Int63n(int64(jitterSpan)))
}

// liveTopic adapts the concrete Pub/Sub publisher to the narrowed interface.
type liveTopic struct {
	inner *gcppubsub.Publisher
}

func (t liveTopic) Publish(ctx context.Context, msg *gcppubsub.Message) publishFuture {
	if t.inner == nil {
		return nil
	}
	return liveFuture{t.inner.Publish(ctx, msg)}
}

type liveFuture struct {
	inner *gcppubsub.PublishResult
}

func (f liveFuture) Get(ctx context.Context) (string, error) {
	if f.inner == nil {
		return "", errors.New("publish result is nil")
	}
	return f.inner.Get(ctx)
}
