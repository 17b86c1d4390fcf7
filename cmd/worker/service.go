package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/foliobooks/bookstore-backend/internal/notifications"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/pubsub"
	"github.com/foliobooks/bookstore-backend/pkg/redis"
)

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            *db.Client
	Redis         *redis.Client
	PubSub        *pubsub.Client
	OrderConsumer *notifications.Consumer
}

// Service hosts the order event consumer. Every backing dependency is
// pinged before the consumer starts so a broken deployment exits instead
// of sitting idle on a subscription it cannot serve.
type Service struct {
	cfg           *config.Config
	logg          *logger.Logger
	db            *db.Client
	redis         *redis.Client
	pubsub        *pubsub.Client
	orderConsumer *notifications.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	required := []struct {
		name string
		ok   bool
	}{
		{"config", params.Config != nil},
		{"logger", params.Logger != nil},
		{"database client", params.DB != nil},
		{"redis client", params.Redis != nil},
		{"pubsub client", params.PubSub != nil},
		{"order consumer", params.OrderConsumer != nil},
	}
	for _, dep := range required {
		if !dep.ok {
			return nil, fmt.Errorf("%s is required", dep.name)
		}
	}
	return &Service{
		cfg:           params.Config,
		logg:          params.Logger,
		db:            params.DB,
		redis:         params.Redis,
		pubsub:        params.PubSub,
		orderConsumer: params.OrderConsumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	pings := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"database", s.db.Ping},
		{"redis", s.redis.Ping},
		{"pubsub", s.pubsub.Ping},
	}
	for _, probe := range pings {
		if err := probe.fn(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", probe.name), err)
			return fmt.Errorf("%s ping failed: %w", probe.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until the consumer stops or the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.orderConsumer.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		// Receive returns once its context is canceled; collect that exit
		// so the goroutine does not leak past shutdown.
		<-done
		s.logg.Info(context.Background(), "worker context canceled")
		return ctx.Err()
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		}
		return err
	}
}
