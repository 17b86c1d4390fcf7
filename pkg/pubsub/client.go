package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

// Client wraps the Pub/Sub v2 client with the bookstore's topic and
// subscription naming. Subscriptions are provisioned out of band; startup
// only verifies they exist so a misdeployed worker fails fast instead of
// consuming nothing silently.
type Client struct {
	inner     *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var errProjectIDRequired = errors.New("gcp project id is required")

// NewClient connects to Pub/Sub and verifies every configured subscription.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	inner, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	client := &Client{inner: inner, projectID: projectID, cfg: cfg}
	if err := client.checkSubscriptions(ctx); err != nil {
		_ = inner.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}
	return client, nil
}

func (c *Client) checkSubscriptions(ctx context.Context) error {
	ordersSub := strings.TrimSpace(c.cfg.OrdersSubscription)
	if ordersSub == "" {
		return errors.New("pubsub subscription name is required")
	}

	resource := c.qualify(ordersSub, "subscriptions")
	_, err := c.inner.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
		Subscription: resource,
	})
	switch {
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("subscription %q does not exist", ordersSub)
	case err != nil:
		return fmt.Errorf("checking subscription %q: %w", ordersSub, err)
	}
	return nil
}

// Subscription returns a subscriber handle. The name may be a bare ID or a
// full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.inner == nil {
		return nil
	}
	resource := c.qualify(name, "subscriptions")
	if resource == "" {
		return nil
	}
	return c.inner.Subscriber(resource)
}

// OrdersSubscription returns the subscriber for order domain events.
func (c *Client) OrdersSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.OrdersSubscription)
}

// Publisher returns a publisher handle for a topic ID or resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.inner == nil {
		return nil
	}
	resource := c.qualify(name, "topics")
	if resource == "" {
		return nil
	}
	return c.inner.Publisher(resource)
}

// OrdersPublisher returns the publisher for the order events topic.
func (c *Client) OrdersPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.OrdersTopic)
}

// Ping re-runs the subscription existence checks as a readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.inner == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.checkSubscriptions(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

// qualify expands a bare ID into projects/<id>/<kind>/<name>, passing full
// resource names through untouched.
func (c *Client) qualify(name, kind string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	return fmt.Sprintf("projects/%s/%s/%s", c.projectID, kind, name)
}
