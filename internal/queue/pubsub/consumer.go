// Package pubsub implements the production queue providers on Google Cloud
// Pub/Sub.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
)

// Consumer merges a fixed set of subscriptions into one blocking pop. Each
// inbound channel maps to its own subscription; deliveries are funneled
// through a single buffered channel so the dispatcher sees the first
// available message from any of them.
type Consumer struct {
	client    *pubsub.Client
	delivery  chan broker.Message
	logger    *zap.Logger
	startOnce sync.Once
	subs      map[string]*pubsub.Subscription
}

// NewConsumer creates a Pub/Sub client and resolves the subscription
// handles. subscriptions maps channel names to subscription ids; a missing
// subscription surfaces on the first Receive, not here, because Pub/Sub
// resolves lazily.
func NewConsumer(ctx context.Context, projectID string, subscriptions map[string]string, depth int, logger *zap.Logger) (*Consumer, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	subs := make(map[string]*pubsub.Subscription, len(subscriptions))
	for channel, id := range subscriptions {
		subs[channel] = client.Subscription(id)
	}
	return &Consumer{
		client:   client,
		delivery: make(chan broker.Message, depth),
		logger:   logger,
		subs:     subs,
	}, nil
}

// Receive blocks until a message arrives on any subscribed channel or the
// context ends. The first call starts the background receivers.
func (c *Consumer) Receive(ctx context.Context) (broker.Message, error) {
	c.startOnce.Do(func() { c.start(ctx) })
	select {
	case <-ctx.Done():
		return broker.Message{}, fmt.Errorf("receive canceled: %w", ctx.Err())
	case msg := <-c.delivery:
		return msg, nil
	}
}

func (c *Consumer) start(ctx context.Context) {
	for channel, sub := range c.subs {
		go func(channel string, sub *pubsub.Subscription) {
			err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
				select {
				case c.delivery <- broker.Message{Channel: channel, Body: m.Data}:
					m.Ack()
				case <-ctx.Done():
					m.Nack()
				}
			})
			if err != nil && ctx.Err() == nil {
				c.logger.Error("subscription receive stopped",
					zap.String("channel", channel),
					zap.Error(err),
				)
			}
		}(channel, sub)
	}
}

// Close releases the underlying client.
func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
