// Package memory provides queue implementations for local development and
// tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/openhire/brokerd/internal/broker"
)

// Queue is a bounded in-memory broker: messages published to any named
// channel are delivered through a single blocking pop. FIFO holds in
// publish order; there is no fairness guarantee across channels, matching
// the production broker's contract.
type Queue struct {
	ch      chan broker.Message
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan broker.Message, capacity),
	}
}

// Publish pushes a message onto the named channel or returns if the context
// ends.
func (q *Queue) Publish(ctx context.Context, channel string, data []byte) error {
	msg := broker.Message{Channel: channel, Body: data}
	select {
	case <-ctx.Done():
		return fmt.Errorf("publish canceled: %w", ctx.Err())
	case q.ch <- msg:
		return nil
	}
}

// Receive pops the next message from any channel, respecting context
// cancellation.
func (q *Queue) Receive(ctx context.Context) (broker.Message, error) {
	select {
	case <-ctx.Done():
		return broker.Message{}, fmt.Errorf("receive canceled: %w", ctx.Err())
	case msg, ok := <-q.ch:
		if !ok {
			return broker.Message{}, errors.New("queue closed")
		}
		return msg, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
