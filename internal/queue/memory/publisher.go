package memory

import (
	"context"
	"sync"
)

// Publisher stores published payloads for inspection in tests and dry runs.
type Publisher struct {
	mu       sync.RWMutex
	messages []PublishedMessage
}

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Channel string
	Body    []byte
}

// NewPublisher returns a recording Publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish records the message.
func (p *Publisher) Publish(_ context.Context, channel string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	body := make([]byte, len(data))
	copy(body, data)
	p.messages = append(p.messages, PublishedMessage{Channel: channel, Body: body})
	return nil
}

// Messages returns the recorded publishes.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// MessagesFor returns the recorded publishes to one channel.
func (p *Publisher) MessagesFor(channel string) []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []PublishedMessage
	for _, msg := range p.messages {
		if msg.Channel == channel {
			out = append(out, msg)
		}
	}
	return out
}
