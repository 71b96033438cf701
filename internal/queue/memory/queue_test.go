package memory

import (
	"context"
	"testing"
	"time"
)

func TestQueueFIFOWithinChannel(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	ctx := context.Background()

	for _, body := range []string{"one", "two", "three"} {
		if err := q.Publish(ctx, "crawler-output", []byte(body)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	for _, want := range []string{"one", "two", "three"} {
		msg, err := q.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if msg.Channel != "crawler-output" || string(msg.Body) != want {
			t.Fatalf("Receive() = %q on %q, want %q", msg.Body, msg.Channel, want)
		}
	}
}

func TestQueueMultiplexesChannels(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	ctx := context.Background()

	if err := q.Publish(ctx, "embedding-output", []byte(`{"id":"j1"}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := q.Publish(ctx, "sentiment-output", []byte(`{"id":"r1"}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	first, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	second, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if first.Channel == second.Channel {
		t.Fatalf("expected messages from both channels, got %q twice", first.Channel)
	}
}

func TestReceiveRespectsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Receive(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	q.Close()
	q.Close()

	if _, err := q.Receive(context.Background()); err == nil {
		t.Fatal("expected error on closed queue")
	}
}

func TestRecordingPublisher(t *testing.T) {
	t.Parallel()

	p := NewPublisher()
	ctx := context.Background()
	if err := p.Publish(ctx, "company-input", []byte("Acme|||sep|||London")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := p.Publish(ctx, "embedding-input", []byte(`{"id":"j1"}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if got := p.Messages(); len(got) != 2 {
		t.Fatalf("Messages() = %d entries", len(got))
	}
	got := p.MessagesFor("company-input")
	if len(got) != 1 || string(got[0].Body) != "Acme|||sep|||London" {
		t.Fatalf("MessagesFor() = %v", got)
	}
}
