package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sei/sei-backend/pkg/messaging"
)

// MockPublisher is a mock event publisher for testing.
// It is safe for use from background goroutines.
type MockPublisher struct {
	mu              sync.Mutex
	publishedEvents []PublishedEvent
	err             error
	delay           time.Duration
}

// PublishedEvent represents an event that was published
type PublishedEvent struct {
	Type          string
	Payload       interface{}
	CorrelationID string
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		publishedEvents: make([]PublishedEvent, 0),
	}
}

// NewFailingPublisher creates a publisher whose Publish always fails
func NewFailingPublisher() *MockPublisher {
	m := NewMockPublisher()
	m.err = errors.New("broker unavailable")
	return m
}

// NewSlowPublisher creates a publisher that takes delay to accept each event,
// like a broker that is slow or being reconnected to.
func NewSlowPublisher(delay time.Duration) *MockPublisher {
	m := NewMockPublisher()
	m.delay = delay
	return m
}

// Publish records an event for later verification
func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.publishedEvents = append(m.publishedEvents, PublishedEvent{
		Type:          eventType,
		Payload:       payload,
		CorrelationID: messaging.CorrelationID(ctx),
	})
	return nil
}

// Events returns a snapshot of the published events
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PublishedEvent, len(m.publishedEvents))
	copy(out, m.publishedEvents)
	return out
}

// EventsOfType returns the published events with the given type
func (m *MockPublisher) EventsOfType(eventType string) []PublishedEvent {
	var out []PublishedEvent
	for _, e := range m.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// WaitForEvents waits until n events of the given type were published and
// returns them. Events are published in the background.
func (m *MockPublisher) WaitForEvents(t *testing.T, eventType string, n int) []PublishedEvent {
	t.Helper()
	RequireEventually(t, func() bool {
		return len(m.EventsOfType(eventType)) >= n
	}, 2*time.Second, 5*time.Millisecond, "expected "+eventType+" to be published")
	return m.EventsOfType(eventType)
}

// AssertEventPublished checks if an event of the given type was published
func (m *MockPublisher) AssertEventPublished(t *testing.T, eventType string) {
	t.Helper()
	m.WaitForEvents(t, eventType, 1)
}
