package events

import (
	"context"
	"sync"
	"time"

	"github.com/sei/sei-backend/internal/docextract/domain"
	"github.com/sei/sei-backend/pkg/logger"
	"github.com/sei/sei-backend/pkg/messaging"
)

const (
	publishTimeout = 5 * time.Second

	// DefaultQueueSize bounds the events waiting for the broker
	DefaultQueueSize = 256
)

type pendingEvent struct {
	ctx       context.Context
	eventType string
	data      interface{}
}

// Auditor publishes extraction audit events. Events name the fields that
// were found but never contain their values.
//
// Publishing happens on a background worker fed by a bounded queue, so a slow
// or unreachable broker never delays a response. When the queue is full the
// event is dropped and logged. A nil publisher disables publishing.
type Auditor struct {
	publisher messaging.EventPublisher
	log       *logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan pendingEvent
	done   chan struct{}
}

// NewAuditor creates an auditor around the given publisher with the default queue size
func NewAuditor(publisher messaging.EventPublisher, log *logger.Logger) *Auditor {
	return NewAuditorWithQueue(publisher, DefaultQueueSize, log)
}

// NewAuditorWithQueue creates an auditor whose queue holds at most size events
func NewAuditorWithQueue(publisher messaging.EventPublisher, size int, log *logger.Logger) *Auditor {
	a := &Auditor{
		publisher: publisher,
		log:       log.WithComponent("audit"),
	}
	if publisher == nil {
		return a
	}

	if size < 1 {
		size = 1
	}
	a.queue = make(chan pendingEvent, size)
	a.done = make(chan struct{})
	go a.run()

	return a
}

// Enabled reports whether events are actually sent anywhere
func (a *Auditor) Enabled() bool {
	return a != nil && a.publisher != nil
}

// Close stops accepting events and waits until the queued ones were handed
// to the publisher or ctx expires.
func (a *Auditor) Close(ctx context.Context) error {
	if !a.Enabled() {
		return nil
	}

	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Completed records a successful extraction
func (a *Auditor) Completed(ctx context.Context, jobID string, doc *domain.UploadedDocument, ext *domain.Extraction) {
	if !a.Enabled() {
		return
	}

	a.enqueue(ctx, messaging.EventDocumentExtractionCompleted, messaging.DocumentExtractionCompletedEvent{
		JobID:           jobID,
		Format:          ext.Format,
		SizeBytes:       doc.Size(),
		PageCount:       ext.PageCount,
		DurationMs:      ext.ProcessingTimeMs,
		FieldsExtracted: ext.Fields.NonEmpty(),
	})
}

// Failed records an extraction that ended in an error
func (a *Auditor) Failed(ctx context.Context, jobID string, doc *domain.UploadedDocument, format string, duration time.Duration, code string) {
	if !a.Enabled() {
		return
	}

	a.enqueue(ctx, messaging.EventDocumentExtractionFailed, messaging.DocumentExtractionFailedEvent{
		JobID:      jobID,
		Format:     format,
		SizeBytes:  doc.Size(),
		DurationMs: duration.Milliseconds(),
		ErrorCode:  code,
	})
}

// enqueue never blocks. Request cancellation must not drop the event, so
// only values are carried over from ctx.
func (a *Auditor) enqueue(ctx context.Context, eventType string, data interface{}) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.log.Warn().Str("event_type", eventType).Msg("auditor closed, event dropped")
		return
	}

	select {
	case a.queue <- pendingEvent{ctx: context.WithoutCancel(ctx), eventType: eventType, data: data}:
	default:
		a.log.Warn().Str("event_type", eventType).Msg("audit queue full, event dropped")
	}
}

func (a *Auditor) run() {
	defer close(a.done)

	for ev := range a.queue {
		a.publish(ev)
	}
}

func (a *Auditor) publish(ev pendingEvent) {
	ctx, cancel := context.WithTimeout(ev.ctx, publishTimeout)
	defer cancel()

	if err := a.publisher.Publish(ctx, ev.eventType, ev.data); err != nil {
		a.log.Warn().
			Err(err).
			Str("event_type", ev.eventType).
			Str("correlation_id", messaging.CorrelationID(ev.ctx)).
			Msg("failed to publish audit event")
	}
}
