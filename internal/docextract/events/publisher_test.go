package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sei/sei-backend/internal/docextract/domain"
	"github.com/sei/sei-backend/internal/docextract/events"
	"github.com/sei/sei-backend/internal/docextract/fields"
	"github.com/sei/sei-backend/pkg/logger"
	"github.com/sei/sei-backend/pkg/messaging"
	"github.com/sei/sei-backend/pkg/testutil"
)

func newAuditor(t *testing.T, pub messaging.EventPublisher) *events.Auditor {
	t.Helper()
	a := events.NewAuditor(pub, logger.Nop())
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestAuditor_Completed(t *testing.T) {
	pub := testutil.NewMockPublisher()
	a := newAuditor(t, pub)

	doc := &domain.UploadedDocument{Filename: "cv.pdf", Data: make([]byte, 1024)}
	ext := &domain.Extraction{
		Fields:           fields.Result{{Name: "curp", Value: "GOMJ800101HDFRRL09"}, {Name: "rfc", Value: ""}},
		Format:           "application/pdf",
		PageCount:        2,
		ProcessingTimeMs: 15,
	}

	ctx := messaging.WithCorrelationID(context.Background(), "req-42")
	a.Completed(ctx, "job-1", doc, ext)

	got := pub.WaitForEvents(t, messaging.EventDocumentExtractionCompleted, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "req-42", got[0].CorrelationID)

	payload, ok := got[0].Payload.(messaging.DocumentExtractionCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, messaging.DocumentExtractionCompletedEvent{
		JobID:           "job-1",
		Format:          "application/pdf",
		SizeBytes:       1024,
		PageCount:       2,
		DurationMs:      15,
		FieldsExtracted: []string{"curp"},
	}, payload)

	// Values never leave the service
	assert.NotContains(t, testutil.MustJSON(payload), "GOMJ800101HDFRRL09")
}

func TestAuditor_Failed(t *testing.T) {
	pub := testutil.NewMockPublisher()
	a := newAuditor(t, pub)

	a.Failed(context.Background(), "", &domain.UploadedDocument{Data: []byte("x")}, "application/pdf", 1500*time.Millisecond, "DOCUMENT_PARSE_ERROR")

	got := pub.WaitForEvents(t, messaging.EventDocumentExtractionFailed, 1)
	payload := got[0].Payload.(messaging.DocumentExtractionFailedEvent)
	assert.Equal(t, "DOCUMENT_PARSE_ERROR", payload.ErrorCode)
	assert.Equal(t, int64(1500), payload.DurationMs)
	assert.Equal(t, 1, payload.SizeBytes)
}

func TestAuditor_CanceledRequestStillPublishes(t *testing.T) {
	pub := testutil.NewMockPublisher()
	a := newAuditor(t, pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a.Failed(ctx, "", &domain.UploadedDocument{}, "text/plain", 0, "PARSE_TIMEOUT")

	pub.AssertEventPublished(t, messaging.EventDocumentExtractionFailed)
}

func TestAuditor_SlowBrokerDoesNotBlockCaller(t *testing.T) {
	pub := testutil.NewSlowPublisher(300 * time.Millisecond)
	a := newAuditor(t, pub)

	start := time.Now()
	for i := 0; i < 3; i++ {
		a.Failed(context.Background(), "", &domain.UploadedDocument{}, "application/pdf", 0, "INTERNAL_ERROR")
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	pub.WaitForEvents(t, messaging.EventDocumentExtractionFailed, 3)
}

func TestAuditor_FullQueueDropsEvents(t *testing.T) {
	pub := testutil.NewSlowPublisher(200 * time.Millisecond)
	a := events.NewAuditorWithQueue(pub, 1, logger.Nop())

	start := time.Now()
	for i := 0; i < 10; i++ {
		a.Failed(context.Background(), "", &domain.UploadedDocument{}, "application/pdf", 0, "INTERNAL_ERROR")
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))

	// One in flight plus one queued at most
	n := len(pub.EventsOfType(messaging.EventDocumentExtractionFailed))
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 2)
}

func TestAuditor_CloseDrainsQueue(t *testing.T) {
	pub := testutil.NewMockPublisher()
	a := events.NewAuditor(pub, logger.Nop())

	for i := 0; i < 5; i++ {
		a.Failed(context.Background(), "", &domain.UploadedDocument{}, "application/pdf", 0, "INTERNAL_ERROR")
	}
	require.NoError(t, a.Close(context.Background()))
	assert.Len(t, pub.EventsOfType(messaging.EventDocumentExtractionFailed), 5)

	// Closing twice and publishing after close are both harmless
	assert.NoError(t, a.Close(context.Background()))
	assert.NotPanics(t, func() {
		a.Failed(context.Background(), "", &domain.UploadedDocument{}, "application/pdf", 0, "INTERNAL_ERROR")
	})
	assert.Len(t, pub.EventsOfType(messaging.EventDocumentExtractionFailed), 5)
}

func TestAuditor_PublishErrorIsSwallowed(t *testing.T) {
	a := newAuditor(t, testutil.NewFailingPublisher())

	assert.NotPanics(t, func() {
		a.Failed(context.Background(), "", &domain.UploadedDocument{}, "application/pdf", 0, "INTERNAL_ERROR")
	})
}

func TestAuditor_Disabled(t *testing.T) {
	a := events.NewAuditor(nil, logger.Nop())
	assert.False(t, a.Enabled())
	assert.NoError(t, a.Close(context.Background()))

	var nilAuditor *events.Auditor
	assert.False(t, nilAuditor.Enabled())

	assert.NotPanics(t, func() {
		nilAuditor.Completed(context.Background(), "", &domain.UploadedDocument{}, &domain.Extraction{})
		a.Failed(context.Background(), "", &domain.UploadedDocument{}, "", 0, "INTERNAL_ERROR")
	})
}
