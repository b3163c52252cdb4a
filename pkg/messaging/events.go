package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventDocumentExtractionCompleted = "document.extraction.completed"
	EventDocumentExtractionFailed    = "document.extraction.failed"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// Document Events
//
// Extraction events describe what happened to a document without carrying
// any extracted value. Field names only.

// DocumentExtractionCompletedEvent is published when a document was processed
type DocumentExtractionCompletedEvent struct {
	JobID           string   `json:"job_id,omitempty"`
	Format          string   `json:"format"`
	SizeBytes       int      `json:"size_bytes"`
	PageCount       int      `json:"page_count"`
	DurationMs      int64    `json:"duration_ms"`
	FieldsExtracted []string `json:"fields_extracted"`
}

// DocumentExtractionFailedEvent is published when a document could not be processed
type DocumentExtractionFailedEvent struct {
	JobID      string `json:"job_id,omitempty"`
	Format     string `json:"format"`
	SizeBytes  int    `json:"size_bytes"`
	DurationMs int64  `json:"duration_ms"`
	ErrorCode  string `json:"error_code"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
