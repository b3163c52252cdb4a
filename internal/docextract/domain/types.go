package domain

import (
	"time"

	"github.com/sei/sei-backend/internal/docextract/fields"
)

// UploadedDocument is a file received in a single request. Data is owned by
// the service once handed over and is zeroed after processing.
type UploadedDocument struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Size returns the document size in bytes
func (d *UploadedDocument) Size() int {
	return len(d.Data)
}

// Extraction is the outcome of processing one document
type Extraction struct {
	Fields           fields.Result `json:"fields"`
	Format           string        `json:"format"`
	PageCount        int           `json:"page_count"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// ExtractionStatus represents the processing state of an extraction job
type ExtractionStatus string

const (
	StatusProcessing ExtractionStatus = "processing"
	StatusCompleted  ExtractionStatus = "completed"
	StatusFailed     ExtractionStatus = "failed"
)

// ExtractionJob represents an asynchronous extraction
type ExtractionJob struct {
	JobID     string           `json:"job_id"`
	Status    ExtractionStatus `json:"status"`
	Filename  string           `json:"filename,omitempty"`
	Result    fields.Result    `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorCode string           `json:"error_code,omitempty"`
	Details   string           `json:"details,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Clone returns a copy that is safe to hand out while the original is updated
func (j *ExtractionJob) Clone() *ExtractionJob {
	c := *j
	c.Result = j.Result.Clone()
	return &c
}
