package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	data := DocumentExtractionCompletedEvent{
		Format:          "application/pdf",
		SizeBytes:       2048,
		PageCount:       1,
		FieldsExtracted: []string{"curp", "correo"},
	}

	event, err := NewEvent(EventDocumentExtractionCompleted, "docextract-service", "req-1", data)
	require.NoError(t, err)

	_, err = uuid.Parse(event.ID)
	assert.NoError(t, err)
	assert.Equal(t, EventDocumentExtractionCompleted, event.Type)
	assert.Equal(t, "docextract-service", event.Source)
	assert.Equal(t, "req-1", event.CorrelationID)
	assert.False(t, event.Timestamp.IsZero())

	var decoded DocumentExtractionCompletedEvent
	require.NoError(t, json.Unmarshal(event.Data, &decoded))
	assert.Equal(t, data, decoded)
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent(EventDocumentExtractionFailed, "docextract-service", "", make(chan int))
	assert.Error(t, err)
}

func TestDocumentEvents_CarryNoValues(t *testing.T) {
	body, err := json.Marshal(DocumentExtractionCompletedEvent{
		Format:          "text/plain",
		FieldsExtracted: []string{"curp"},
	})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))

	assert.ElementsMatch(t,
		[]string{"format", "size_bytes", "page_count", "duration_ms", "fields_extracted"},
		keys(raw),
	)
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, CorrelationID(context.Background()))

	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", CorrelationID(ctx))
}

func TestGenerateEventID_Unique(t *testing.T) {
	assert.NotEqual(t, GenerateEventID(), GenerateEventID())
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
