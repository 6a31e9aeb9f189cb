package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stageerrors "janus/internal/common/errors"
	"janus/internal/common/logger"
	"janus/internal/events"
	"janus/internal/pipeline"
)

func successResult() *pipeline.PipelineResult {
	return &pipeline.PipelineResult{
		PipelineID:      "run-1",
		SourceType:      "api",
		Success:         true,
		StagesCompleted: []string{"authentication", "validation", "processing"},
		StageTimings:    map[string]int64{"authentication": 1, "validation": 2, "processing": 3},
		StartedAt:       time.Now().UTC().Add(-10 * time.Millisecond),
		CompletedAt:     time.Now().UTC(),
		Event: &events.JanusEvent{
			EventID:   "evt-1",
			StreamID:  "stream-1",
			EventType: events.TypeMessageText,
			Context:   events.EventContext{UserID: "user-1"},
		},
	}
}

func failedResult() *pipeline.PipelineResult {
	r := &pipeline.PipelineResult{
		PipelineID:      "run-2",
		SourceType:      "webhook",
		StagesCompleted: []string{"authentication"},
		StageTimings:    map[string]int64{"authentication": 1, "validation": 4},
		StartedAt:       time.Now().UTC().Add(-10 * time.Millisecond),
		Error: stageerrors.NewPipelineError("validation", "run-2",
			stageerrors.NewFormatValidationError("payload is not an object", nil, "")),
	}
	r.MarkCompleted()
	return r
}

func TestBuildRecord_Success(t *testing.T) {
	rec := buildRecord(successResult())

	assert.Equal(t, "run-1", rec.PipelineID)
	assert.True(t, rec.Success)
	assert.Equal(t, "evt-1", rec.EventID)
	assert.Equal(t, "stream-1", rec.StreamID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Empty(t, rec.Error)
	assert.Empty(t, rec.FailedStage)
	assert.Len(t, rec.StagesCompleted, 3)
}

func TestBuildRecord_FailureCapturesStage(t *testing.T) {
	rec := buildRecord(failedResult())

	assert.False(t, rec.Success)
	assert.Empty(t, rec.EventID)
	assert.NotEmpty(t, rec.Error)
	assert.Equal(t, "validation", rec.FailedStage)
}

func TestLogRecorder_RecordRun(t *testing.T) {
	r := NewLogRecorder(logger.NewTestLogger(t))

	r.RecordRun(context.Background(), successResult())
	r.RecordRun(context.Background(), failedResult())

	assert.NoError(t, r.Close())
}

func TestElasticsearchRecorder_IndexesRecord(t *testing.T) {
	indexed := make(chan Record, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.Method == http.MethodPut || r.Method == http.MethodPost {
			var rec Record
			if err := json.NewDecoder(r.Body).Decode(&rec); err == nil {
				indexed <- rec
			}
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	recorder := NewElasticsearchRecorder(client, "", logger.NewTestLogger(t))
	recorder.RecordRun(context.Background(), failedResult())

	select {
	case rec := <-indexed:
		assert.Equal(t, "run-2", rec.PipelineID)
		assert.Equal(t, "validation", rec.FailedStage)
		assert.False(t, rec.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("no document indexed")
	}

	assert.NoError(t, recorder.Close())
}
