package pipeline

import (
	"errors"
	"time"

	stageerrors "janus/internal/common/errors"
	"janus/internal/events"
	"janus/internal/models"
)

// PipelineResult is the complete record of one pipeline run. MarkCompleted is
// called on every run, success or failure, so totals and completion times are
// always populated.
type PipelineResult struct {
	Event                 *events.JanusEvent        `json:"event,omitempty"`
	Success               bool                      `json:"success"`
	Error                 error                     `json:"-"`
	ErrorMessage          string                    `json:"error,omitempty"`
	TotalProcessingTimeMS int64                     `json:"total_processing_time_ms"`
	StageTimings          map[string]int64          `json:"stage_timings"`
	StagesCompleted       []string                  `json:"stages_completed"`
	ProcessingContext     *models.ProcessingContext `json:"-"`
	PipelineID            string                    `json:"pipeline_id"`
	SourceType            string                    `json:"source_type"`
	StartedAt             time.Time                 `json:"started_at"`
	CompletedAt           time.Time                 `json:"completed_at"`
}

func newPipelineResult(pipelineID, sourceType string) *PipelineResult {
	return &PipelineResult{
		PipelineID:      pipelineID,
		SourceType:      sourceType,
		StageTimings:    make(map[string]int64),
		StagesCompleted: []string{},
		StartedAt:       time.Now().UTC(),
	}
}

func (r *PipelineResult) recordStage(stage string, started time.Time) {
	r.StageTimings[stage] = time.Since(started).Milliseconds()
}

func (r *PipelineResult) markStageCompleted(stage string) {
	r.StagesCompleted = append(r.StagesCompleted, stage)
}

// MarkCompleted finalizes the result. Safe to call exactly once per run.
func (r *PipelineResult) MarkCompleted() {
	r.CompletedAt = time.Now().UTC()
	r.TotalProcessingTimeMS = r.CompletedAt.Sub(r.StartedAt).Milliseconds()
	if r.Error != nil {
		r.ErrorMessage = r.Error.Error()
	}
}

// FailureEvent converts a failed result into an error event for consumers
// that subscribe to failures. Returns nil on success.
func (r *PipelineResult) FailureEvent() *events.ErrorEvent {
	if r.Success || r.Error == nil {
		return nil
	}
	ev := &events.ErrorEvent{
		EventID:    events.NewID(),
		EventType:  events.TypePipelineError,
		Timestamp:  r.CompletedAt,
		SourceType: r.SourceType,
		PipelineID: r.PipelineID,
		ErrorType:  stageerrors.TypePipeline,
		Message:    r.ErrorMessage,
	}
	var pipeErr *stageerrors.PipelineError
	if errors.As(r.Error, &pipeErr) {
		ev.Stage = pipeErr.FailedStage
	}
	if r.ProcessingContext != nil {
		ev.StreamID = r.ProcessingContext.StreamID
	}
	return ev
}
