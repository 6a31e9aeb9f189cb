// Package audit records pipeline run outcomes for later inspection.
package audit

import (
	"context"
	"time"

	"janus/internal/common/logger"
	"janus/internal/pipeline"
)

// Record is the persisted summary of one pipeline run. Raw input never
// appears here; only derived facts do.
type Record struct {
	PipelineID      string           `json:"pipeline_id"`
	SourceType      string           `json:"source_type"`
	Success         bool             `json:"success"`
	Error           string           `json:"error,omitempty"`
	EventID         string           `json:"event_id,omitempty"`
	EventType       string           `json:"event_type,omitempty"`
	StreamID        string           `json:"stream_id,omitempty"`
	UserID          string           `json:"user_id,omitempty"`
	StagesCompleted []string         `json:"stages_completed"`
	StageTimings    map[string]int64 `json:"stage_timings"`
	TotalTimeMS     int64            `json:"total_processing_time_ms"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     time.Time        `json:"completed_at"`

	FailedStage string `json:"failed_stage,omitempty"`
}

// Recorder persists run records. Recording failures must never fail the run
// itself; implementations log and move on.
type Recorder interface {
	RecordRun(ctx context.Context, result *pipeline.PipelineResult)
	Close() error
}

func buildRecord(result *pipeline.PipelineResult) Record {
	rec := Record{
		PipelineID:      result.PipelineID,
		SourceType:      result.SourceType,
		Success:         result.Success,
		StagesCompleted: result.StagesCompleted,
		StageTimings:    result.StageTimings,
		TotalTimeMS:     result.TotalProcessingTimeMS,
		StartedAt:       result.StartedAt,
		CompletedAt:     result.CompletedAt,
	}
	if result.Error != nil {
		rec.Error = result.Error.Error()
	}
	if fev := result.FailureEvent(); fev != nil {
		rec.FailedStage = fev.Stage
		if rec.StreamID == "" {
			rec.StreamID = fev.StreamID
		}
	}
	if result.Event != nil {
		rec.EventID = result.Event.EventID
		rec.EventType = result.Event.EventType
		rec.StreamID = result.Event.StreamID
		rec.UserID = result.Event.Context.UserID
	}
	return rec
}

// LogRecorder writes run records to the structured log. It is the default
// backend when no external store is configured.
type LogRecorder struct {
	logger logger.Logger
}

func NewLogRecorder(log logger.Logger) *LogRecorder {
	return &LogRecorder{logger: log}
}

func (r *LogRecorder) RecordRun(_ context.Context, result *pipeline.PipelineResult) {
	rec := buildRecord(result)
	r.logger.Info("pipeline run recorded", map[string]interface{}{
		"pipelineId": rec.PipelineID,
		"sourceType": rec.SourceType,
		"success":    rec.Success,
		"eventId":    rec.EventID,
		"totalMs":    rec.TotalTimeMS,
		"stages":     rec.StagesCompleted,
	})
}

func (r *LogRecorder) Close() error { return nil }

// NoopRecorder discards records. Used when auditing is disabled.
type NoopRecorder struct{}

func (NoopRecorder) RecordRun(context.Context, *pipeline.PipelineResult) {}
func (NoopRecorder) Close() error                                       { return nil }
