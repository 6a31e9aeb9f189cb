// Package events defines the event envelope handed to the event bus after a
// successful pipeline run.
package events

import (
	"time"

	"github.com/google/uuid"
)

// TextContent is the normalized payload of every event. All input formats are
// reduced to text plus metadata; anything that cannot be converted is kept in
// Metadata with a note of the limitation.
type TextContent struct {
	Text                 string                 `json:"text"`
	OriginalFormat       string                 `json:"original_format"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
	ExtractionConfidence float64                `json:"extraction_confidence"`
}

// EventContext carries the identity and permission context resolved during
// authentication, copied onto the event for downstream consumers.
type EventContext struct {
	UserID      string                 `json:"user_id"`
	SessionID   string                 `json:"session_id,omitempty"`
	SourceType  string                 `json:"source_type"`
	SourceID    string                 `json:"source_id"`
	Permissions []string               `json:"permissions,omitempty"`
	Priority    string                 `json:"priority,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// JanusEvent is the single artifact a successful pipeline run produces.
type JanusEvent struct {
	EventID   string       `json:"event_id"`
	StreamID  string       `json:"stream_id"`
	EventType string       `json:"event_type"`
	Timestamp time.Time    `json:"timestamp"`
	TraceID   string       `json:"trace_id"`
	Content   TextContent  `json:"content"`
	Context   EventContext `json:"context"`
}

// ErrorEvent describes a failed pipeline run in event form, for consumers
// that subscribe to failures rather than scrape logs.
type ErrorEvent struct {
	EventID    string                 `json:"event_id"`
	StreamID   string                 `json:"stream_id,omitempty"`
	EventType  string                 `json:"event_type"`
	Timestamp  time.Time              `json:"timestamp"`
	TraceID    string                 `json:"trace_id,omitempty"`
	SourceType string                 `json:"source_type"`
	PipelineID string                 `json:"pipeline_id"`
	Stage      string                 `json:"stage"`
	ErrorType  string                 `json:"error_type"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Event types emitted by the input pipeline.
const (
	TypeMessageText            = "input.message.text"
	TypeMessageWithAttachments = "input.message.with_attachments"
	TypeCommandText            = "input.command.text"
	TypeFileProcessed          = "input.file.processed"
	TypePipelineError          = "input.pipeline.error"
)

// NewID returns a fresh unique identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current UTC time.
func Now() time.Time {
	return time.Now().UTC()
}
