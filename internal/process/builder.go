package process

import (
	"janus/internal/events"
	"janus/internal/models"
)

// EventBuilder assembles normalized content and pipeline context into a
// JanusEvent ready for publication.
type EventBuilder struct{}

func NewEventBuilder() *EventBuilder {
	return &EventBuilder{}
}

// DetermineEventType picks the event type from the validated content type
// unless the processing context pins an explicit target type.
func (b *EventBuilder) DetermineEventType(procCtx *models.ProcessingContext) string {
	if procCtx.TargetEventType != "" {
		return procCtx.TargetEventType
	}
	switch procCtx.ValidatedInput.ContentType {
	case models.ContentTypeCommand:
		return events.TypeCommandText
	case models.ContentTypeAttachments:
		return events.TypeMessageWithAttachments
	case models.ContentTypeFileUpload:
		return events.TypeFileProcessed
	default:
		return events.TypeMessageText
	}
}

// Build constructs the final event. Event and trace identifiers are freshly
// generated; the stream identifier follows a fixed precedence so related
// messages land on the same stream.
func (b *EventBuilder) Build(content *events.TextContent, procCtx *models.ProcessingContext) *events.JanusEvent {
	eventID := events.NewID()
	auth := procCtx.AuthContext

	eventCtx := events.EventContext{
		UserID:      auth.UserID,
		SessionID:   auth.SessionID,
		SourceType:  auth.SourceType,
		SourceID:    auth.SourceID,
		Permissions: auth.GrantedPermissions,
		Priority:    "normal",
		Metadata:    b.contextMetadata(procCtx),
	}

	return &events.JanusEvent{
		EventID:   eventID,
		StreamID:  b.resolveStreamID(eventID, procCtx),
		EventType: b.DetermineEventType(procCtx),
		Timestamp: events.Now(),
		TraceID:   events.NewID(),
		Content:   *content,
		Context:   eventCtx,
	}
}

// resolveStreamID precedence: explicit stream in the processing context, then
// the authenticated session, then a stream derived from the event itself.
func (b *EventBuilder) resolveStreamID(eventID string, procCtx *models.ProcessingContext) string {
	if procCtx.StreamID != "" {
		return procCtx.StreamID
	}
	if streamID, ok := procCtx.AdapterContext["stream_id"].(string); ok && streamID != "" {
		return streamID
	}
	if procCtx.AuthContext.SessionID != "" {
		return procCtx.AuthContext.SessionID
	}
	return "stream-" + eventID
}

func (b *EventBuilder) contextMetadata(procCtx *models.ProcessingContext) map[string]interface{} {
	metadata := map[string]interface{}{
		"processing_steps": procCtx.ProcessingSteps,
	}
	if method, ok := procCtx.AuthContext.AuthMetadata["method"]; ok {
		metadata["auth_method"] = method
	}
	if procCtx.ThreadID != "" {
		metadata["thread_id"] = procCtx.ThreadID
	}
	for key, value := range procCtx.AdapterContext {
		if key == "stream_id" {
			continue
		}
		metadata[key] = value
	}
	return metadata
}
