package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janus/internal/common/logger"
	"janus/internal/events"
	"janus/internal/models"
)

func testProcessingContext(raw interface{}, contentType string) *models.ProcessingContext {
	auth := &models.AuthContext{
		UserID:             "user-1",
		SourceType:         "api",
		SourceID:           "rest",
		SessionID:          "sess-42",
		GrantedPermissions: []string{"chat", "tools.calculator"},
		AuthenticatedAt:    time.Now().UTC(),
		AuthMetadata:       map[string]interface{}{"method": "api_key"},
	}
	normalized, _ := raw.(map[string]interface{})
	if normalized == nil {
		if s, ok := raw.(string); ok {
			normalized = map[string]interface{}{"text": s}
		}
	}
	validated := &models.ValidatedInput{
		RawInput:             raw,
		NormalizedInput:      normalized,
		ValidationConfidence: 1.0,
		DetectedLanguage:     "en",
		ContentType:          contentType,
		InputSizeBytes:       10,
	}
	return models.NewProcessingContext(auth, validated, nil)
}

func TestProcessor_Process_PlainText(t *testing.T) {
	p := NewProcessor(NewTextNormalizer(), logger.NewTestLogger(t))

	procCtx := testProcessingContext("hello world", models.ContentTypeText)
	event, err := p.Process(context.Background(), procCtx)

	require.NoError(t, err)
	assert.Equal(t, "hello world", event.Content.Text)
	assert.Equal(t, events.TypeMessageText, event.EventType)
	assert.Equal(t, "user-1", event.Context.UserID)
	assert.Equal(t, []string{"chat", "tools.calculator"}, event.Context.Permissions)
	assert.NotEmpty(t, event.EventID)
	assert.NotEmpty(t, event.TraceID)
	assert.NotEqual(t, event.EventID, event.TraceID)
	assert.Contains(t, procCtx.ProcessingSteps, "normalization")
	assert.Contains(t, procCtx.ProcessingSteps, "event_construction")
}

func TestProcessor_Process_EventTypeHeuristic(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		expected    string
	}{
		{"command", models.ContentTypeCommand, events.TypeCommandText},
		{"attachments", models.ContentTypeAttachments, events.TypeMessageWithAttachments},
		{"file upload", models.ContentTypeFileUpload, events.TypeFileProcessed},
		{"text", models.ContentTypeText, events.TypeMessageText},
	}

	p := NewProcessor(NewTextNormalizer(), logger.NewNoOpLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]interface{}{"text": "payload", "attachments": []interface{}{}}
			event, err := p.Process(context.Background(), testProcessingContext(raw, tt.contentType))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, event.EventType)
		})
	}
}

func TestProcessor_Process_TargetEventTypeOverride(t *testing.T) {
	p := NewProcessor(NewTextNormalizer(), logger.NewNoOpLogger())

	procCtx := testProcessingContext("/help", models.ContentTypeCommand)
	procCtx.TargetEventType = events.TypeMessageText

	event, err := p.Process(context.Background(), procCtx)
	require.NoError(t, err)
	assert.Equal(t, events.TypeMessageText, event.EventType)
}

func TestEventBuilder_StreamIDPrecedence(t *testing.T) {
	b := NewEventBuilder()
	content := &events.TextContent{Text: "hi", OriginalFormat: "string", ExtractionConfidence: 1.0}

	t.Run("explicit stream id wins", func(t *testing.T) {
		procCtx := testProcessingContext("hi", models.ContentTypeText)
		procCtx.StreamID = "stream-explicit"
		event := b.Build(content, procCtx)
		assert.Equal(t, "stream-explicit", event.StreamID)
	})

	t.Run("adapter context stream id beats session", func(t *testing.T) {
		procCtx := testProcessingContext("hi", models.ContentTypeText)
		procCtx.AdapterContext["stream_id"] = "stream-adapter"
		event := b.Build(content, procCtx)
		assert.Equal(t, "stream-adapter", event.StreamID)
	})

	t.Run("session id used when no explicit stream", func(t *testing.T) {
		procCtx := testProcessingContext("hi", models.ContentTypeText)
		event := b.Build(content, procCtx)
		assert.Equal(t, "sess-42", event.StreamID)
	})

	t.Run("derived from event id as last resort", func(t *testing.T) {
		procCtx := testProcessingContext("hi", models.ContentTypeText)
		procCtx.AuthContext.SessionID = ""
		event := b.Build(content, procCtx)
		assert.Equal(t, "stream-"+event.EventID, event.StreamID)
	})
}

func TestTextNormalizer(t *testing.T) {
	n := NewTextNormalizer()

	t.Run("string passthrough", func(t *testing.T) {
		validated := &models.ValidatedInput{RawInput: "hello", ContentType: models.ContentTypeText}
		content, err := n.Normalize(validated)
		require.NoError(t, err)
		assert.Equal(t, "hello", content.Text)
		assert.Equal(t, "string", content.OriginalFormat)
		assert.Equal(t, 1.0, content.ExtractionConfidence)
	})

	t.Run("map preserves extra keys in metadata", func(t *testing.T) {
		validated := &models.ValidatedInput{
			RawInput:    map[string]interface{}{"text": "hello", "priority": "high"},
			ContentType: models.ContentTypeText,
		}
		content, err := n.Normalize(validated)
		require.NoError(t, err)
		assert.Equal(t, "hello", content.Text)
		assert.Equal(t, "high", content.Metadata["priority"])
	})

	t.Run("normalized form wins over raw envelope", func(t *testing.T) {
		validated := &models.ValidatedInput{
			RawInput: map[string]interface{}{
				"type":  "event_callback",
				"event": map[string]interface{}{"type": "message", "user": "U123", "text": "hello team"},
			},
			NormalizedInput: map[string]interface{}{"text": "hello team", "team_id": "T1"},
			ContentType:     models.ContentTypeText,
		}
		content, err := n.Normalize(validated)
		require.NoError(t, err)
		assert.Equal(t, "hello team", content.Text)
		assert.Equal(t, "structured", content.OriginalFormat)
		assert.Equal(t, 1.0, content.ExtractionConfidence)
		assert.Equal(t, "T1", content.Metadata["team_id"])
	})

	t.Run("attachment only input has reduced confidence", func(t *testing.T) {
		validated := &models.ValidatedInput{
			RawInput:    map[string]interface{}{"attachments": []interface{}{map[string]interface{}{"id": "1"}}},
			ContentType: models.ContentTypeAttachments,
		}
		content, err := n.Normalize(validated)
		require.NoError(t, err)
		assert.Empty(t, content.Text)
		assert.Less(t, content.ExtractionConfidence, 1.0)
	})

	t.Run("unsupported type fails", func(t *testing.T) {
		validated := &models.ValidatedInput{RawInput: 42, ContentType: models.ContentTypeUnknown}
		_, err := n.Normalize(validated)
		assert.Error(t, err)
	})

	t.Run("map without text and not attachment fails", func(t *testing.T) {
		validated := &models.ValidatedInput{
			RawInput:    map[string]interface{}{"other": true},
			ContentType: models.ContentTypeUnknown,
		}
		_, err := n.Normalize(validated)
		assert.Error(t, err)
	})
}
