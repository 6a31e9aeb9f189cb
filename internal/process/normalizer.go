// Package process implements the third pipeline stage: content normalization
// and assembly of validated input into a JanusEvent.
package process

import (
	"fmt"

	stageerrors "janus/internal/common/errors"
	"janus/internal/events"
	"janus/internal/models"
)

// ContentNormalizer converts validated input into canonical text content.
type ContentNormalizer interface {
	Normalize(validated *models.ValidatedInput) (*events.TextContent, error)
}

// TextNormalizer extracts text from string and map payloads. Non-text parts
// of the payload survive in the content metadata rather than being dropped.
type TextNormalizer struct{}

func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{}
}

// Normalize reads the validated stage's normalized form, where format
// validators have already unwrapped source envelopes. The raw payload only
// informs the original format label.
func (n *TextNormalizer) Normalize(validated *models.ValidatedInput) (*events.TextContent, error) {
	metadata := map[string]interface{}{
		"content_type":      validated.ContentType,
		"detected_language": validated.DetectedLanguage,
		"input_size_bytes":  validated.InputSizeBytes,
	}

	normalized := validated.NormalizedInput
	if normalized == nil {
		switch raw := validated.RawInput.(type) {
		case string:
			normalized = map[string]interface{}{"text": raw}
		case []byte:
			normalized = map[string]interface{}{"text": string(raw)}
		case map[string]interface{}:
			normalized = raw
		default:
			return nil, stageerrors.NewTextExtractionError(fmt.Sprintf("%T", raw))
		}
	}
	return n.normalizeMap(normalized, validated, metadata)
}

func (n *TextNormalizer) normalizeMap(normalized map[string]interface{}, validated *models.ValidatedInput, metadata map[string]interface{}) (*events.TextContent, error) {
	text, hasText := normalized["text"].(string)

	confidence := 1.0
	for key, value := range normalized {
		if key == "text" {
			continue
		}
		metadata[key] = value
	}

	if !hasText {
		if validated.ContentType == models.ContentTypeFileUpload || validated.ContentType == models.ContentTypeAttachments {
			// Attachment-only input normalizes to empty text; the payload
			// lives in metadata for downstream consumers.
			confidence = 0.5
			text = ""
		} else {
			return nil, stageerrors.NewTextExtractionError("structured")
		}
	}

	return &events.TextContent{
		Text:                 text,
		OriginalFormat:       originalFormat(validated.RawInput),
		Metadata:             metadata,
		ExtractionConfidence: confidence,
	}, nil
}

func originalFormat(raw interface{}) string {
	switch raw.(type) {
	case string:
		return "string"
	case []byte:
		return "bytes"
	default:
		return "structured"
	}
}
