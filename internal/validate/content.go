// Package validate implements the second pipeline stage: format validation,
// safety checks, and normalization of authenticated raw input into a
// ValidatedInput.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"janus/internal/models"
)

// Spanish stop words that rarely appear in English text.
var spanishMarkers = map[string]struct{}{
	"el": {}, "la": {}, "los": {}, "las": {}, "es": {}, "un": {}, "una": {},
	"que": {}, "de": {}, "en": {}, "por": {}, "para": {}, "como": {},
	"hola": {}, "gracias": {}, "con": {}, "del": {}, "se": {}, "su": {},
}

var englishMarkers = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "it": {},
	"to": {}, "of": {}, "and": {}, "in": {}, "that": {}, "this": {},
	"hello": {}, "thanks": {}, "with": {}, "for": {}, "you": {}, "i": {},
}

// DetectContentType classifies input into one of the content type constants.
// Commands are text payloads whose trimmed text starts with "/" or "!"; a
// command prefix wins even when attachments are present.
func DetectContentType(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		if isCommandText(v) {
			return models.ContentTypeCommand
		}
		return models.ContentTypeText
	case map[string]interface{}:
		text, hasText := v["text"].(string)
		if hasText && isCommandText(text) {
			return models.ContentTypeCommand
		}
		if attachments, ok := v["attachments"]; ok && hasItems(attachments) {
			return models.ContentTypeAttachments
		}
		if _, ok := v["file"]; ok {
			return models.ContentTypeFileUpload
		}
		if hasText {
			return models.ContentTypeText
		}
		return models.ContentTypeUnknown
	default:
		return models.ContentTypeUnknown
	}
}

func isCommandText(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "!")
}

func hasItems(v interface{}) bool {
	switch items := v.(type) {
	case []interface{}:
		return len(items) > 0
	case []map[string]interface{}:
		return len(items) > 0
	default:
		return v != nil
	}
}

// DetectLanguage is a lightweight stop-word heuristic covering English and
// Spanish. Everything else falls back to English.
func DetectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	var enScore, esScore int
	for _, w := range words {
		w = strings.Trim(w, ".,!?¡¿:;\"'()")
		if _, ok := englishMarkers[w]; ok {
			enScore++
		}
		if _, ok := spanishMarkers[w]; ok {
			esScore++
		}
	}
	if esScore > enScore {
		return "es"
	}
	return "en"
}

// InputSizeBytes measures raw input size: UTF-8 byte length for strings, raw
// length for byte slices, serialized JSON length for maps, and the formatted
// value length for anything else.
func InputSizeBytes(raw interface{}) int {
	switch v := raw.(type) {
	case string:
		return len(v)
	case []byte:
		return len(v)
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return len(fmt.Sprint(v))
		}
		return len(data)
	default:
		return len(fmt.Sprint(v))
	}
}

// ExtractText pulls the primary text out of raw input. Maps use their "text"
// key; missing text yields an empty string.
func ExtractText(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case map[string]interface{}:
		if text, ok := v["text"].(string); ok {
			return text
		}
		return ""
	default:
		return ""
	}
}
