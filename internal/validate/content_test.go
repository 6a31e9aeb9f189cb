package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"janus/internal/models"
)

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected string
	}{
		{"plain text", "hello there", models.ContentTypeText},
		{"slash command", "/help", models.ContentTypeCommand},
		{"bang command", "!status", models.ContentTypeCommand},
		{"command with leading spaces", "  /help", models.ContentTypeCommand},
		{"text in map", map[string]interface{}{"text": "hello"}, models.ContentTypeText},
		{"command in map", map[string]interface{}{"text": "/help"}, models.ContentTypeCommand},
		{
			"attachments take precedence over plain text",
			map[string]interface{}{"text": "see attached", "attachments": []interface{}{map[string]interface{}{"id": "1"}}},
			models.ContentTypeAttachments,
		},
		{
			"command prefix wins over attachments",
			map[string]interface{}{"text": "/deploy", "attachments": []interface{}{map[string]interface{}{"id": "1"}}},
			models.ContentTypeCommand,
		},
		{
			"empty attachments fall through to text",
			map[string]interface{}{"text": "hello", "attachments": []interface{}{}},
			models.ContentTypeText,
		},
		{"file upload", map[string]interface{}{"file": map[string]interface{}{"name": "a.txt"}}, models.ContentTypeFileUpload},
		{"map without text", map[string]interface{}{"other": 1}, models.ContentTypeUnknown},
		{"unsupported type", 42, models.ContentTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectContentType(tt.raw))
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"english", "hello, this is a test of the system", "en"},
		{"spanish", "hola, esto es una prueba del sistema", "es"},
		{"ambiguous defaults to english", "xyzzy plugh", "en"},
		{"empty defaults to english", "", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectLanguage(tt.text))
		})
	}
}

func TestInputSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected int
	}{
		{"ascii string", "0123456789", 10},
		{"multibyte string counts bytes not runes", "héllo", 6},
		{"byte slice", []byte{1, 2, 3}, 3},
		{"map uses serialized size", map[string]interface{}{"a": "b"}, len(`{"a":"b"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InputSizeBytes(tt.raw))
		})
	}
}

func TestExtractText(t *testing.T) {
	assert.Equal(t, "hi", ExtractText("hi"))
	assert.Equal(t, "hi", ExtractText(map[string]interface{}{"text": "hi"}))
	assert.Equal(t, "", ExtractText(map[string]interface{}{"other": 1}))
	assert.Equal(t, "", ExtractText(42))
}
