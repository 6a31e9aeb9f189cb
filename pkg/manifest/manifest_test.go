package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1",
		"providers": [
			{
				"name": "ocr-service",
				"description": "image to text",
				"capabilities": [
					{"name": "ocr", "version": "2.1.0", "experimental": true},
					{"name": "file_attachments", "version": "1.0.0", "required": true}
				]
			}
		]
	}`), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Providers, 1)

	p := m.Providers[0]
	assert.Equal(t, "ocr-service", p.Name)
	require.Len(t, p.Capabilities, 2)
	assert.True(t, p.Capabilities[0].Experimental)
	assert.True(t, p.Capabilities[1].Required)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
