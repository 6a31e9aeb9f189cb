// pkg/manifest/manifest.go
package manifest

import (
	"encoding/json"
	"os"
)

// Load reads a capability manifest from disk.
func Load(path string) (*CapabilityManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m CapabilityManifest
	err = json.Unmarshal(data, &m)
	return &m, err
}
