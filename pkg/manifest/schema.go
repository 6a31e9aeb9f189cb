// pkg/manifest/schema.go
package manifest

// CapabilityManifest declares the capability set of one or more providers so
// deployments can extend the registry without recompiling.
type CapabilityManifest struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Providers   []Provider `json:"providers"`
}

type Provider struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Capabilities []Capability `json:"capabilities"`
}

type Capability struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Version      string                 `json:"version"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Required     bool                   `json:"required"`
	Experimental bool                   `json:"experimental"`
	Dependencies []string               `json:"dependencies,omitempty"`
}
