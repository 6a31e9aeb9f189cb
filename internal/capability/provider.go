package capability

import "janus/internal/models"

// StaticProvider declares a fixed capability set. Input sources and manifest
// entries register through it.
type StaticProvider struct {
	name         string
	capabilities []models.InputCapability
}

func NewStaticProvider(name string, capabilities []models.InputCapability) *StaticProvider {
	return &StaticProvider{name: name, capabilities: capabilities}
}

func (p *StaticProvider) Name() string {
	return p.name
}

func (p *StaticProvider) Capabilities() []models.InputCapability {
	caps := make([]models.InputCapability, len(p.capabilities))
	copy(caps, p.capabilities)
	return caps
}
