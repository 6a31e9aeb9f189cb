// Package capability tracks which input capabilities each registered
// provider supports and answers routing queries over them.
package capability

import (
	"sync"

	stageerrors "janus/internal/common/errors"
	"janus/internal/common/logger"
	"janus/internal/models"
)

// Provider exposes a named set of input capabilities.
type Provider interface {
	Name() string
	Capabilities() []models.InputCapability
}

// CapabilityDetails returns the capability with the given name, or nil if the
// provider does not declare it.
func CapabilityDetails(p Provider, name string) *models.InputCapability {
	for _, cap := range p.Capabilities() {
		if cap.Name == name {
			c := cap
			return &c
		}
	}
	return nil
}

// MissingRequirements lists required capability names the provider does not
// declare.
func MissingRequirements(p Provider, required []string) []string {
	declared := make(map[string]struct{})
	for _, cap := range p.Capabilities() {
		declared[cap.Name] = struct{}{}
	}
	missing := []string{}
	for _, name := range required {
		if _, ok := declared[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Registry is a concurrency-safe provider registry. Registration order is
// preserved and used as the deterministic tie-break when several providers
// offer the same capability.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	logger    logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		order:     []string{},
		logger:    log,
	}
}

// Register adds a provider. Registering a name twice is an error; unregister
// first to replace.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return stageerrors.NewCapabilityError(
			"provider already registered: "+name,
			"", r.capabilityNamesLocked(),
			"unregister the existing provider before re-registering",
		)
	}
	r.providers[name] = p
	r.order = append(r.order, name)

	r.logger.Info("capability provider registered", map[string]interface{}{
		"provider":     name,
		"capabilities": len(p.Capabilities()),
	})
	return nil
}

// Unregister removes a provider by name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return stageerrors.NewCapabilityError(
			"provider not registered: "+name,
			"", r.capabilityNamesLocked(),
			"check the provider name",
		)
	}
	delete(r.providers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("capability provider unregistered", map[string]interface{}{
		"provider": name,
	})
	return nil
}

// Provider returns the provider registered under name, if any.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// ProvidersWithCapability lists provider names declaring the capability, in
// registration order.
func (r *Registry) ProvidersWithCapability(capabilityName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := []string{}
	for _, name := range r.order {
		if CapabilityDetails(r.providers[name], capabilityName) != nil {
			names = append(names, name)
		}
	}
	return names
}

// SystemCapabilities maps every declared capability to the providers that
// offer it.
func (r *Registry) SystemCapabilities() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string][]string)
	for _, name := range r.order {
		for _, cap := range r.providers[name].Capabilities() {
			caps[cap.Name] = append(caps[cap.Name], name)
		}
	}
	return caps
}

// BestProviderFor picks the provider for a capability. Non-experimental
// providers win over experimental ones; among equals the earliest registered
// wins, keeping selection stable across calls.
func (r *Registry) BestProviderFor(capabilityName string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Provider
	bestExperimental := true
	for _, name := range r.order {
		p := r.providers[name]
		cap := CapabilityDetails(p, capabilityName)
		if cap == nil {
			continue
		}
		if best == nil || (bestExperimental && !cap.Experimental) {
			best = p
			bestExperimental = cap.Experimental
		}
	}
	if best == nil {
		return nil, stageerrors.NewCapabilityError(
			"no provider offers capability: "+capabilityName,
			capabilityName, r.capabilityNamesLocked(),
			"register a provider declaring this capability",
		)
	}
	return best, nil
}

// BestProviderForRequirements finds a provider declaring every required
// capability. When preferred names are given, providers also declaring at
// least one preferred capability are considered first. Ties break by
// registration order, keeping selection deterministic.
func (r *Registry) BestProviderForRequirements(required, preferred []string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []Provider
	for _, name := range r.order {
		p := r.providers[name]
		if missing := MissingRequirements(p, required); len(missing) == 0 {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		missing := ""
		if len(required) > 0 {
			missing = required[0]
		}
		return nil, stageerrors.NewCapabilityError(
			"no provider satisfies all required capabilities",
			missing, r.capabilityNamesLocked(),
			"register a provider declaring the full required set",
		)
	}

	for _, p := range candidates {
		for _, name := range preferred {
			if CapabilityDetails(p, name) != nil {
				return p, nil
			}
		}
	}
	return candidates[0], nil
}

// capabilityNamesLocked requires at least a read lock held by the caller.
func (r *Registry) capabilityNamesLocked() []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, name := range r.order {
		for _, cap := range r.providers[name].Capabilities() {
			if _, ok := seen[cap.Name]; ok {
				continue
			}
			seen[cap.Name] = struct{}{}
			names = append(names, cap.Name)
		}
	}
	return names
}
