package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Registry provides access to prompt presets.
type Registry interface {
	Get(slug string) (*Preset, error)
	List() []*Preset
}

// InMemoryRegistry stores presets by slug.
type InMemoryRegistry struct {
	presets map[string]*Preset
}

// NewRegistry builds a registry from presets.
func NewRegistry(presets []*Preset) (*InMemoryRegistry, error) {
	reg := &InMemoryRegistry{presets: make(map[string]*Preset)}
	for _, preset := range presets {
		if preset == nil {
			continue
		}
		slug := strings.TrimSpace(preset.Config.Slug)
		if slug == "" {
			return nil, fmt.Errorf("preset missing slug")
		}
		if _, ok := reg.presets[slug]; ok {
			return nil, fmt.Errorf("duplicate preset slug: %s", slug)
		}
		reg.presets[slug] = preset
	}
	return reg, nil
}

// Get returns the preset for the slug.
func (r *InMemoryRegistry) Get(slug string) (*Preset, error) {
	if r == nil {
		return nil, fmt.Errorf("preset registry not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("preset slug is required")
	}
	preset, ok := r.presets[slug]
	if !ok {
		return nil, fmt.Errorf("preset %q not found", slug)
	}
	return preset, nil
}

// List returns presets sorted by slug.
func (r *InMemoryRegistry) List() []*Preset {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.presets))
	for slug := range r.presets {
		keys = append(keys, slug)
	}
	sort.Strings(keys)
	result := make([]*Preset, 0, len(keys))
	for _, slug := range keys {
		result = append(result, r.presets[slug])
	}
	return result
}
