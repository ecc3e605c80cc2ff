package prompt

import (
	"embed"
	"fmt"
)

//go:embed presets/*.md
var defaultPresetsFS embed.FS

// LoadDefaults loads the embedded preset set.
func LoadDefaults() ([]*Preset, error) {
	entries, err := defaultPresetsFS.ReadDir("presets")
	if err != nil {
		return nil, fmt.Errorf("read embedded presets: %w", err)
	}
	results := make([]*Preset, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := defaultPresetsFS.ReadFile("presets/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded preset %s: %w", entry.Name(), err)
		}
		preset, err := Load(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		results = append(results, preset)
	}
	return results, nil
}

// DefaultRegistry builds a registry from embedded presets, extended by any
// presets found in dir. A slug collision between the two sets is an error.
func DefaultRegistry(dir string) (Registry, error) {
	presets, err := LoadDefaults()
	if err != nil {
		return nil, err
	}
	if dir != "" {
		extra, err := LoadFromDir(dir)
		if err != nil {
			return nil, err
		}
		presets = append(presets, extra...)
	}
	return NewRegistry(presets)
}
