// Package prompt loads reusable system-prompt presets from markdown files
// with YAML frontmatter. A preset carries a system template plus optional
// model and sampling overrides for the request it seeds.
package prompt

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

// Load parses and validates a preset from markdown bytes.
func Load(source string, data []byte) (*Preset, error) {
	config, body, err := parseYAMLWithFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", source, err)
	}

	if strings.TrimSpace(config.SystemTemplate) == "" {
		config.SystemTemplate = strings.TrimSpace(body)
	}

	if strings.TrimSpace(config.SystemTemplate) == "" {
		return nil, fmt.Errorf("preset %s missing system template", source)
	}
	if strings.TrimSpace(config.Slug) == "" {
		return nil, fmt.Errorf("preset %s missing slug", source)
	}

	return &Preset{Config: config, Source: source}, nil
}

// LoadFromDir reads all preset files (.md with YAML frontmatter) from a directory.
func LoadFromDir(dir string) ([]*Preset, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan presets: %w", err)
	}
	results := make([]*Preset, 0, len(entries))
	for _, path := range entries {
		data, err := os.ReadFile(path) // #nosec G304 -- preset path is user-provided
		if err != nil {
			return nil, fmt.Errorf("read preset %s: %w", path, err)
		}
		preset, err := Load(path, data)
		if err != nil {
			return nil, err
		}
		results = append(results, preset)
	}
	return results, nil
}

// Apply seeds a chat request with the preset's system template and overrides.
// Explicit fields already set on the request win over the preset.
func (p *Preset) Apply(req schema.ChatRequest) schema.ChatRequest {
	if p == nil {
		return req
	}
	cfg := p.Config

	if strings.TrimSpace(req.Model) == "" && cfg.Model != "" {
		req.Model = cfg.Model
	}
	if req.Temperature == nil && cfg.Temperature != nil {
		req = req.WithTemperature(*cfg.Temperature)
	}
	if req.MaxTokens == nil && cfg.MaxTokens != nil {
		req = req.WithMaxTokens(*cfg.MaxTokens)
	}
	if len(req.SearchDomainFilter) == 0 && len(cfg.SearchDomainFilter) > 0 {
		req = req.WithSearchDomainFilter(cfg.SearchDomainFilter...)
	}
	if req.SearchRecencyFilter == "" && cfg.SearchRecencyFilter != "" {
		req = req.WithSearchRecencyFilter(cfg.SearchRecencyFilter)
	}

	// The system message goes first; any existing system message wins.
	for _, msg := range req.Messages {
		if msg.Role == schema.RoleSystem {
			return req
		}
	}
	msgs := append([]schema.Message{schema.System(cfg.SystemTemplate)}, req.Messages...)
	return req.WithMessages(msgs...)
}

func parseYAMLWithFrontmatter(data []byte) (Config, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Config{}, "", fmt.Errorf("empty preset")
	}

	lines := bufio.NewScanner(bytes.NewReader(trimmed))
	lines.Split(bufio.ScanLines)

	var (
		frontmatter []string
		body        []string
		inFront     bool
		headerSeen  bool
	)

	for lines.Scan() {
		line := lines.Text()
		switch {
		case !headerSeen && strings.TrimSpace(line) == "---":
			headerSeen = true
			inFront = true
		case headerSeen && inFront && strings.TrimSpace(line) == "---":
			inFront = false
		default:
			if inFront {
				frontmatter = append(frontmatter, line)
			} else {
				body = append(body, line)
			}
		}
	}
	if err := lines.Err(); err != nil {
		return Config{}, "", err
	}

	var cfg Config
	if headerSeen {
		if err := yaml.Unmarshal([]byte(strings.Join(frontmatter, "\n")), &cfg); err != nil {
			return Config{}, "", fmt.Errorf("invalid frontmatter: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &cfg); err != nil {
			return Config{}, "", fmt.Errorf("invalid yaml: %w", err)
		}
	}

	return cfg, strings.Join(body, "\n"), nil
}
