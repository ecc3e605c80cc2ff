package prompt

// Config describes a prompt preset loaded from a markdown file with YAML
// frontmatter. The body of the file becomes the system template when the
// frontmatter does not set one explicitly.
type Config struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Updated     string `yaml:"updated,omitempty"`

	// Model and sampling overrides applied when the preset is used.
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`

	SystemTemplate      string   `yaml:"system_template,omitempty"`
	SearchDomainFilter  []string `yaml:"search_domain_filter,omitempty"`
	SearchRecencyFilter string   `yaml:"search_recency_filter,omitempty"`
}

// Preset wraps a validated prompt configuration with its source.
type Preset struct {
	Config Config
	Source string
}
