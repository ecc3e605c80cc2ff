package pplx

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultBaseURL           = "https://api.perplexity.ai"
	DefaultTimeout           = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultBackoffBase       = 100 * time.Millisecond
	DefaultRequestsPerMinute = 60
)

// Config holds client construction parameters. It is validated once by New;
// invalid values surface as ConfigError before any network activity.
type Config struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`

	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	RateLimitEnabled  bool `mapstructure:"rate_limit_enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`

	UserAgent string `mapstructure:"user_agent"`
	Proxy     string `mapstructure:"proxy"`

	// InsecureSkipVerify disables TLS certificate verification. The zero
	// value verifies, so a hand-built Config is safe by default.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// DefaultConfig returns a config with all defaults filled in and rate
// limiting enabled. The API key must still be supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           DefaultTimeout,
		MaxRetries:        DefaultMaxRetries,
		BackoffBase:       DefaultBackoffBase,
		RateLimitEnabled:  true,
		RequestsPerMinute: DefaultRequestsPerMinute,
	}
}

// FromEnvironment builds a config from PERPLEXITY_* environment variables.
// PERPLEXITY_API_KEY is required; PERPLEXITY_BASE_URL, PERPLEXITY_TIMEOUT
// (seconds), and PERPLEXITY_PROXY are optional overrides.
func FromEnvironment() (Config, error) {
	cfg := DefaultConfig()

	cfg.APIKey = strings.TrimSpace(os.Getenv("PERPLEXITY_API_KEY"))
	if cfg.APIKey == "" {
		return Config{}, &apierr.ConfigError{Message: "PERPLEXITY_API_KEY environment variable not set"}
	}

	if baseURL := strings.TrimSpace(os.Getenv("PERPLEXITY_BASE_URL")); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if raw := strings.TrimSpace(os.Getenv("PERPLEXITY_TIMEOUT")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, &apierr.ConfigError{Message: "invalid PERPLEXITY_TIMEOUT value"}
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}
	if proxy := strings.TrimSpace(os.Getenv("PERPLEXITY_PROXY")); proxy != "" {
		cfg.Proxy = proxy
	}

	return cfg, nil
}

// withDefaults fills zero-valued fields so callers can construct a Config
// with only the fields they care about.
func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	return c
}

// Validate checks construction parameters.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &apierr.ConfigError{Message: "API key must be set"}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return &apierr.ConfigError{Message: "base URL must be set"}
	}
	if c.Timeout <= 0 {
		return &apierr.ConfigError{Message: "timeout must be positive"}
	}
	if c.MaxRetries < 0 {
		return &apierr.ConfigError{Message: "max retries cannot be negative"}
	}
	if c.BackoffBase <= 0 {
		return &apierr.ConfigError{Message: "backoff base must be positive"}
	}
	if c.RequestsPerMinute <= 0 {
		return &apierr.ConfigError{Message: "requests per minute must be positive"}
	}
	return nil
}
