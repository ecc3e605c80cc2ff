// Package config provides centralized configuration management for SonarLens.
// Values are merged from three layers: built-in defaults, an optional YAML
// config file, and SONARLENS_* environment variables. The Perplexity API key
// additionally falls back to PERPLEXITY_API_KEY so the client works with the
// conventional variable alone.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/sonarlens/sonarlens/internal/pplx"
)

const (
	envPrefix  = "SONARLENS"
	configName = "sonarlens"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// Load merges defaults, the config file (explicit path or discovered), and
// environment variables into a Config. Safe to call multiple times; the last
// loaded config is retrievable via GetConfig.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, dir := range configSearchPaths() {
			v.AddConfigPath(dir)
		}
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnvFallbacks(cfg)

	if strings.TrimSpace(cfg.History.URL) == "" && strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = DefaultHistoryPath()
	}

	setConfig(cfg)
	return cfg, nil
}

// GetConfig returns the current application configuration (thread-safe).
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func setDefaults(v *viper.Viper) {
	// Keys without a meaningful default still need registering so the
	// matching SONARLENS_* environment variable is picked up.
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.user_agent", "")
	v.SetDefault("api.proxy", "")
	v.SetDefault("history.path", "")
	v.SetDefault("history.url", "")
	v.SetDefault("history.auth_token", "")
	v.SetDefault("prompts.dir", "")

	v.SetDefault("api.base_url", pplx.DefaultBaseURL)
	v.SetDefault("api.timeout", pplx.DefaultTimeout)
	v.SetDefault("api.max_retries", pplx.DefaultMaxRetries)
	v.SetDefault("api.backoff_base", pplx.DefaultBackoffBase)
	v.SetDefault("api.rate_limit_enabled", true)
	v.SetDefault("api.requests_per_minute", pplx.DefaultRequestsPerMinute)
	v.SetDefault("api.insecure_skip_verify", false)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.driver", "libsql")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "SIMPLE")

	v.SetDefault("output.format", "table")
}

// applyEnvFallbacks honors the conventional PERPLEXITY_* variables when the
// SONARLENS_* equivalents are absent.
func applyEnvFallbacks(cfg *Config) {
	if strings.TrimSpace(cfg.API.APIKey) == "" {
		cfg.API.APIKey = strings.TrimSpace(os.Getenv("PERPLEXITY_API_KEY"))
	}
	if strings.TrimSpace(cfg.API.Proxy) == "" {
		cfg.API.Proxy = strings.TrimSpace(os.Getenv("PERPLEXITY_PROXY"))
	}
}

func configSearchPaths() []string {
	paths := []string{"."}
	if dir := userConfigDir(); dir != "" {
		paths = append(paths, dir)
	}
	return paths
}

func userConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, configName)
}

// DefaultConfigPath returns the path where `sonarlens config init` would
// write the user config file.
func DefaultConfigPath() string {
	dir := userConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, configName+".yaml")
}

// DefaultHistoryPath returns the default path to the history database file.
func DefaultHistoryPath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return "./" + configName + ".db"
	}
	return filepath.Join(base, configName, configName+".db")
}
