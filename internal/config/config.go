package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabula-cli/internal/ratelimit"
)

// Global configuration structure.
type Global struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// External tier guard
	RateLimitMaxRequests int `mapstructure:"rate_limit_max_requests" yaml:"rate_limit_max_requests"`
	RateLimitWindowSec   int `mapstructure:"rate_limit_window_sec" yaml:"rate_limit_window_sec"`
	RateLimitMinDelayMs  int `mapstructure:"rate_limit_min_delay_ms" yaml:"rate_limit_min_delay_ms"`
	ExternalTimeoutSec   int `mapstructure:"external_timeout_sec" yaml:"external_timeout_sec"`

	// Prompt bounds
	SampleRows        int `mapstructure:"sample_rows" yaml:"sample_rows"`
	PromptTokenBudget int `mapstructure:"prompt_token_budget" yaml:"prompt_token_budget"`

	// Result cache
	CacheTTLSec     int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	CacheMaxEntries int `mapstructure:"cache_max_entries" yaml:"cache_max_entries"`

	// Server
	ServerAddr       string   `mapstructure:"server_addr" yaml:"server_addr"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
	BatchConcurrency int      `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`

	// Chat sessions
	SessionIdleMin int `mapstructure:"session_idle_min" yaml:"session_idle_min"`
	MaxSessions    int `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// RateLimit returns the limiter parameters.
func (c *Global) RateLimit() ratelimit.Config {
	return ratelimit.Config{
		MaxRequests: c.RateLimitMaxRequests,
		Window:      time.Duration(c.RateLimitWindowSec) * time.Second,
		MinDelay:    time.Duration(c.RateLimitMinDelayMs) * time.Millisecond,
	}
}

// ConfigDir is ~/.tabula.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabula"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabula/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABULA")
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("provider", "openrouter")
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.2)
	// HTTP/retry defaults. One attempt: the fallback chain has no retry loop.
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 1)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	// External tier guard
	v.SetDefault("rate_limit_max_requests", 8)
	v.SetDefault("rate_limit_window_sec", 60)
	v.SetDefault("rate_limit_min_delay_ms", 1000)
	v.SetDefault("external_timeout_sec", 30)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("prompt_token_budget", 6000)
	v.SetDefault("cache_ttl_sec", 600)
	v.SetDefault("cache_max_entries", 1000)
	v.SetDefault("server_addr", ":8787")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("batch_concurrency", 4)
	v.SetDefault("session_idle_min", 60)
	v.SetDefault("max_sessions", 10000)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; an existing file must parse
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
