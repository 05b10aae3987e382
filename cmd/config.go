package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/tabula-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Tabula configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "api_key: %s\n", mask(cfg.APIKey))
		fmt.Fprintf(w, "provider: %s\n", cfg.Provider)
		fmt.Fprintf(w, "model: %s\n", cfg.Model)
		if cfg.BaseURL != "" {
			fmt.Fprintf(w, "base_url: %s\n", cfg.BaseURL)
		}
		fmt.Fprintf(w, "max_tokens: %d\n", cfg.MaxTokens)
		fmt.Fprintf(w, "temperature: %.3f\n", cfg.Temperature)
		fmt.Fprintf(w, "ollama_host: %s\n", cfg.OllamaHost)
		fmt.Fprintf(w, "rate_limit: %d requests / %ds, %dms apart\n", cfg.RateLimitMaxRequests, cfg.RateLimitWindowSec, cfg.RateLimitMinDelayMs)
		fmt.Fprintf(w, "external_timeout_sec: %d\n", cfg.ExternalTimeoutSec)
		fmt.Fprintf(w, "cache: %d entries, ttl %ds\n", cfg.CacheMaxEntries, cfg.CacheTTLSec)
		fmt.Fprintf(w, "sample_rows: %d\n", cfg.SampleRows)
		fmt.Fprintf(w, "prompt_token_budget: %d\n", cfg.PromptTokenBudget)
		fmt.Fprintf(w, "server_addr: %s\n", cfg.ServerAddr)
		fmt.Fprintf(w, "batch_concurrency: %d\n", cfg.BatchConcurrency)
		fmt.Fprintf(w, "sessions: %d max, idle %dm\n", cfg.MaxSessions, cfg.SessionIdleMin)
		return nil
	},
}

// intKeys maps integer settings to their fields.
func intKeys(c *cfgpkg.Global) map[string]*int {
	return map[string]*int{
		"max_tokens":              &c.MaxTokens,
		"http_timeout_sec":        &c.HTTPTimeoutSec,
		"retry_max_attempts":      &c.RetryMaxAttempts,
		"retry_base_delay_ms":     &c.RetryBaseDelayMs,
		"retry_max_delay_ms":      &c.RetryMaxDelayMs,
		"rate_limit_max_requests": &c.RateLimitMaxRequests,
		"rate_limit_window_sec":   &c.RateLimitWindowSec,
		"rate_limit_min_delay_ms": &c.RateLimitMinDelayMs,
		"external_timeout_sec":    &c.ExternalTimeoutSec,
		"sample_rows":             &c.SampleRows,
		"prompt_token_budget":     &c.PromptTokenBudget,
		"cache_ttl_sec":           &c.CacheTTLSec,
		"cache_max_entries":       &c.CacheMaxEntries,
		"batch_concurrency":       &c.BatchConcurrency,
		"session_idle_min":        &c.SessionIdleMin,
		"max_sessions":            &c.MaxSessions,
	}
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if p, ok := intKeys(cfg)[key]; ok {
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			*p = i
		} else {
			switch key {
			case "api_key":
				cfg.APIKey = val
			case "provider":
				p := strings.ToLower(val)
				if p == "local" {
					p = ai.ProviderOllama
				}
				switch p {
				case ai.ProviderOpenRouter, ai.ProviderOpenAI, ai.ProviderOllama:
					cfg.Provider = p
				default:
					return fmt.Errorf("invalid provider: %s (use openrouter, openai or ollama)", val)
				}
			case "model":
				cfg.Model = val
			case "base_url":
				cfg.BaseURL = val
			case "ollama_host":
				cfg.OllamaHost = val
			case "server_addr":
				cfg.ServerAddr = val
			case "temperature":
				f, err := strconv.ParseFloat(val, 64)
				if err != nil {
					return fmt.Errorf("invalid float for temperature: %w", err)
				}
				cfg.Temperature = f
			default:
				return fmt.Errorf("unknown key: %s", key)
			}
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
