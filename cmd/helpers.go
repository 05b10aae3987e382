package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/tabula-cli/internal/config"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/engine"
	"github.com/KaramelBytes/tabula-cli/internal/ratelimit"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
	"github.com/spf13/cobra"
)

type runtimeOptions struct {
	ProviderFlag string
	Model        string
	OllamaHost   string
}

func (o *runtimeOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ProviderFlag, "provider", "", "language model provider: openrouter|openai|ollama (default from config)")
	cmd.Flags().StringVar(&o.Model, "model", "", "language model for open-ended questions (default from config)")
	cmd.Flags().StringVar(&o.OllamaHost, "ollama-host", "", "override Ollama host (e.g., http://127.0.0.1:11434)")
}

// buildRuntime returns ai.ErrNoCredential when a hosted provider has no key.
func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	httpTimeout := 60 * time.Second
	retryMax := 1
	baseDelay := 500 * time.Millisecond
	maxDelay := 4 * time.Second
	if cfg.HTTPTimeoutSec > 0 {
		httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	}
	if cfg.RetryMaxAttempts > 0 {
		retryMax = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelayMs > 0 {
		baseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	}
	if cfg.RetryMaxDelayMs > 0 {
		maxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
	}

	providerName := strings.ToLower(strings.TrimSpace(opts.ProviderFlag))
	if providerName == "" {
		providerName = strings.ToLower(cfg.Provider)
	}
	switch providerName {
	case "":
		providerName = ai.ProviderOpenRouter
	case "local":
		providerName = ai.ProviderOllama
	}

	rc := ai.RuntimeConfig{
		HTTPTimeout: httpTimeout,
		RetryMax:    retryMax,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
	}
	if rc.APIKey == "" {
		switch providerName {
		case ai.ProviderOpenRouter:
			rc.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case ai.ProviderOpenAI:
			rc.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if providerName == ai.ProviderOllama {
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" {
			host = cfg.OllamaHost
		}
		if host == "" {
			host = ai.DefaultOllamaHost
		}
		rc.Host = host
	}

	rt, err := ai.NewRuntime(providerName, rc)
	return rt, providerName, err
}

// buildEngine wires the fallback chain from configuration. The returned
// cleanup releases the result cache.
func buildEngine(cfg *cfgpkg.Global, opts runtimeOptions, obs engine.Observer) (*engine.Engine, func(), error) {
	rt, provider, err := buildRuntime(cfg, opts)
	switch {
	case errors.Is(err, ai.ErrNoCredential):
		logger.Debug("no API key configured, open-ended questions use the local summary", "provider", provider)
		rt = nil
	case err != nil:
		return nil, nil, err
	}

	model := opts.Model
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		model = ai.DefaultModel(provider)
	}

	rl := cfg.RateLimit()
	if rl.MaxRequests <= 0 || rl.Window <= 0 {
		rl = ratelimit.DefaultConfig()
	}

	cleanup := func() {}
	var cache *engine.Cache
	if cfg.CacheMaxEntries > 0 && cfg.CacheTTLSec > 0 {
		cache, err = engine.NewCache(cfg.CacheMaxEntries, time.Duration(cfg.CacheTTLSec)*time.Second)
		if err != nil {
			return nil, nil, err
		}
		cleanup = cache.Close
	}

	eng := engine.New(engine.Options{
		Limiter:           ratelimit.New(rl),
		Runtime:           rt,
		Model:             model,
		MaxTokens:         cfg.MaxTokens,
		Temperature:       cfg.Temperature,
		ExternalTimeout:   time.Duration(cfg.ExternalTimeoutSec) * time.Second,
		SampleRows:        cfg.SampleRows,
		PromptTokenBudget: cfg.PromptTokenBudget,
		Cache:             cache,
		Logger:            logger,
		Observer:          obs,
	})
	return eng, cleanup, nil
}

// datasetFlags are the loader knobs shared by every command that reads a table.
type datasetFlags struct {
	Delimiter   string
	SheetName   string
	SheetIndex  int
	MaxRows     int
	FillMissing bool
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	cmd.Flags().StringVar(&f.SheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.SheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().IntVar(&f.MaxRows, "max-rows", 100000, "maximum rows to read (0 = unlimited)")
	cmd.Flags().BoolVar(&f.FillMissing, "fill-missing", false, "treat missing numeric cells as 0")
}

func (f *datasetFlags) load(path string) (*dataset.Dataset, error) {
	opt := dataset.LoadOptions{
		MaxRows:    f.MaxRows,
		SheetName:  f.SheetName,
		SheetIndex: f.SheetIndex,
	}
	switch f.Delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return nil, fmt.Errorf("unsupported --delimiter: %s", f.Delimiter)
	}
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if f.FillMissing {
		ds = ds.Clean()
	}
	return ds, nil
}

// printResult renders a result as text: the message, then the chart rows.
func printResult(w io.Writer, res engine.Result) {
	fmt.Fprintln(w, res.Message)
	if !res.HasChart() {
		return
	}
	fmt.Fprintf(w, "\n[%s chart] %s\n", res.ChartType, res.Title)
	for _, row := range res.ChartData {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
		}
		fmt.Fprintln(w, "  "+strings.Join(parts, " "))
	}
}

// writeJSON prints v as indented JSON, and also saves it when path is set.
func writeJSON(w io.Writer, v any, path string) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	if path != "" {
		if err := utils.SafeWriteFile(path, b); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Wrote %s\n", path)
		return nil
	}
	fmt.Fprintln(w, string(b))
	return nil
}
