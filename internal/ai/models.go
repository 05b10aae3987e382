package ai

import "sort"

// ModelInfo describes a model well enough to size the prompt.
type ModelInfo struct {
	Name          string
	ContextTokens int // approximate context window
}

// Default models per provider. Free or local models keep the external tier cheap.
var defaultModels = map[string]string{
	ProviderOpenRouter: "deepseek/deepseek-r1:free",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOllama:     "llama3.1:8b-instruct",
}

var models = map[string]ModelInfo{
	"deepseek/deepseek-r1:free":   {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
	"openai/gpt-4o-mini":          {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	"anthropic/claude-3.5-sonnet": {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000},
	"google/gemini-1.5-flash":     {Name: "google/gemini-1.5-flash", ContextTokens: 1000000},
	"gpt-4o-mini":                 {Name: "gpt-4o-mini", ContextTokens: 128000},
	"gpt-4o":                      {Name: "gpt-4o", ContextTokens: 128000},
	"llama3:latest":               {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b-instruct":        {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
	"mistral:7b-instruct":         {Name: "mistral:7b-instruct", ContextTokens: 8192},
	"phi3:mini-4k-instruct":       {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string { return defaultModels[provider] }

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// PromptBudget caps a configured token budget to half the model's context
// window, leaving room for the completion. Unknown models keep the budget.
func PromptBudget(model string, budget int) int {
	mi, ok := LookupModel(model)
	if !ok || mi.ContextTokens <= 0 {
		return budget
	}
	if half := mi.ContextTokens / 2; budget <= 0 || budget > half {
		return half
	}
	return budget
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
