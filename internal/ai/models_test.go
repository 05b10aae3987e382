package ai

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogSortedAndComplete(t *testing.T) {
	cat := Catalog()
	assert.Len(t, cat, len(models))
	assert.True(t, sort.SliceIsSorted(cat, func(i, j int) bool { return cat[i].Name < cat[j].Name }))
	for _, p := range Providers() {
		_, ok := LookupModel(DefaultModel(p))
		assert.True(t, ok, "default model for %s should be in the catalog", p)
	}
}

func TestPromptBudgetCapsToHalfContext(t *testing.T) {
	assert.Equal(t, 4096, PromptBudget("llama3.1:8b-instruct", 6000))
	assert.Equal(t, 2000, PromptBudget("llama3.1:8b-instruct", 2000))
	assert.Equal(t, 2048, PromptBudget("phi3:mini-4k-instruct", 0))
	assert.Equal(t, 6000, PromptBudget("unknown/model", 6000))
}
