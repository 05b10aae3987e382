package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"simple", "hello world", 2},
		{"multibyte", strings.Repeat("é", 8), 2},
		{"long", strings.Repeat("a", 4000), 1000},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	if n := utils.CountTokens(trunc); n != 300 {
		t.Fatalf("tokens=%d, want 300 for text without line breaks", n)
	}
	if utils.TruncateToTokenLimit(text, 0) != "" {
		t.Fatalf("expected empty result for zero limit")
	}
	if got := utils.TruncateToTokenLimit("short", 10); got != "short" {
		t.Fatalf("short text changed: %q", got)
	}
}

func TestTruncateKeepsWholeRows(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("| North | 130 | 2024-01 |\n")
	}
	trunc := utils.TruncateToTokenLimit(b.String(), 40)
	if !strings.HasSuffix(trunc, "|\n") {
		t.Fatalf("expected cut at a row boundary, got tail %q", trunc[len(trunc)-10:])
	}
	if utils.CountTokens(trunc) > 40 {
		t.Fatalf("truncation exceeds limit")
	}
}
