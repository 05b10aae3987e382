// Package engine resolves a free-text question about a dataset into a
// narrative and chart-ready data.
//
// Resolution runs as a fallback chain: the ordered rule cascade first, then
// the external language model, then a local statistical summary. Every path
// ends in a populated Result; Analyze never returns an error.
package engine

import (
	"errors"

	"github.com/KaramelBytes/tabula-cli/internal/chart"
)

// Tier names the stage of the fallback chain that produced a Result.
type Tier string

const (
	TierSample      Tier = "sample"
	TierRules       Tier = "rules"
	TierLLM         Tier = "llm"
	TierStatistical Tier = "statistical"
)

// Result is the value handed to the rendering collaborator. Tier and Rule are
// diagnostics and are not part of the JSON contract.
type Result struct {
	Message   string     `json:"message"`
	ChartType chart.Type `json:"chartType,omitempty"`
	Title     string     `json:"title,omitempty"`
	ChartData chart.Data `json:"chartData,omitempty"`

	Tier Tier   `json:"-"`
	Rule string `json:"-"`
}

// HasChart reports whether the result carries drawable data.
func (r Result) HasChart() bool { return r.ChartType != "" && len(r.ChartData) > 0 }

// Failure taxonomy. These never reach the caller of Analyze; they are logged
// and counted, and select which message the fallback carries.
var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrRateLimited     = errors.New("external call rate limited")
	ErrExternalService = errors.New("external service error")
	ErrNoData          = errors.New("no data uploaded")
)
