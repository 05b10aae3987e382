// Package intent classifies the shape of a free-text question.
//
// Shape matchers are kept as an ordered list. The first matcher whose pattern
// fits the lower-cased query wins, even when a later one would also match.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/chart"
)

// Kind tags the Intent variant.
type Kind int

const (
	Fallback Kind = iota
	TopN
	SumFor
	CountWhere
	AverageFor
	ListUnique
	ChartRequest
)

func (k Kind) String() string {
	switch k {
	case TopN:
		return "top_n"
	case SumFor:
		return "sum_for"
	case CountWhere:
		return "count_where"
	case AverageFor:
		return "average_for"
	case ListUnique:
		return "list_unique"
	case ChartRequest:
		return "chart_request"
	}
	return "fallback"
}

// Intent is the classified shape of a query. Which fields are set depends on Kind:
//
//	TopN:         N, GroupPhrase, ValuePhrase (may be empty), Average
//	SumFor:       ValuePhrase, FilterValue
//	CountWhere:   SubjectPhrase, FilterValue
//	AverageFor:   ValuePhrase, FilterValue
//	ListUnique:   ColumnPhrase
//	ChartRequest: ChartType (may be empty)
type Intent struct {
	Kind          Kind
	N             int
	GroupPhrase   string
	ValuePhrase   string
	SubjectPhrase string
	ColumnPhrase  string
	FilterValue   string
	// Average asks TopN to rank by mean instead of sum.
	Average   bool
	ChartType chart.Type
}

// Matcher recognizes one query shape.
type Matcher struct {
	Name  string
	Match func(q, original string) (Intent, bool)
}

const tail = `\s*[?.!]*\s*$`

var (
	topNBy   = regexp.MustCompile(`\btop\s*(\d+)\s+(.+?)\s+(?:by|for|on|in)\s+(?:(total|sum|average|avg)\s+(?:of\s+)?)?(.+?)` + tail)
	topNOnly = regexp.MustCompile(`\btop\s*(\d+)\s+(.+?)` + tail)
	sumFor   = regexp.MustCompile(`\b(?:total|sum)\s+(?:of\s+)?(.+?)\s+(?:for|in|of|at|from)\s+(.+?)` + tail)
	countIn  = regexp.MustCompile(`\bhow\s+many\s+(.+?)\s+(?:in|at|for|by|from|with)\s+(.+?)` + tail)
	avgFor   = regexp.MustCompile(`\b(?:average|avg|mean)\s+(?:of\s+)?(.+?)\s+(?:for|in|by|of|at)\s+(.+?)` + tail)
	listAll  = regexp.MustCompile(`\b(?:list\s+(?:all|every)\s+(?:of\s+)?(?:the\s+)?|what\s+are\s+(?:all\s+)?(?:the\s+)?)(?:unique\s+|distinct\s+|different\s+)?(.+?)` + tail)
)

// Matchers is the ordered list of shape rules for top-N, sum-for, count,
// average and list-unique questions.
var Matchers = []Matcher{
	{Name: "top_n", Match: matchTopN},
	{Name: "sum_for", Match: matchSumFor},
	{Name: "count_where", Match: matchCount},
	{Name: "average_for", Match: matchAverage},
	{Name: "list_unique", Match: matchList},
}

var displaySignal = regexp.MustCompile(`\b(show|plot|chart|graph|visuali[sz]e|display|draw|by|per|breakdown|across|distribution|histogram|trends?|over time|compare|comparison|composition|correlation|relationship|outliers?)\b`)

// WantsChart reports whether the query asks for something drawable.
func WantsChart(q string) bool {
	if displaySignal.MatchString(q) {
		return true
	}
	_, ok := chart.DetectKeyword(q)
	return ok
}

// Classify runs the shape matchers in order. When none matches it returns a
// ChartRequest for drawable queries and Fallback otherwise.
func Classify(query string) Intent {
	q := Lower(query)
	for _, m := range Matchers {
		if in, ok := m.Match(q, query); ok {
			return in
		}
	}
	if WantsChart(q) {
		t, _ := chart.DetectKeyword(q)
		return Intent{Kind: ChartRequest, ChartType: t}
	}
	return Intent{Kind: Fallback}
}

// Lower trims and lower-cases a query.
func Lower(query string) string { return strings.ToLower(strings.TrimSpace(query)) }

// submatch returns group i of a match found in q, taken from the original
// spelling when lower-casing kept byte offsets intact.
func submatch(re *regexp.Regexp, q, original string) []string {
	idx := re.FindStringSubmatchIndex(q)
	if idx == nil {
		return nil
	}
	src := q
	if orig := strings.TrimSpace(original); len(orig) == len(q) {
		src = orig
	}
	out := make([]string, len(idx)/2)
	for i := range out {
		if idx[2*i] >= 0 {
			out[i] = strings.TrimSpace(src[idx[2*i]:idx[2*i+1]])
		}
	}
	return out
}

func matchTopN(q, original string) (Intent, bool) {
	if m := submatch(topNBy, q, original); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			agg := strings.ToLower(m[3])
			return Intent{Kind: TopN, N: n, GroupPhrase: m[2], ValuePhrase: m[4], Average: agg == "average" || agg == "avg"}, true
		}
	}
	if m := submatch(topNOnly, q, original); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return Intent{Kind: TopN, N: n, GroupPhrase: m[2]}, true
		}
	}
	return Intent{}, false
}

func matchSumFor(q, original string) (Intent, bool) {
	m := submatch(sumFor, q, original)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Kind: SumFor, ValuePhrase: m[1], FilterValue: m[2]}, true
}

func matchCount(q, original string) (Intent, bool) {
	m := submatch(countIn, q, original)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Kind: CountWhere, SubjectPhrase: m[1], FilterValue: m[2]}, true
}

func matchAverage(q, original string) (Intent, bool) {
	m := submatch(avgFor, q, original)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Kind: AverageFor, ValuePhrase: m[1], FilterValue: m[2]}, true
}

func matchList(q, original string) (Intent, bool) {
	m := submatch(listAll, q, original)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Kind: ListUnique, ColumnPhrase: m[1]}, true
}

var aggregationWords = regexp.MustCompile(`\b(top|total|sum|how many|count|average|avg|mean|list|what are)\b`)

// HasAggregation reports whether the query carries an aggregation keyword.
// The value-membership shortcut stands down for such queries.
func HasAggregation(q string) bool { return aggregationWords.MatchString(q) }
