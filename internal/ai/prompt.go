package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

// Answer is the JSON object the model is asked to return.
type Answer struct {
	Message   string           `json:"message" jsonschema:"description=Short narrative answer to the question"`
	ChartType string           `json:"chartType,omitempty" jsonschema:"enum=bar,enum=line,enum=pie,enum=scatter,enum=area,enum=geo,enum=heatmap"`
	Title     string           `json:"title,omitempty"`
	ChartData []map[string]any `json:"chartData,omitempty" jsonschema:"description=Rows with name/value keys, or x/y keys for scatter"`
}

var (
	answerSchemaOnce sync.Once
	answerSchema     string
)

// AnswerSchema renders the JSON schema of Answer for inclusion in prompts.
func AnswerSchema() string {
	answerSchemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		b, err := json.MarshalIndent(reflector.Reflect(&Answer{}), "", "  ")
		if err != nil {
			panic(fmt.Sprintf("answer schema: %v", err))
		}
		answerSchema = string(b)
	})
	return answerSchema
}

const systemInstructions = `You are a data analyst answering questions about one uploaded table.
Use only the data summary below. Reply with a single JSON object that matches this schema:
%s

Rules:
- "message" is always required and should be two or three sentences.
- Include "chartType", "title" and "chartData" only when a chart helps.
- Bar, line, pie, area, geo and heatmap rows use "name" and "value"; scatter rows use "x" and "y".
- Do not invent columns that are not in the schema section.`

// PromptInput carries everything needed to build the message list.
type PromptInput struct {
	// DataSummary is the bounded dataset description.
	DataSummary string
	History     []Message
	Query       string
	// TokenBudget bounds the estimated prompt size; 0 means unbounded.
	TokenBudget int
}

// BuildMessages assembles system prompt, prior dialogue and the query. When
// a budget is set, the oldest turns are dropped first and the data summary is
// truncated last.
func BuildMessages(in PromptInput) []Message {
	system := fmt.Sprintf(systemInstructions, AnswerSchema())
	query := strings.TrimSpace(in.Query)
	summary := in.DataSummary

	if in.TokenBudget > 0 {
		fixed := utils.CountTokens(system) + utils.CountTokens(query)
		left := in.TokenBudget - fixed
		if n := utils.CountTokens(summary); n > left {
			summary = utils.TruncateToTokenLimit(summary, max(left, 0))
		}
		left -= utils.CountTokens(summary)
		in.History = fitHistory(in.History, left)
	}

	msgs := make([]Message, 0, len(in.History)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: system + "\n\n" + summary})
	msgs = append(msgs, in.History...)
	msgs = append(msgs, Message{Role: RoleUser, Content: query})
	return msgs
}

// fitHistory keeps the most recent turns whose estimated size fits budget.
func fitHistory(history []Message, budget int) []Message {
	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		n := utils.CountTokens(history[i].Content)
		if used+n > budget {
			break
		}
		used += n
		start = i
	}
	return history[start:]
}

var (
	// ErrEmptyCompletion means the model returned no text.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrMalformedCompletion means the completion held unparseable JSON.
	ErrMalformedCompletion = errors.New("malformed completion")
)

// ParseCompletion reads a model reply. A JSON object (optionally fenced in a
// markdown code block) is decoded into Answer; plain prose becomes the message.
func ParseCompletion(text string) (Answer, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Answer{}, ErrEmptyCompletion
	}
	s = stripFence(s)
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 {
		return Answer{Message: s}, nil
	}
	if end < start {
		return Answer{}, fmt.Errorf("%w: unterminated object", ErrMalformedCompletion)
	}
	var a Answer
	if err := json.Unmarshal([]byte(s[start:end+1]), &a); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}
	a.Message = strings.TrimSpace(a.Message)
	if a.Message == "" && len(a.ChartData) == 0 {
		return Answer{}, fmt.Errorf("%w: no message or chart data", ErrMalformedCompletion)
	}
	return a, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
