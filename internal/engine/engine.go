package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	"github.com/KaramelBytes/tabula-cli/internal/chart"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/intent"
	"github.com/KaramelBytes/tabula-cli/internal/ratelimit"
	"github.com/KaramelBytes/tabula-cli/internal/resolver"
)

// Request is one question about one dataset.
type Request struct {
	Dataset *dataset.Dataset
	Query   string
	// History is prior dialogue, oldest first. It only reaches the external tier.
	History []ai.Message
}

// Observer receives tier transitions, for metrics.
type Observer interface {
	Resolved(tier Tier, rule string, elapsed time.Duration)
	External(outcome string)
	LimiterDenied(reason string)
}

// External call outcomes reported to Observer.
const (
	OutcomeOK           = "ok"
	OutcomeNoCredential = "no_credential"
	OutcomeRateLimited  = "rate_limited"
	OutcomeError        = "error"
	OutcomeMalformed    = "malformed"
	OutcomeTimeout      = "timeout"
)

// Options configures an Engine. Zero values pick sensible defaults; a nil
// Runtime means no credential is configured and the external tier is skipped.
type Options struct {
	Resolver resolver.Resolver
	Limiter  *ratelimit.Limiter
	Runtime  ai.Runtime
	Model    string

	MaxTokens   int
	Temperature float64
	// ExternalTimeout bounds one external call; expiry counts as a failure.
	ExternalTimeout time.Duration
	// SampleRows caps the raw rows embedded in the prompt.
	SampleRows int
	// PromptTokenBudget bounds the estimated prompt size.
	PromptTokenBudget int

	Cache    *Cache
	Logger   *slog.Logger
	Observer Observer
}

// Engine runs the fallback chain. It is safe for concurrent use: datasets
// are only read, and the limiter and cache carry their own locks.
type Engine struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// New builds an Engine.
func New(opts Options) *Engine {
	if opts.Resolver == nil {
		opts.Resolver = resolver.NewFuzzy()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	if opts.ExternalTimeout <= 0 {
		opts.ExternalTimeout = 30 * time.Second
	}
	if opts.SampleRows <= 0 {
		opts.SampleRows = 5
	}
	if opts.PromptTokenBudget <= 0 {
		opts.PromptTokenBudget = 6000
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{opts: opts, log: log, now: time.Now}
}

// Analyze resolves a question. It never fails: every branch ends in a Result
// with a non-empty Message.
func (e *Engine) Analyze(ctx context.Context, req Request) Result {
	start := e.now()
	res := e.analyze(ctx, req)
	if e.opts.Observer != nil {
		e.opts.Observer.Resolved(res.Tier, res.Rule, e.now().Sub(start))
	}
	return res
}

func (e *Engine) analyze(ctx context.Context, req Request) Result {
	if req.Dataset.Empty() {
		e.log.Debug("no dataset, serving sample chart", slog.String("error", ErrNoData.Error()))
		return SampleChart(req.Query)
	}
	if strings.TrimSpace(req.Query) == "" {
		return Statistical(req.Dataset, nil)
	}

	key := ""
	if e.opts.Cache != nil && len(req.History) == 0 {
		key = CacheKey(req.Dataset, req.Query)
		if res, ok := e.opts.Cache.Get(key); ok {
			e.log.Debug("result cache hit", slog.String("tier", string(res.Tier)))
			return res
		}
	}

	if res, ok := e.Cascade(req.Dataset, req.Query); ok {
		e.log.Debug("cascade rule matched", slog.String("rule", res.Rule))
		e.remember(key, res)
		return res
	}

	res, err := e.external(ctx, req)
	if err == nil {
		e.remember(key, res)
		return res
	}
	return Statistical(req.Dataset, err)
}

func (e *Engine) remember(key string, res Result) {
	if key != "" {
		e.opts.Cache.Set(key, res)
	}
}

// Cascade runs the rule list against a query. ok is false when no rule
// answers, which is the Fallback intent.
func (e *Engine) Cascade(ds *dataset.Dataset, query string) (Result, bool) {
	t := &turn{
		ds:       ds,
		query:    query,
		q:        intent.Lower(query),
		profile:  dataset.ProfileOf(ds),
		resolver: e.opts.Resolver,
		intent:   intent.Classify(query),
	}
	for _, r := range Rules {
		if res, ok := r.Apply(t); ok {
			res.Tier, res.Rule = TierRules, r.Name
			return res, true
		}
	}
	return Result{}, false
}

// RateLimitedError is returned by the external tier when the limiter denies
// the call. It matches ErrRateLimited with errors.Is.
type RateLimitedError struct {
	RetryAfter time.Duration
	Reason     string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s (%s): retry in %s", ErrRateLimited, e.Reason, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

func (e *Engine) external(ctx context.Context, req Request) (Result, error) {
	if e.opts.Runtime == nil {
		e.outcome(OutcomeNoCredential)
		return Result{}, ai.ErrNoCredential
	}
	if d := e.opts.Limiter.Allow(); !d.Allowed {
		e.log.Info("external call denied", slog.String("reason", d.Reason), slog.Duration("retry_after", d.RetryAfter))
		if e.opts.Observer != nil {
			e.opts.Observer.LimiterDenied(d.Reason)
		}
		e.outcome(OutcomeRateLimited)
		return Result{}, &RateLimitedError{RetryAfter: d.RetryAfter, Reason: d.Reason}
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.ExternalTimeout)
	defer cancel()

	msgs := ai.BuildMessages(ai.PromptInput{
		DataSummary: dataset.Summarize(req.Dataset, e.opts.SampleRows).Markdown(),
		History:     req.History,
		Query:       req.Query,
		TokenBudget: ai.PromptBudget(e.opts.Model, e.opts.PromptTokenBudget),
	})
	resp, err := e.opts.Runtime.Generate(ctx, ai.GenerateRequest{
		Model:       e.opts.Model,
		Messages:    msgs,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.outcome(OutcomeTimeout)
		} else {
			e.outcome(OutcomeError)
		}
		e.log.Warn("external call failed", slog.String("error", err.Error()))
		return Result{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	ans, err := ai.ParseCompletion(resp.Content())
	if err != nil {
		e.outcome(OutcomeMalformed)
		e.log.Warn("external call failed", slog.String("error", err.Error()))
		return Result{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	e.outcome(OutcomeOK)
	return fromAnswer(ans), nil
}

func (e *Engine) outcome(o string) {
	if e.opts.Observer != nil {
		e.opts.Observer.External(o)
	}
}

// fromAnswer keeps the model's chart only when its type is known and its rows
// have the keys that type needs.
func fromAnswer(a ai.Answer) Result {
	res := Result{Message: a.Message, Tier: TierLLM, Rule: "external"}
	t, ok := chart.ParseType(a.ChartType)
	data := chart.Data(a.ChartData)
	if ok && len(data) > 0 && data.Consistent(t) {
		res.ChartType, res.Title, res.ChartData = t, a.Title, data
	}
	if res.Message == "" {
		res.Message = "Here is the requested chart."
		if title := strings.TrimSpace(a.Title); title != "" {
			res.Message = "Here is " + title + "."
		}
	}
	return res
}
