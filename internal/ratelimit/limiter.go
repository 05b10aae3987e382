// Package ratelimit guards outbound language-model calls with a sliding window
// and a minimum spacing between permitted requests.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds limiter parameters. Zero MaxRequests or Window disables the
// window check; zero MinDelay disables spacing.
type Config struct {
	MaxRequests int
	Window      time.Duration
	MinDelay    time.Duration
}

// DefaultConfig is 8 requests per minute, one second apart.
func DefaultConfig() Config {
	return Config{MaxRequests: 8, Window: time.Minute, MinDelay: time.Second}
}

// Denial reasons reported in Decision.Reason.
const (
	ReasonWindow   = "window"
	ReasonMinDelay = "min_delay"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// RetryAfter estimates when a request could next be permitted.
	RetryAfter time.Duration
	Reason     string
}

// Limiter is safe for concurrent use. Check and record happen under one lock,
// so two callers can never both observe the last free slot.
type Limiter struct {
	mu     sync.Mutex
	cfg    Config
	gate   *rate.Limiter
	stamps []time.Time
	last   time.Time
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New builds an isolated limiter.
func New(cfg Config, opts ...Option) *Limiter {
	every := rate.Inf
	if cfg.MinDelay > 0 {
		every = rate.Every(cfg.MinDelay)
	}
	l := &Limiter{cfg: cfg, gate: rate.NewLimiter(every, 1), now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow checks and, when permitted, records a request at the current time.
func (l *Limiter) Allow() Decision { return l.AllowAt(l.now()) }

// AllowAt is Allow with an explicit timestamp.
func (l *Limiter) AllowAt(t time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(t)
	if l.cfg.MaxRequests > 0 && l.cfg.Window > 0 && len(l.stamps) >= l.cfg.MaxRequests {
		return Decision{RetryAfter: l.stamps[0].Add(l.cfg.Window).Sub(t), Reason: ReasonWindow}
	}
	if !l.gate.AllowN(t, 1) {
		return Decision{RetryAfter: l.last.Add(l.cfg.MinDelay).Sub(t), Reason: ReasonMinDelay}
	}
	if l.cfg.Window > 0 {
		l.stamps = append(l.stamps, t)
	}
	l.last = t
	return Decision{Allowed: true}
}

// prune drops timestamps that left the trailing window.
func (l *Limiter) prune(t time.Time) {
	if l.cfg.Window <= 0 {
		return
	}
	cut := 0
	for cut < len(l.stamps) && !l.stamps[cut].After(t.Add(-l.cfg.Window)) {
		cut++
	}
	l.stamps = append(l.stamps[:0], l.stamps[cut:]...)
}

// Usage reports how many requests are inside the current window.
func (l *Limiter) Usage() (used, limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps), l.cfg.MaxRequests
}

// Config returns the limiter parameters.
func (l *Limiter) Config() Config { return l.cfg }
