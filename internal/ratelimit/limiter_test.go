package ratelimit

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTenCallsAgainstThreePerMinute(t *testing.T) {
	l := New(Config{MaxRequests: 3, Window: time.Minute, MinDelay: 50 * time.Millisecond})
	allowed := 0
	for i := 0; i < 10; i++ {
		if l.AllowAt(epoch.Add(time.Duration(i) * 100 * time.Millisecond)).Allowed {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}

func TestWindowDenialCarriesRetryHint(t *testing.T) {
	l := New(Config{MaxRequests: 2, Window: 10 * time.Second})
	require.True(t, l.AllowAt(epoch).Allowed)
	require.True(t, l.AllowAt(epoch.Add(time.Second)).Allowed)

	d := l.AllowAt(epoch.Add(2 * time.Second))
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonWindow, d.Reason)
	assert.Equal(t, 8*time.Second, d.RetryAfter)

	assert.True(t, l.AllowAt(epoch.Add(10*time.Second+time.Millisecond)).Allowed, "oldest stamp left the window")
}

func TestMinDelay(t *testing.T) {
	l := New(Config{MaxRequests: 100, Window: time.Minute, MinDelay: time.Second})
	require.True(t, l.AllowAt(epoch).Allowed)

	d := l.AllowAt(epoch.Add(400 * time.Millisecond))
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonMinDelay, d.Reason)
	assert.Equal(t, 600*time.Millisecond, d.RetryAfter)

	assert.True(t, l.AllowAt(epoch.Add(time.Second)).Allowed)
}

func TestDeniedRequestsAreNotRecorded(t *testing.T) {
	l := New(Config{MaxRequests: 1, Window: time.Minute})
	require.True(t, l.AllowAt(epoch).Allowed)
	for i := 1; i < 5; i++ {
		assert.False(t, l.AllowAt(epoch.Add(time.Duration(i)*time.Second)).Allowed)
	}
	assert.True(t, l.AllowAt(epoch.Add(time.Minute+time.Millisecond)).Allowed)
}

// Random arrival times: permitted calls never exceed the window budget and
// are never closer than the minimum delay.
func TestLimiterProperties(t *testing.T) {
	cfg := Config{MaxRequests: 4, Window: 5 * time.Second, MinDelay: 300 * time.Millisecond}
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		l := New(cfg)
		now := epoch
		var permitted []time.Time
		for i := 0; i < 200; i++ {
			now = now.Add(time.Duration(rng.Intn(700)) * time.Millisecond)
			if l.AllowAt(now).Allowed {
				permitted = append(permitted, now)
			}
		}
		for i := range permitted {
			if i > 0 {
				assert.GreaterOrEqual(t, permitted[i].Sub(permitted[i-1]), cfg.MinDelay)
			}
			inWindow := 0
			for j := i; j >= 0 && permitted[i].Sub(permitted[j]) < cfg.Window; j-- {
				inWindow++
			}
			assert.LessOrEqual(t, inWindow, cfg.MaxRequests)
		}
	}
}

func TestConcurrentCallersRespectLimit(t *testing.T) {
	fixed := epoch
	l := New(Config{MaxRequests: 5, Window: time.Minute}, WithClock(func() time.Time { return fixed }))
	var ok int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow().Allowed {
				atomic.AddInt64(&ok, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5), ok)
	used, limit := l.Usage()
	assert.Equal(t, 5, used)
	assert.Equal(t, 5, limit)
}
