package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func TestBucket(t *testing.T) {
	start := time.Now()
	b := newBucket(3, 1, start)

	for i := 0; i < 3; i++ {
		assert.True(t, b.take(start), "burst request %d", i)
	}
	assert.False(t, b.take(start))
	assert.Equal(t, time.Second, b.untilNext())
	assert.Equal(t, 3*time.Second, b.untilFull())

	assert.True(t, b.take(start.Add(time.Second)))
	assert.False(t, b.take(start.Add(time.Second)))

	assert.True(t, b.take(start.Add(time.Hour)))
	assert.InDelta(t, 2, b.tokens, 0.001, "refill is capped at capacity")
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute})
	defer l.Stop()

	ok, info := l.Allow("1.2.3.4", "/api/jobs", "GET")
	assert.True(t, ok)
	assert.Equal(t, 2, info.Limit)
	assert.Equal(t, 1, info.Remaining)

	ok, _ = l.Allow("1.2.3.4", "/api/jobs", "GET")
	assert.True(t, ok)

	ok, info = l.Allow("1.2.3.4", "/api/jobs", "GET")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, info.RetryAfter)

	ok, _ = l.Allow("5.6.7.8", "/api/jobs", "GET")
	assert.True(t, ok, "clients are isolated")

	clock.advance(30 * time.Second)
	ok, _ = l.Allow("1.2.3.4", "/api/jobs", "GET")
	assert.True(t, ok)
}

func TestLimiter_PrefixRuleSharesBucket(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:      true,
		DefaultLimit: 100, DefaultWindow: time.Minute,
		Endpoints: []EndpointConfig{{Path: "/api/jobs/", Method: "PATCH", Limit: 2, Window: time.Minute}},
	})
	defer l.Stop()

	for i := 1; i <= 2; i++ {
		ok, _ := l.Allow("c", fmt.Sprintf("/api/jobs/%d", i), "PATCH")
		assert.True(t, ok)
	}
	ok, _ := l.Allow("c", "/api/jobs/3", "PATCH")
	assert.False(t, ok, "all job ids share the PATCH rule")

	ok, _ = l.Allow("c", "/api/jobs/3", "GET")
	assert.True(t, ok, "other methods use the default rule")
}

func TestLimiter_Lists(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour,
		Allowlist: map[string]bool{"10.0.0.1": true},
		Blocklist: map[string]bool{"10.0.0.2": true},
	})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("10.0.0.1", "/api/clip", "POST")
		assert.True(t, ok)
	}
	ok, _ := l.Allow("10.0.0.2", "/health", "GET")
	assert.False(t, ok)
}

func TestLimiter_DisabledAndUnlimited(t *testing.T) {
	off, _ := newTestLimiter(&Config{Enabled: false})
	defer off.Stop()
	ok, info := off.Allow("c", "/api/clip", "POST")
	assert.True(t, ok)
	assert.Zero(t, info.Limit)

	l, _ := newTestLimiter(Defaults())
	defer l.Stop()
	for i := 0; i < 1000; i++ {
		ok, _ := l.Allow("c", "/health", "GET")
		require.True(t, ok)
	}
}

func TestLimiter_StrictAuthRules(t *testing.T) {
	l, _ := newTestLimiter(Defaults())
	defer l.Stop()

	allowed := 0
	for i := 0; i < 10; i++ {
		if ok, _ := l.Allow("c", "/api/auth/register", "POST"); ok {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed, "register burst")
}

func TestLimiter_EvictIdle(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute})
	defer l.Stop()

	l.Allow("old", "/x", "GET")
	clock.advance(2 * time.Hour)
	l.Allow("new", "/x", "GET")

	assert.Equal(t, 1, l.evictIdle(clock.now().Add(-time.Hour)))
	assert.Len(t, l.buckets, 1)
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/api/jobs", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestStopIsIdempotent(t *testing.T) {
	l := NewLimiter(Defaults())
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
	}{
		{"/api/clip", "POST", "/api/clip"},
		{"/api/jobs/42", "PATCH", "/api/jobs/"},
		{"/api/resumes", "POST", "/api/resumes"},
		{"/api/resumes/abc/skills/Go", "PATCH", "/api/resumes/"},
		{"/api/profile/manual", "POST", "/api/profile/"},
		{"/api/jobs", "GET", ""},
		{"/health", "GET", "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantPath == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}

	assert.True(t, MatchEndpoint("/health", "GET", configs).Unlimited())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "10s")
	t.Setenv("RATE_LIMIT_ALLOWLIST", "127.0.0.1, ::1")
	t.Setenv("RATE_LIMIT_BLOCKLIST", "")

	cfg := LoadConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 10*time.Second, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"127.0.0.1": true, "::1": true}, cfg.Allowlist)
	assert.Empty(t, cfg.Blocklist)
	assert.NotEmpty(t, cfg.Endpoints)

	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "lots")
	assert.Equal(t, 600, LoadConfig().DefaultLimit)
}
