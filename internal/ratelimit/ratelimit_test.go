package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/resilience"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewMemory(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "ip:10.0.0.1"); !ok {
			t.Fatalf("request %d rejected", i)
		}
	}
	if ok, _ := l.Allow(ctx, "ip:10.0.0.1"); ok {
		t.Fatal("third request allowed, want rejected")
	}
	if ok, _ := l.Allow(ctx, "ip:10.0.0.2"); !ok {
		t.Fatal("other key rejected")
	}

	now = now.Add(30 * time.Second)
	if ok, _ := l.Allow(ctx, "ip:10.0.0.1"); !ok {
		t.Fatal("request after refill rejected")
	}

	now = now.Add(10 * time.Minute)
	l.evictIdle()
	if len(l.entries) != 0 {
		t.Errorf("entries after eviction = %d, want 0", len(l.entries))
	}
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
	keys   []string
}

func (f *fakeCounter) IncrWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	f.keys = append(f.keys, key)
	return f.counts[key], nil
}

func TestRedisLimiter(t *testing.T) {
	counter := &fakeCounter{}
	breaker := resilience.NewCircuitBreaker("redis-test", resilience.CircuitBreakerConfig{})
	l := NewRedis(counter, breaker, 2, time.Minute, time.Second)
	now := time.Unix(1_700_000_040, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, err := l.Allow(ctx, "client:a"); !ok || err != nil {
			t.Fatalf("request %d: allowed=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "client:a"); ok {
		t.Fatal("third request in window allowed")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "client:a"); !ok {
		t.Fatal("first request of next window rejected")
	}
	if counter.keys[0] == counter.keys[3] {
		t.Errorf("windows share key %q", counter.keys[0])
	}
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	counter := &fakeCounter{err: errors.New("connection refused")}
	breaker := resilience.NewCircuitBreaker("redis-test", resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	l := NewRedis(counter, breaker, 1, time.Minute, time.Second)

	ok, err := l.Allow(context.Background(), "client:a")
	if !ok || err == nil {
		t.Fatalf("allowed=%v err=%v, want allowed with error", ok, err)
	}
	ok, err = l.Allow(context.Background(), "client:a")
	if !ok || !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("allowed=%v err=%v, want allowed with ErrCircuitOpen", ok, err)
	}
}

func TestMiddleware(t *testing.T) {
	l := NewMemory(1, time.Minute)
	limited := 0
	h := Middleware(l, time.Minute, func() { limited++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("/api/v1/terms/prefix"); rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := do("/api/v1/terms/prefix")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	if rec := do("/health/live"); rec.Code != http.StatusNoContent {
		t.Errorf("health status = %d, want exempt", rec.Code)
	}
	if limited != 1 {
		t.Errorf("onLimited calls = %d, want 1", limited)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.3:1234"
	if got := ClientKey(req); got != "ip:198.51.100.3" {
		t.Errorf("ClientKey = %q", got)
	}
	req.Header.Set("X-Client-ID", "search-ui")
	if got := ClientKey(req); got != "client:search-ui" {
		t.Errorf("ClientKey = %q", got)
	}
}
