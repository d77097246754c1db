package ratelimit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// clock is a settable time source for the bucket tests.
type clock struct{ now time.Time }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestAllow_Buckets(t *testing.T) {
	type step struct {
		wait time.Duration
		host string
		want bool
	}
	tests := []struct {
		name  string
		rate  float64
		burst int
		steps []step
	}{
		{
			name: "burst then reject", rate: 1, burst: 3,
			steps: []step{{0, "10.0.0.1", true}, {0, "10.0.0.1", true}, {0, "10.0.0.1", true}, {0, "10.0.0.1", false}},
		},
		{
			name: "refill after wait", rate: 10, burst: 2,
			steps: []step{{0, "10.0.0.1", true}, {0, "10.0.0.1", true}, {0, "10.0.0.1", false}, {200 * time.Millisecond, "10.0.0.1", true}},
		},
		{
			name: "hosts are independent", rate: 1, burst: 1,
			steps: []step{{0, "10.0.0.1", true}, {0, "10.0.0.1", false}, {0, "10.0.0.2", true}},
		},
		{
			name: "refill capped at burst", rate: 100, burst: 2,
			steps: []step{{0, "h", true}, {0, "h", true}, {10 * time.Second, "h", true}, {0, "h", true}, {0, "h", false}},
		},
		{
			name: "partial refill", rate: 2, burst: 2,
			steps: []step{{0, "h", true}, {0, "h", true}, {250 * time.Millisecond, "h", false}, {250 * time.Millisecond, "h", true}},
		},
		{
			name: "zero rate never refills", rate: 0, burst: 1,
			steps: []step{{0, "h", true}, {time.Hour, "h", false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{now: time.Unix(1700000000, 0)}
			l := NewLimiter(tt.rate, tt.burst)
			l.nowFunc = func() time.Time { return c.now }

			for i, st := range tt.steps {
				c.advance(st.wait)
				if got := l.Allow(st.host); got != st.want {
					t.Errorf("step %d: Allow(%q) = %v, want %v", i, st.host, got, st.want)
				}
			}
		})
	}
}

func TestAllow_ConcurrentClients(t *testing.T) {
	l := NewLimiter(0, 50)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 120; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("127.0.0.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed %d concurrent requests, want exactly the burst of 50", allowed)
	}
}

func TestTokens_ReportsRefill(t *testing.T) {
	now := time.Now()
	l := NewLimiter(4.0, 4)
	l.nowFunc = func() time.Time { return now }

	if got := l.Tokens("k"); got != 4 {
		t.Errorf("initial tokens = %v, want 4", got)
	}
	for i := 0; i < 4; i++ {
		l.Allow("k")
	}
	now = now.Add(500 * time.Millisecond)
	if got := l.Tokens("k"); got != 2 {
		t.Errorf("tokens after 500ms = %v, want 2", got)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	expectedTools := []string{
		"sim_step",
		"sim_snapshot",
		"sim_summary",
		"sim_toggle",
		"sim_reset",
	}

	for _, tool := range expectedTools {
		if _, ok := limiters[tool]; !ok {
			t.Errorf("missing rate limiter for tool: %s", tool)
		}
	}
}

func TestToolRateLimits(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		name  string
		tool  string
		burst int
	}{
		{"step burst", "sim_step", 20},
		{"snapshot burst", "sim_snapshot", 30},
		{"summary burst", "sim_summary", 10},
		{"toggle burst", "sim_toggle", 5},
		{"reset burst", "sim_reset", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := limiters[tt.tool]
			if limiter.burst != tt.burst {
				t.Errorf("burst = %d, want %d", limiter.burst, tt.burst)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := NewToolLimiters()

	if err := CheckLimit(limiters, "sim_step"); err != nil {
		t.Errorf("unexpected error for sim_step: %v", err)
	}

	// Unknown tool should pass (no limiter = no limit)
	if err := CheckLimit(limiters, "unknown_tool"); err != nil {
		t.Errorf("unexpected error for unknown tool: %v", err)
	}

	// Exhaust sim_reset (burst=3)
	for i := 0; i < 3; i++ {
		if err := CheckLimit(limiters, "sim_reset"); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
	}
	err := CheckLimit(limiters, "sim_reset")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited after burst exhaustion, got %v", err)
	}
}

func TestCheckKey_SeparatesClients(t *testing.T) {
	limiters := ToolLimiters{"sim_toggle": NewLimiter(0, 1)}

	if err := CheckKey(limiters, "sim_toggle", "10.0.0.1"); err != nil {
		t.Fatalf("first client: %v", err)
	}
	if err := CheckKey(limiters, "sim_toggle", "10.0.0.1"); err == nil {
		t.Error("first client should be limited")
	}
	if err := CheckKey(limiters, "sim_toggle", "10.0.0.2"); err != nil {
		t.Errorf("second client should have its own bucket: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	limiters := ToolLimiters{"sim_reset": NewLimiter(0, 2)}
	calls := 0
	h := Middleware(limiters, "sim_reset", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("429 response should carry Retry-After")
		}
	}

	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i+1, codes[i], want[i])
		}
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
}
