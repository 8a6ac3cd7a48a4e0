package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/scribeapp/scribe/pkg/api"
)

func TestLimiter_SingleSlot(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(time.Second, 0, clk.Now)

	if !l.Allow("10.0.0.1") {
		t.Fatal("first request must be accepted")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("immediate retry must be rejected")
	}

	clk.Advance(999 * time.Millisecond)
	if l.Allow("10.0.0.1") {
		t.Fatal("request inside the interval must be rejected")
	}

	clk.Advance(time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Fatal("request a full interval after the last accepted one must pass")
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(time.Second, 0, clk.Now)

	if !l.Allow("10.0.0.1") {
		t.Fatal("first key rejected")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("second key must not be throttled by the first")
	}
}

func TestLimiter_RejectionDoesNotRefreshSlot(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(time.Second, 0, clk.Now)

	if !l.Allow("k") {
		t.Fatal("first request rejected")
	}

	// Hammer inside the interval. None of these may extend the window.
	for i := 0; i < 5; i++ {
		clk.Advance(150 * time.Millisecond)
		if l.Allow("k") {
			t.Fatalf("request %d inside the interval accepted", i)
		}
	}

	// 750ms elapsed so far; reaching 1s from the ACCEPTED request must
	// succeed even though the last rejection was only 250ms ago.
	clk.Advance(250 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("rejections extended the throttle window")
	}
}

func TestLimiter_ConcurrentSameKey(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(time.Second, 0, clk.Now)

	const workers = 50
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.Allow("shared")
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for ok := range results {
		if ok {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d concurrent requests, want exactly 1", accepted)
	}
}

func TestLimiter_EvictsOldestKey(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(time.Second, 3, clk.Now)

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("key-%d", i))
	}
	if got := l.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	// key-0 was evicted long ago, so it gets a fresh slot and is accepted
	// even though no interval has passed since its first request.
	if !l.Allow("key-0") {
		t.Fatal("evicted key must be treated as new")
	}
}

func TestLimiterMiddleware_Conflict(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(time.Second, 0, clk.Now)

	handler := l.Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/posts/all", nil)
		req.RemoteAddr = "192.168.1.10:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", rec.Code)
	}

	rec := do()
	if rec.Code != http.StatusConflict {
		t.Fatalf("throttled request: status = %d, want 409", rec.Code)
	}

	var resp api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != api.ErrorTypeRateLimited {
		t.Fatalf("error type = %+v, want %q", resp.Error, api.ErrorTypeRateLimited)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trust      bool
		want       string
	}{
		{"remote addr host only", "10.1.2.3:9999", "", false, "10.1.2.3"},
		{"forwarded header ignored", "10.1.2.3:9999", "203.0.113.7", false, "10.1.2.3"},
		{"forwarded header trusted", "10.1.2.3:9999", "203.0.113.7", true, "203.0.113.7"},
		{"first forwarded hop wins", "10.1.2.3:9999", "203.0.113.7, 10.0.0.1", true, "203.0.113.7"},
		{"unparseable remote addr", "not-host-port", "", false, "not-host-port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientKey(req, tt.trust); got != tt.want {
				t.Errorf("ClientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
