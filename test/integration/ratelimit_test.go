package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/scribeapp/scribe/pkg/api"
)

// TestRateLimitBurst fires a burst of requests from one client address.
// Exactly one request per interval may pass; the rest are 409s.
func TestRateLimitBurst(t *testing.T) {
	client := "203.0.113.99"

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		resp := doRequest(t, http.MethodGet, "/posts/all", nil, "", client)
		codes[resp.StatusCode]++
		if resp.StatusCode == http.StatusConflict {
			var errResp api.ErrorResponse
			decodeInto(t, resp, &errResp)
			if errResp.Error.Type != api.ErrorTypeRateLimited {
				t.Fatalf("rejection error type = %q, want rate_limited", errResp.Error.Type)
			}
		} else {
			resp.Body.Close()
		}
	}

	if codes[http.StatusOK] != 1 || codes[http.StatusConflict] != 4 {
		t.Fatalf("burst codes = %v, want one 200 and four 409", codes)
	}

	// After a full interval the same client is admitted again.
	time.Sleep(1100 * time.Millisecond)
	resp := doRequest(t, http.MethodGet, "/posts/all", nil, "", client)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("after interval: status = %d, want 200", resp.StatusCode)
	}
}

// TestRateLimitAppliesBeforeAuth shows the throttle sits ahead of the
// authentication gate: an unauthenticated burst gets 409, not 401.
func TestRateLimitAppliesBeforeAuth(t *testing.T) {
	client := "203.0.113.100"

	resp := doRequest(t, http.MethodGet, "/users", nil, "", client)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("first request: status = %d, want 401", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, "/users", nil, "", client)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second request inside interval: status = %d, want 409", resp.StatusCode)
	}
}
