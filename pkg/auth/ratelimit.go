package auth

import (
	"container/list"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/debug"
	"github.com/scribeapp/scribe/pkg/observability"
)

// Limiter is a sliding single-slot throttle keyed by client address. It
// remembers only the last accepted timestamp per key: a request arriving
// within the interval of that timestamp is rejected and does not refresh
// the slot, so a client hammering the API stays rejected until a full
// interval has passed since its last accepted request.
//
// Entries are kept in an LRU list bounded by maxKeys, so the map cannot
// grow without limit across the server's lifetime.
type Limiter struct {
	interval time.Duration
	maxKeys  int
	clock    func() time.Time

	mu   sync.Mutex
	slot map[string]*list.Element
	lru  *list.List // front = most recently accepted
}

// slotRecord is an LRU entry: one client key and its last accepted time.
type slotRecord struct {
	key            string
	lastAcceptedAt time.Time
}

// NewLimiter creates a limiter allowing at most one request per interval
// per client key, tracking at most maxKeys clients. A nil clock defaults
// to wall-clock time.
func NewLimiter(interval time.Duration, maxKeys int, clock func() time.Time) *Limiter {
	if clock == nil {
		clock = time.Now
	}
	if maxKeys <= 0 {
		maxKeys = 100000
	}
	return &Limiter{
		interval: interval,
		maxKeys:  maxKeys,
		clock:    clock,
		slot:     make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Allow reports whether a request from the given client key is accepted.
// Check and update happen under one lock, so two concurrent requests from
// the same key cannot both pass within one interval.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()

	if elem, ok := l.slot[key]; ok {
		rec := elem.Value.(*slotRecord)
		if now.Sub(rec.lastAcceptedAt) < l.interval {
			// Rejected requests do not refresh the slot.
			return false
		}
		rec.lastAcceptedAt = now
		l.lru.MoveToFront(elem)
		return true
	}

	if l.lru.Len() >= l.maxKeys {
		oldest := l.lru.Back()
		l.lru.Remove(oldest)
		delete(l.slot, oldest.Value.(*slotRecord).key)
	}

	l.slot[key] = l.lru.PushFront(&slotRecord{key: key, lastAcceptedAt: now})
	return true
}

// Len returns the number of tracked client keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lru.Len()
}

// Middleware applies the limiter ahead of routing. Every request,
// including unauthenticated and health-check traffic, passes through it.
// Rejections are terminal 409 responses.
func (l *Limiter) Middleware(trustForwardedFor bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r, trustForwardedFor)
			if !l.Allow(key) {
				observability.RateLimitRejectedTotal.Inc()
				debug.Log("ratelimit", "request throttled",
					"key", key,
					"path", r.URL.Path,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(api.ErrorResponse{
					Error: api.NewRateLimitedError(ErrRateLimited.Error()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey derives the throttle key from the caller's network address.
// With trustForwardedFor set, the first X-Forwarded-For hop wins; the
// header is ignored otherwise since clients can forge it.
func ClientKey(r *http.Request, trustForwardedFor bool) string {
	if trustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
