package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/debug"
	"github.com/scribeapp/scribe/pkg/observability"
)

// TokenCarrier selects where the gate reads the access token from.
// The carrier is a fixed deployment choice, configured once at startup.
type TokenCarrier string

const (
	// CarrierCookie reads the token from the httpOnly "token" cookie.
	CarrierCookie TokenCarrier = "cookie"

	// CarrierHeader reads the token from "Authorization: Bearer <token>".
	CarrierHeader TokenCarrier = "header"
)

// TokenCookieName is the cookie holding the access token.
const TokenCookieName = "token"

// Gate resolves a caller identity from the request's token carrier, or
// rejects the request with 401 before any handler body executes. It holds
// no per-request state and no session cache.
type Gate struct {
	tokens  *TokenService
	carrier TokenCarrier
}

// NewGate creates an authentication gate reading tokens from the given carrier.
func NewGate(tokens *TokenService, carrier TokenCarrier) *Gate {
	if carrier == "" {
		carrier = CarrierCookie
	}
	return &Gate{tokens: tokens, carrier: carrier}
}

// Middleware wraps a handler with the authentication precondition.
//
// Bypass entries are matched first against "METHOD /path" and then against
// the bare path, so a route like "POST /users" can be public while
// "GET /users" stays protected.
func (g *Gate) Middleware(bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.Method+" "+r.URL.Path] || bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, ok := g.extractToken(r)
			if !ok {
				rejectUnauthorized(w, r, "no credentials presented")
				return
			}

			identity, err := g.tokens.Verify(tokenStr)
			if err != nil {
				rejectUnauthorized(w, r, err.Error())
				return
			}

			debug.Log("auth", "authentication succeeded",
				"subject", identity.Subject,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
		})
	}
}

// extractToken reads the raw token from the configured carrier.
func (g *Gate) extractToken(r *http.Request) (string, bool) {
	switch g.carrier {
	case CarrierHeader:
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return "", false
		}
		token := strings.TrimPrefix(header, "Bearer ")
		return token, token != ""
	default:
		c, err := r.Cookie(TokenCookieName)
		if err != nil || c.Value == "" {
			return "", false
		}
		return c.Value, true
	}
}

// rejectUnauthorized writes the single unauthorized response used for every
// authentication failure. The reason is logged, never sent to the client.
func rejectUnauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Warn("authentication failed",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"reason", reason,
	)
	observability.AuthFailuresTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: api.NewUnauthorizedError("authentication required"),
	})
}
