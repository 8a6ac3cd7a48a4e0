package auth

import "errors"

// Identity represents an authenticated caller, decoded from a verified token.
type Identity struct {
	// Subject is the caller's username (required, non-empty).
	Subject string

	// UserID is the caller's numeric account ID (required, positive).
	UserID int64
}

// Sentinel errors.
var (
	// ErrUnauthenticated covers every token failure: missing, malformed,
	// bad signature, expired, or incomplete claims. The kinds are not
	// distinguished to callers so a rejected request reveals nothing
	// about which check failed.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the caller is authenticated but does
	// not own the target resource.
	ErrForbidden = errors.New("access denied")

	// ErrRateLimited is returned when the per-client throttle rejects a
	// request.
	ErrRateLimited = errors.New("rate limit exceeded")
)
