package auth

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/scribeapp/scribe/pkg/debug"
)

// tokenClaims is the wire shape of an issued token: the registered "sub"
// and "exp" claims plus the numeric account ID under "id".
type tokenClaims struct {
	UserID int64 `json:"id"`
	jwtlib.RegisteredClaims
}

// TokenService issues and verifies HMAC-SHA256 signed identity tokens.
// The signing key is fixed at construction and never rotated at runtime.
type TokenService struct {
	secret []byte
	clock  func() time.Time
}

// NewTokenService creates a token service with the given signing key.
// A nil clock defaults to wall-clock UTC.
func NewTokenService(secret []byte, clock func() time.Time) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token signing secret must not be empty")
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &TokenService{secret: secret, clock: clock}, nil
}

// Issue builds a token for the given subject and user ID, expiring after ttl.
func (s *TokenService) Issue(subject string, userID int64, ttl time.Duration) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, tokenClaims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(s.clock().Add(ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify decodes and validates a token, returning the encoded identity.
//
// Checks run in order: signature (and well-formedness), then expiry, then
// presence of the subject and a positive numeric user ID. Every failure is
// reported as ErrUnauthenticated; the cause is logged at debug level only.
func (s *TokenService) Verify(tokenStr string) (*Identity, error) {
	claims := &tokenClaims{}

	token, err := jwtlib.ParseWithClaims(tokenStr, claims,
		func(t *jwtlib.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithTimeFunc(s.clock),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		debug.Log("auth", "token validation failed", "error", err)
		return nil, ErrUnauthenticated
	}

	if !token.Valid || claims.Subject == "" || claims.UserID <= 0 {
		debug.Log("auth", "token claims incomplete",
			"has_subject", claims.Subject != "",
			"has_user_id", claims.UserID > 0,
		)
		return nil, ErrUnauthenticated
	}

	return &Identity{Subject: claims.Subject, UserID: claims.UserID}, nil
}
