package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/auth"
	"github.com/scribeapp/scribe/pkg/storage"
)

// Config holds handler-level settings.
type Config struct {
	// TokenTTL is the lifetime of tokens issued at login.
	TokenTTL time.Duration

	// Carrier selects where issued tokens are delivered and read from.
	Carrier auth.TokenCarrier

	// Validation holds request field limits.
	Validation api.ValidationConfig

	// MetricsEnabled mounts the Prometheus handler at MetricsPath.
	MetricsEnabled bool
	MetricsPath    string
}

// DefaultConfig returns handler settings matching the server defaults.
func DefaultConfig() Config {
	return Config{
		TokenTTL:       20 * time.Minute,
		Carrier:        auth.CarrierCookie,
		Validation:     api.DefaultValidationConfig(),
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// Handlers routes the content API. All protected routes read the caller
// identity from the request context set by the authentication gate.
type Handlers struct {
	store  storage.Store
	tokens *auth.TokenService
	config Config
}

// NewHandlers creates the route handlers.
func NewHandlers(store storage.Store, tokens *auth.TokenService, cfg Config) *Handlers {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Handlers{store: store, tokens: tokens, config: cfg}
}

// PublicEndpoints lists the routes that skip authentication. Entries are
// matched as "METHOD /path" by the gate middleware.
func (h *Handlers) PublicEndpoints() []string {
	eps := []string{
		"POST /users",
		"POST /users/token",
		"GET /posts/all",
		"GET /healthz",
	}
	if h.config.MetricsEnabled {
		eps = append(eps, "GET "+h.config.MetricsPath)
	}
	return eps
}

// Router builds the full HTTP handler: the route table wrapped by the
// authentication gate. The rate limiter and HTTP middleware are applied
// outside, by the caller, so they also cover rejected routes.
func (h *Handlers) Router(gate *auth.Gate) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", h.handleRegister)
	mux.HandleFunc("POST /users/token", h.handleLogin)
	mux.HandleFunc("GET /users", h.handleGetUser)
	mux.HandleFunc("PUT /users", h.handleUpdateUser)
	mux.HandleFunc("DELETE /users", h.handleDeleteUser)

	mux.HandleFunc("POST /posts", h.handleCreatePost)
	mux.HandleFunc("GET /posts/all", h.handleListAllPosts)
	mux.HandleFunc("GET /posts/user/all", h.handleListOwnPosts)
	mux.HandleFunc("PUT /posts/{id}", h.handleUpdatePost)
	mux.HandleFunc("DELETE /posts/{id}", h.handleDeletePost)

	mux.HandleFunc("POST /comments/{postID}", h.handleCreateComment)
	mux.HandleFunc("GET /comments/{postID}", h.handleListComments)
	mux.HandleFunc("PUT /comments/{id}", h.handleUpdateComment)
	mux.HandleFunc("DELETE /comments/{id}", h.handleDeleteComment)

	mux.HandleFunc("GET /healthz", h.handleHealth)

	if h.config.MetricsEnabled {
		mux.Handle("GET "+h.config.MetricsPath, promhttp.Handler())
	}

	return gate.Middleware(h.PublicEndpoints())(mux)
}

// decodeJSON parses the request body into dst. A body that does not parse
// is a 422 unprocessable error, matching field-validation failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteAPIError(w, api.NewUnprocessableError("", "request body is not valid JSON"))
		return false
	}
	return true
}

// currentUser loads the authenticated caller's account record. The gate
// guarantees an identity is present on protected routes; a missing record
// behind a valid token is a 404.
func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) (*api.User, bool) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		WriteAPIError(w, api.NewUnauthorizedError("authentication required"))
		return nil, false
	}

	user, err := h.store.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteAPIError(w, api.NewNotFoundError("user not found"))
		} else {
			WriteAPIError(w, api.NewServerError("storage failure"))
		}
		return nil, false
	}
	return user, true
}

// pathID parses a positive integer path value. Returns 0 and writes a 400
// response when the value is absent or not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteAPIError(w, api.NewInvalidRequestError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// storageError maps a storage failure on a named resource to an API error.
func storageError(w http.ResponseWriter, err error, resource string) {
	if errors.Is(err, storage.ErrNotFound) {
		WriteAPIError(w, api.NewNotFoundError(resource+" not found"))
		return
	}
	if errors.Is(err, storage.ErrConflict) {
		WriteAPIError(w, api.NewConflictError("", resource+" already exists"))
		return
	}
	WriteAPIError(w, api.NewServerError("storage failure"))
}
