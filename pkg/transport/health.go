package transport

import "net/http"

// healthStatus is the health check response body.
type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// handleHealth reports process liveness and storage connectivity.
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthStatus{
			Status:   "unhealthy",
			Database: "disconnected",
		})
		return
	}
	writeJSON(w, http.StatusOK, healthStatus{
		Status:   "healthy",
		Database: "connected",
	})
}
