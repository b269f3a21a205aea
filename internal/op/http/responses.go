package http

import (
	"errors"
	"net/http"

	"github.com/openauthlab/opd/internal/op/service"
	"github.com/openauthlab/opd/pkg/httpx"
	"github.com/openauthlab/opd/pkg/slogx"
)

// ErrorResponse is the JSON error body for direct (non-redirect) failures.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// writeServiceError maps the service sentinel errors to their fixed
// statuses and safe messages. Unknown errors are logged in full and
// reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", "the request is invalid")
	case errors.Is(err, service.ErrInvalidAuthSession):
		writeError(w, http.StatusBadRequest, "invalid_request", "no authorization request in progress")
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error, try again later")
	}
}
