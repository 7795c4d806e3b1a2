// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/repository"
	"github.com/basa-org/basa-events/internal/service"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service and repository errors to a status code.
// Messages of client errors are returned as is; anything unexpected is
// logged and replaced by fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrNoPaymentRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded), errors.Is(err, repository.ErrEventFull):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrSlugTaken):
		writeError(w, http.StatusConflict, "an event with this slug already exists")
	case errors.Is(err, repository.ErrMemberExists):
		writeError(w, http.StatusConflict, "a member with this email already exists")
	case errors.Is(err, repository.ErrPaymentAlreadyUsed):
		writeError(w, http.StatusConflict, "this payment was already used for another membership")
	case errors.Is(err, service.ErrPaymentNotSucceeded):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrPaymentSetup):
		slog.WarnContext(r.Context(), "payment processor error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.ErrorContext(r.Context(), fallback, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Check pings one dependency.
type Check func(ctx context.Context) error

// HealthCheck handles GET /health. Each named check must pass within two
// seconds for the service to report ok.
func HealthCheck(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		writeJSON(w, code, status)
	}
}
