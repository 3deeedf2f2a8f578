package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"nimbus/internal/domain"
	"nimbus/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Only the stable kind
// crosses the wire; messages and causes stay in the logs.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var p *domain.Problem
	if errors.As(err, &p) {
		if p.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "kind", p.Kind, "error", err)
		}
		httputil.RespondKind(w, p.Status, string(p.Kind))
		return
	}

	logger.Error("unhandled error", "error", err)
	httputil.RespondKind(w, http.StatusInternalServerError, string(domain.KindInternal))
}

// successResponse is the body for mutations whose only payload is "it worked".
type successResponse struct {
	Success bool `json:"success"`
}

func respondSuccess(w http.ResponseWriter) {
	httputil.RespondJSON(w, http.StatusOK, successResponse{Success: true})
}
