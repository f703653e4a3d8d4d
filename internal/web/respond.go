package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
	"github.com/justestif/go-stream-player/internal/identity"
	"github.com/justestif/go-stream-player/internal/player"
	"github.com/justestif/go-stream-player/internal/stats"
)

// badRequest marks client input errors so respondError maps them to 400.
type badRequest struct {
	msg string
}

func (e badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes payload as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps service errors onto HTTP statuses. Unrecognized errors
// become opaque 500s; the detail goes to the log, not the client.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var br badRequest

	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
	case errors.Is(err, db.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, player.ErrNoContext), errors.Is(err, player.ErrEmptyQueue):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, player.ErrUnknownContextType),
		errors.Is(err, stats.ErrUnknownMetric),
		errors.As(err, &br):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.Error("request failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON decodes the request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return badRequestf("decoding request body: %v", err)
	}
	return nil
}
