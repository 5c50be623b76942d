package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/laguz/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps a typed failure to its HTTP status. Rate-limit
// failures carry a Retry-After header so clients can back off.
func writeError(w http.ResponseWriter, err error) {
	var (
		rl *apperr.RateLimitedError
		nf *apperr.NotFoundError
		ve *apperr.ValidationError
		ue *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, errorBody(rl.Error()))
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorBody(nf.Error()))
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody(ve.Error()))
	case errors.As(err, &ue):
		writeJSON(w, http.StatusBadGateway, errorBody(ue.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
