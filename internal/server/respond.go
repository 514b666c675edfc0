package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/lazypower/keepsake/internal/fault"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps the fault taxonomy onto HTTP statuses. Anything
// outside the taxonomy is reported as an internal error without
// leaking the underlying message.
func respondError(w http.ResponseWriter, err error) {
	var rl *fault.RateLimitedError
	switch {
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		respondJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      "rate limited by the model provider",
			"code":       "RATE_LIMIT",
			"retryAfter": rl.RetryAfter,
		})
	case errors.Is(err, fault.ErrValidation):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, fault.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		log.Printf("server: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
