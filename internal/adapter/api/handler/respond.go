package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes a JSON response; serialization failures at this point can
// only be logged, the status line is already gone.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response body", "error", err)
	}
}
