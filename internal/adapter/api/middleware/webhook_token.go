package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

const WebhookTokenHeader = "X-Webhook-Token"

// WebhookToken verifies the static shared secret payment platforms attach to
// their deliveries. An empty configured token disables the check, since not
// every platform supports one.
func WebhookToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	if token == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(WebhookTokenHeader)
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
				logger.Warn("webhook token mismatch", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
