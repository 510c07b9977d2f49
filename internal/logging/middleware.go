package logging

import (
	"log/slog"
	"net/http"
)

func NewRequestLoggerMiddleware(logger *slog.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			clientID := r.Header.Get("X-Overlay-Client")
			if clientID == "" {
				clientID = "<missing>"
			}

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			requestLogger := logger.With(
				slog.String("clientID", clientID),
				slog.String("userAgent", userAgent),
				slog.String("methodPath", r.Method+" "+r.URL.Path),
			)

			next(w, r.WithContext(AddToContext(r.Context(), requestLogger)))
		}
	}
}
