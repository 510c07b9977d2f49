package ports

import (
	"log/slog"
	"net/http"

	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/ratelimiting"
	"github.com/Amund211/censusoverlay/internal/reporting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"success":false,"cause":"rate limit exceeded"}`))
}

// PortOptions is what every overlay port is wrapped with
type PortOptions struct {
	RootLogger       *slog.Logger
	SentryMiddleware func(http.HandlerFunc) http.HandlerFunc
	AllowedOrigins   *AllowedOrigins
}

// portMiddleware applies logging, reporting, metrics, CORS and the per-ip limiter, outermost first
func portMiddleware(portName string, opts PortOptions, ipRateLimiter ratelimiting.RequestRateLimiter) func(http.HandlerFunc) http.HandlerFunc {
	return ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(opts.RootLogger.With(slog.String("port", portName))),
		opts.SentryMiddleware,
		reporting.NewAddMetaMiddleware(portName),
		buildMetricsMiddleware(),
		BuildCORSMiddleware(opts.AllowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, writeRateLimitExceeded),
	)
}
