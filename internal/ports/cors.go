package ports

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// AllowedOrigins is the set of browser origins allowed to call the overlay ports.
// Loopback origins are always allowed since the presentation clients run locally.
type AllowedOrigins struct {
	origins []string
}

func NewAllowedOrigins(origins ...string) (*AllowedOrigins, error) {
	for _, origin := range origins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("origin %s should start with http:// or https://", origin)
		}
		if strings.HasSuffix(origin, "/") {
			return nil, fmt.Errorf("origin %s should not end with a slash", origin)
		}
	}
	return &AllowedOrigins{
		origins: origins,
	}, nil
}

func (a *AllowedOrigins) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if slices.Contains(a.origins, origin) {
		return true
	}
	return isLoopbackOrigin(origin)
}

func isLoopbackOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme != "http" || parsed.Path != "" {
		return false
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func BuildCORSMiddleware(allowedOrigins *AllowedOrigins) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowedOrigins.Allows(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")

				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Overlay-Client")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next(w, r)
		}
	}
}

func BuildCORSHandler(allowedOrigins *AllowedOrigins) http.HandlerFunc {
	return BuildCORSMiddleware(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
