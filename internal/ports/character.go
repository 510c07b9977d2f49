package ports

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Amund211/censusoverlay/internal/app"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/ratelimiting"
	"github.com/Amund211/censusoverlay/internal/reporting"
)

type characterResponse struct {
	Success     bool    `json:"success"`
	Name        string  `json:"name,omitempty"`
	CharacterID string  `json:"character_id,omitempty"`
	WorldID     *string `json:"world_id,omitempty"`
	Cause       string  `json:"cause,omitempty"`
}

func MakeGetCharacterByNameHandler(lookupCharacterByName app.LookupCharacterByName, opts PortOptions) http.HandlerFunc {
	// NOTE: The limiter expiry loop runs for the lifetime of the process
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(20),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	middleware := portMiddleware("characterbyname", opts, ipRateLimiter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name := r.PathValue("name")

		ctx = logging.AddMetaToContext(ctx, slog.String("name", name))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{"name": name})
		r = r.WithContext(ctx)

		nameLength := len(name)
		if nameLength == 0 || nameLength > 32 {
			writeJSON(w, r, http.StatusBadRequest, characterResponse{Success: false, Cause: "invalid name length"})
			return
		}

		entry, err := lookupCharacterByName(ctx, name)
		if errors.Is(err, domain.ErrCharacterNotFound) {
			writeJSON(w, r, http.StatusNotFound, characterResponse{Success: false, Name: name, Cause: "not found"})
			return
		} else if errors.Is(err, domain.ErrTemporarilyUnavailable) {
			writeJSON(w, r, http.StatusServiceUnavailable, characterResponse{Success: false, Name: name, Cause: "temporarily unavailable"})
			return
		} else if err != nil {
			// NOTE: LookupCharacterByName implementations handle their own error reporting
			writeJSON(w, r, http.StatusInternalServerError, characterResponse{Success: false, Name: name, Cause: "internal server error"})
			return
		}

		writeJSON(w, r, http.StatusOK, characterResponse{
			Success:     true,
			Name:        entry.Name,
			CharacterID: entry.CharacterID,
			WorldID:     entry.WorldID,
		})
	}

	return middleware(handler)
}

// MakeHealthHandler reports liveness and the number of connected overlay clients
func MakeHealthHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"status":  "ok",
			"clients": hub.ClientCount(),
		})
	}
}
