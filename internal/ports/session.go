package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/ratelimiting"
	"github.com/Amund211/censusoverlay/internal/reporting"
	"github.com/Amund211/censusoverlay/internal/session"
)

type SessionSnapshotter interface {
	Snapshot() (session.Snapshot, bool)
}

type sessionResponse struct {
	Success     bool                        `json:"success"`
	CharacterID string                      `json:"character_id,omitempty"`
	Raw         *domain.SessionRaw          `json:"raw,omitempty"`
	Stats       *domain.SessionDerivedStats `json:"stats,omitempty"`
	Cause       string                      `json:"cause,omitempty"`
}

func MakeGetSessionHandler(sessions SessionSnapshotter, nowFunc func() time.Time, opts PortOptions) http.HandlerFunc {
	// NOTE: The limiter expiry loop runs for the lifetime of the process
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(10),
		ratelimiting.BurstSize(120),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	middleware := portMiddleware("session", opts, ipRateLimiter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		snapshot, ok := sessions.Snapshot()
		if !ok {
			writeJSON(w, r, http.StatusNotFound, sessionResponse{Success: false, Cause: "no active session"})
			return
		}

		ctx = reporting.SetCharacterIDInContext(ctx, snapshot.CharacterID)
		ctx = logging.AddMetaToContext(ctx, slog.String("characterID", snapshot.CharacterID))

		stats := domain.DeriveSessionStats(snapshot.Raw, snapshot.KDModeRevive, nowFunc())

		writeJSON(w, r.WithContext(ctx), http.StatusOK, sessionResponse{
			Success:     true,
			CharacterID: snapshot.CharacterID,
			Raw:         &snapshot.Raw,
			Stats:       &stats,
		})
	}

	return middleware(handler)
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		reporting.Report(r.Context(), fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}
