// Package sidechannel keeps the roster of characters seen on the stream and
// learns the names of newly seen characters in batches.
package sidechannel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/lookup"
	"github.com/Amund211/censusoverlay/internal/reporting"
)

const (
	// Presences not seen for this many seconds are pruned
	presenceTTL = 600.0

	BatchSize     = 30
	flushInterval = 5.0
)

type CharacterBatchProvider interface {
	GetCharacters(ctx context.Context, characterIDs []string) ([]domain.PlayerCacheEntry, error)
}

type PlayerCacheRepository interface {
	UpsertPlayerCacheEntries(ctx context.Context, entries []domain.PlayerCacheEntry) error
	CountPlayerCache(ctx context.Context) (int64, error)
}

type presence struct {
	faction  string
	worldID  string
	lastSeen float64
}

// BatchResult is a finished batch lookup waiting to be applied
type BatchResult struct {
	Requested     []string
	Entries       []domain.PlayerCacheEntry
	DBPlayerCount int64
	// Failed lookups leave the requested ids unknown so they can be queued again
	Failed bool
}

type SideChannel struct {
	provider CharacterBatchProvider
	repo     PlayerCacheRepository
	remember func(entries []domain.PlayerCacheEntry)
	pool     *lookup.Pool
	timeout  time.Duration

	presences map[string]presence
	known     map[string]struct{}
	queue     []string
	queued    map[string]struct{}

	flushed   bool
	lastFlush float64
	inFlight  bool
	results   chan BatchResult
}

// New creates a side channel that already knows knownIDs
func New(
	provider CharacterBatchProvider,
	repo PlayerCacheRepository,
	remember func(entries []domain.PlayerCacheEntry),
	pool *lookup.Pool,
	timeout time.Duration,
	knownIDs []string,
) *SideChannel {
	known := make(map[string]struct{}, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = struct{}{}
	}
	if remember == nil {
		remember = func([]domain.PlayerCacheEntry) {}
	}

	return &SideChannel{
		provider: provider,
		repo:     repo,
		remember: remember,
		pool:     pool,
		timeout:  timeout,

		presences: make(map[string]presence),
		known:     known,
		queued:    make(map[string]struct{}),

		// Only one batch is in flight at a time
		results: make(chan BatchResult, 1),
	}
}

// Results delivers finished batch lookups. Pass them to Apply.
func (s *SideChannel) Results() <-chan BatchResult {
	return s.results
}

// Observe updates the roster from a payload and starts a batch lookup when one is due.
// Must be called from the ingestion goroutine.
func (s *SideChannel) Observe(ctx context.Context, payload domain.Payload, now float64) []domain.Message {
	var out []domain.Message

	characterID, hasCharacter := payload.CharacterID()

	switch payload.Kind() {
	case domain.EventGainExperience:
		if hasCharacter {
			out = append(out, s.upsert(payload, characterID, now))
			s.enqueue(characterID)
		}
	case domain.EventPlayerLogout:
		if hasCharacter {
			delete(s.presences, characterID)
			out = append(out, domain.Envelope{
				Category: domain.CategoryActivePlayerRemove,
				Data:     domain.ActivePlayerRemove{CharacterID: characterID},
			})
		}
	case domain.EventFacilityCapture, domain.EventFacilityDefend:
		if hasCharacter {
			s.enqueue(characterID)
		}
	case domain.EventDeath, domain.EventPlayerLogin, domain.EventMetagame, domain.EventUnrecognized:
	}

	if pruned := s.prune(now); len(pruned) > 0 {
		out = append(out, domain.Envelope{
			Category: domain.CategoryActivePlayerPrune,
			Data:     domain.ActivePlayerPrune{CharacterIDs: pruned},
		})
	}

	s.maybeFlush(ctx, now)

	return out
}

func (s *SideChannel) upsert(payload domain.Payload, characterID string, now float64) domain.Message {
	teamID, _ := payload.Uint32("team_id")
	worldID := ""
	if id, ok := payload.WorldID(); ok {
		worldID = strconv.FormatUint(uint64(id), 10)
	}

	p := presence{
		faction:  domain.FactionTag(teamID),
		worldID:  worldID,
		lastSeen: now,
	}
	s.presences[characterID] = p

	return domain.Envelope{
		Category: domain.CategoryActivePlayerUpsert,
		Data: domain.ActivePlayerUpsert{
			CharacterID: characterID,
			Faction:     p.faction,
			WorldID:     p.worldID,
			LastSeen:    p.lastSeen,
		},
	}
}

func (s *SideChannel) prune(now float64) []string {
	var pruned []string
	for characterID, p := range s.presences {
		if p.lastSeen < now-presenceTTL {
			pruned = append(pruned, characterID)
			delete(s.presences, characterID)
		}
	}
	slices.Sort(pruned)
	return pruned
}

func (s *SideChannel) enqueue(characterID string) {
	if _, ok := s.queued[characterID]; ok {
		return
	}
	if _, ok := s.known[characterID]; ok {
		return
	}
	s.queued[characterID] = struct{}{}
	s.queue = append(s.queue, characterID)
}

// ActiveCount is the number of characters currently on the roster
func (s *SideChannel) ActiveCount() int {
	return len(s.presences)
}

// Queued is the number of ids waiting for a batch lookup
func (s *SideChannel) Queued() int {
	return len(s.queue)
}

func (s *SideChannel) flushDue(now float64) bool {
	if len(s.queue) == 0 || s.inFlight {
		return false
	}
	return len(s.queue) >= BatchSize || !s.flushed || now-s.lastFlush >= flushInterval
}

func (s *SideChannel) maybeFlush(ctx context.Context, now float64) {
	if !s.flushDue(now) {
		return
	}

	n := min(len(s.queue), BatchSize)
	batch := make([]string, n)
	copy(batch, s.queue[:n])
	s.queue = append(s.queue[:0], s.queue[n:]...)
	for _, id := range batch {
		delete(s.queued, id)
	}

	s.flushed = true
	s.lastFlush = now
	s.inFlight = true

	future := lookup.Submit(ctx, s.pool, BatchResult{Requested: batch, Failed: true}, func(ctx context.Context) BatchResult {
		return s.fetch(ctx, batch)
	})

	go func() {
		// The buffer holds the one in-flight result
		s.results <- future.Await(context.WithoutCancel(ctx))
	}()
}

func (s *SideChannel) fetch(ctx context.Context, batch []string) BatchResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.provider.GetCharacters(ctx, batch)
	if err != nil {
		// NOTE: The provider handles its own error reporting
		logging.FromContext(ctx).WarnContext(ctx, "Batch character lookup failed", slog.Int("count", len(batch)), slog.String("error", err.Error()))
		return BatchResult{Requested: batch, Failed: true}
	}

	named := make([]domain.PlayerCacheEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Name != "" {
			named = append(named, entry)
		}
	}

	if len(named) > 0 {
		if err := s.repo.UpsertPlayerCacheEntries(ctx, named); err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to store batch of characters: %w", err))
		}
	}

	count, err := s.repo.CountPlayerCache(ctx)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to count stored characters: %w", err))
	}

	return BatchResult{
		Requested:     batch,
		Entries:       named,
		DBPlayerCount: count,
	}
}

// Apply records a finished batch and returns the message announcing the learned names.
// Must be called from the ingestion goroutine.
func (s *SideChannel) Apply(ctx context.Context, result BatchResult) []domain.Message {
	s.inFlight = false

	if result.Failed || len(result.Entries) == 0 {
		return nil
	}

	names := make(map[string]string, len(result.Entries))
	outfits := make(map[string]string)
	for _, entry := range result.Entries {
		s.known[entry.CharacterID] = struct{}{}
		names[entry.CharacterID] = entry.Name
		if entry.OutfitTag != nil && *entry.OutfitTag != "" {
			outfits[entry.CharacterID] = *entry.OutfitTag
		}
	}
	s.remember(result.Entries)

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Learned character names",
		slog.Int("requested", len(result.Requested)),
		slog.Int("found", len(result.Entries)),
		slog.Int64("dbPlayerCount", result.DBPlayerCount),
	)

	return []domain.Message{domain.Envelope{
		Category: domain.CategoryPlayerCacheBatch,
		Data: domain.PlayerCacheBatch{
			Names:         names,
			Outfits:       outfits,
			DBPlayerCount: result.DBPlayerCount,
		},
	}}
}
