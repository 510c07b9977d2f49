package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/cache"
	"github.com/Amund211/censusoverlay/internal/adapters/characterprovider"
	"github.com/Amund211/censusoverlay/internal/adapters/characterrepository"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/strutils"
)

// CharacterResolver turns character ids into profiles.
// Profiles are looked up in memory, then in the database, then from census.
type CharacterResolver struct {
	memo     *cache.Persisted[domain.PlayerCacheEntry]
	repo     characterrepository.CharacterRepository
	provider characterprovider.CharacterProvider
	timeout  time.Duration
}

// NewCharacterResolver wraps a memo whose store writes fetched profiles through to the database
func NewCharacterResolver(
	memo *cache.Persisted[domain.PlayerCacheEntry],
	repo characterrepository.CharacterRepository,
	provider characterprovider.CharacterProvider,
	timeout time.Duration,
) *CharacterResolver {
	return &CharacterResolver{
		memo:     memo,
		repo:     repo,
		provider: provider,
		timeout:  timeout,
	}
}

func (r *CharacterResolver) ResolveCharacter(ctx context.Context, characterID string) (domain.PlayerCacheEntry, bool) {
	characterID, ok := strutils.NormalizeCharacterID(characterID)
	if !ok {
		return domain.PlayerCacheEntry{}, false
	}

	if entry, ok := r.memo.Get(characterID); ok {
		return entry, true
	}

	if entry, ok := r.fromDatabase(ctx, characterID); ok {
		r.memo.Seed(characterID, entry)
		return entry, true
	}

	entry, err := r.memo.GetOrFetch(ctx, characterID, func(ctx context.Context) (domain.PlayerCacheEntry, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		entry, err := r.provider.GetCharacter(ctx, characterID)
		if err != nil {
			// NOTE: CharacterProvider implementations handle their own error reporting
			return domain.PlayerCacheEntry{}, fmt.Errorf("failed to fetch character: %w", err)
		}
		if entry.Name == "" {
			return domain.PlayerCacheEntry{}, domain.ErrCharacterNotFound
		}
		return entry, nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrCharacterNotFound) {
			logging.FromContext(ctx).WarnContext(
				ctx,
				"Character lookup failed",
				slog.String("characterID", characterID),
				slog.String("error", err.Error()),
			)
		}
		return domain.PlayerCacheEntry{}, false
	}

	return entry, true
}

func (r *CharacterResolver) fromDatabase(ctx context.Context, characterID string) (domain.PlayerCacheEntry, bool) {
	// NOTE: The repository handles its own error reporting
	entry, err := r.repo.FindEntry(ctx, characterID)
	if err == nil && entry.Name != "" {
		return entry, true
	}

	name, err := r.repo.FindName(ctx, characterID)
	if err == nil && name != "" {
		return domain.PlayerCacheEntry{CharacterID: characterID, Name: name}, true
	}

	return domain.PlayerCacheEntry{}, false
}

// ResolveName falls back to the id itself when the character is unknown
func (r *CharacterResolver) ResolveName(ctx context.Context, characterID string) string {
	entry, ok := r.ResolveCharacter(ctx, characterID)
	if !ok {
		return characterID
	}
	return entry.Name
}

// Remember stores profiles learned elsewhere without writing them back
func (r *CharacterResolver) Remember(entries []domain.PlayerCacheEntry) {
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		r.memo.Seed(entry.CharacterID, entry)
	}
}
