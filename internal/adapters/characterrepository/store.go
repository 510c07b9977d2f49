package characterrepository

import (
	"context"
	"fmt"

	"github.com/Amund211/censusoverlay/internal/domain"
)

// PlayerCacheStore adapts a repository to a persisted cache store of character profiles.
// Loading yields name-only entries. Saving writes only the changed profiles.
type PlayerCacheStore struct {
	repo CharacterRepository
}

func NewPlayerCacheStore(repo CharacterRepository) *PlayerCacheStore {
	return &PlayerCacheStore{repo: repo}
}

func (s *PlayerCacheStore) Load(ctx context.Context) (map[string]domain.PlayerCacheEntry, error) {
	maps, err := s.repo.LoadPlayerCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load player cache: %w", err)
	}

	entries := make(map[string]domain.PlayerCacheEntry, len(maps.Names))
	for characterID, name := range maps.Names {
		if name == "" {
			continue
		}
		entry := domain.PlayerCacheEntry{CharacterID: characterID, Name: name}
		if tag, ok := maps.Outfits[characterID]; ok && tag != "" {
			entry.OutfitTag = &tag
		}
		entries[characterID] = entry
	}
	return entries, nil
}

func (s *PlayerCacheStore) Save(ctx context.Context, entries map[string]domain.PlayerCacheEntry, changed []string) error {
	profiles := make([]domain.PlayerCacheEntry, 0, len(changed))
	for _, characterID := range changed {
		entry, ok := entries[characterID]
		if !ok {
			continue
		}
		profiles = append(profiles, entry)
	}
	if len(profiles) == 0 {
		return nil
	}

	if err := s.repo.UpsertPlayerCacheEntries(ctx, profiles); err != nil {
		// NOTE: The repository handles its own error reporting
		return fmt.Errorf("failed to save player cache entries: %w", err)
	}
	return nil
}
