package app

import (
	"context"
	"fmt"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/strutils"
)

type LoadTrackedCharacters func(ctx context.Context) ([]string, error)

type TrackCharacter func(ctx context.Context, name string) (domain.CharacterEntry, error)

type UntrackCharacter func(ctx context.Context, name string) error

type myCharactersRepository interface {
	FindEntry(ctx context.Context, characterID string) (domain.PlayerCacheEntry, error)
	LoadMyCharacters(ctx context.Context) ([]domain.CharacterEntry, error)
	SaveMyCharacter(ctx context.Context, entry domain.PlayerCacheEntry) error
	RemoveMyCharacter(ctx context.Context, name string) error
}

// BuildLoadTrackedCharacters lists the seed id followed by the roster, without duplicates.
// A failing roster read still yields the seed.
func BuildLoadTrackedCharacters(repo myCharactersRepository, seedCharacterID string) LoadTrackedCharacters {
	return func(ctx context.Context) ([]string, error) {
		tracked := []string{}
		seen := make(map[string]struct{})
		add := func(characterID string) {
			characterID, ok := strutils.NormalizeCharacterID(characterID)
			if !ok {
				return
			}
			if _, ok := seen[characterID]; ok {
				return
			}
			seen[characterID] = struct{}{}
			tracked = append(tracked, characterID)
		}

		add(seedCharacterID)

		characters, err := repo.LoadMyCharacters(ctx)
		if err != nil {
			// NOTE: The repository handles its own error reporting
			return tracked, fmt.Errorf("failed to load tracked characters: %w", err)
		}
		for _, character := range characters {
			add(character.CharacterID)
		}

		return tracked, nil
	}
}

// BuildTrackCharacter resolves a name and adds the character to the roster
func BuildTrackCharacter(lookup LookupCharacterByName, repo myCharactersRepository) TrackCharacter {
	return func(ctx context.Context, name string) (domain.CharacterEntry, error) {
		entry, err := lookup(ctx, name)
		if err != nil {
			return domain.CharacterEntry{}, fmt.Errorf("failed to look up character: %w", err)
		}

		// Keep the full remembered profile, saving overwrites it
		profile, err := repo.FindEntry(ctx, entry.CharacterID)
		if err != nil || profile.Name == "" {
			profile = domain.PlayerCacheEntry{
				CharacterID: entry.CharacterID,
				Name:        entry.Name,
				WorldID:     entry.WorldID,
			}
		}

		err = repo.SaveMyCharacter(ctx, profile)
		if err != nil {
			// NOTE: The repository handles its own error reporting
			return domain.CharacterEntry{}, fmt.Errorf("failed to save tracked character: %w", err)
		}

		return entry, nil
	}
}

func BuildUntrackCharacter(repo myCharactersRepository) UntrackCharacter {
	return func(ctx context.Context, name string) error {
		if err := repo.RemoveMyCharacter(ctx, name); err != nil {
			// NOTE: The repository handles its own error reporting
			return fmt.Errorf("failed to remove tracked character: %w", err)
		}
		return nil
	}
}
