package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/cache"
	"github.com/Amund211/censusoverlay/internal/adapters/characterprovider"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/reporting"
)

const maxCharacterNameLength = 32

type LookupCharacterByName func(ctx context.Context, name string) (domain.CharacterEntry, error)

type characterByNameRepository interface {
	FindCharacterByName(ctx context.Context, name string) (domain.CharacterEntry, error)
	SaveMyCharacter(ctx context.Context, entry domain.PlayerCacheEntry) error
}

func lookupCharacterByNameWithoutCache(
	ctx context.Context,
	repo characterByNameRepository,
	provider characterprovider.CharacterProvider,
	timeout time.Duration,
	name string,
) (domain.CharacterEntry, error) {
	// NOTE: The repository handles its own error reporting, any failure falls through to census
	cached, err := repo.FindCharacterByName(ctx, name)
	if err == nil {
		return cached, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	profile, err := provider.FindCharacterByName(fetchCtx, name)
	if err != nil {
		// NOTE: CharacterProvider implementations handle their own error reporting
		return domain.CharacterEntry{}, fmt.Errorf("could not find character by name: %w", err)
	}

	if err := repo.SaveMyCharacter(ctx, profile); err != nil {
		// NOTE: Not critical, the character is still returned
		reporting.Report(ctx, fmt.Errorf("failed to save looked up character: %w", err))
	}

	return domain.CharacterEntry{
		CharacterID: profile.CharacterID,
		Name:        profile.Name,
		WorldID:     profile.WorldID,
	}, nil
}

func BuildLookupCharacterByName(
	characterCache cache.Cache[domain.CharacterEntry],
	repo characterByNameRepository,
	provider characterprovider.CharacterProvider,
	timeout time.Duration,
) LookupCharacterByName {
	return func(ctx context.Context, name string) (domain.CharacterEntry, error) {
		name = strings.TrimSpace(name)
		nameLength := len(name)
		if nameLength == 0 || nameLength > maxCharacterNameLength {
			err := fmt.Errorf("invalid character name length")
			reporting.Report(ctx, err, map[string]string{
				"name":   name,
				"length": strconv.Itoa(nameLength),
			})
			return domain.CharacterEntry{}, err
		}

		entry, _, err := cache.GetOrCreate(ctx, characterCache, strings.ToLower(name), func() (domain.CharacterEntry, error) {
			return lookupCharacterByNameWithoutCache(ctx, repo, provider, timeout, name)
		})
		if err != nil {
			// NOTE: GetOrCreate only returns an error if create() fails.
			// lookupCharacterByNameWithoutCache handles its own error reporting
			return domain.CharacterEntry{}, fmt.Errorf("failed to cache.GetOrCreate character by name: %w", err)
		}

		return entry, nil
	}
}
