package characterrepository

import (
	"context"

	"github.com/Amund211/censusoverlay/internal/domain"
)

type CharacterRepository interface {
	LoadPlayerCache(ctx context.Context) (domain.PlayerCacheMaps, error)
	FindEntry(ctx context.Context, characterID string) (domain.PlayerCacheEntry, error)
	FindName(ctx context.Context, characterID string) (string, error)
	FindCharacterByName(ctx context.Context, name string) (domain.CharacterEntry, error)
	UpsertPlayerCacheEntries(ctx context.Context, entries []domain.PlayerCacheEntry) error
	CountPlayerCache(ctx context.Context) (int64, error)

	LoadMyCharacters(ctx context.Context) ([]domain.CharacterEntry, error)
	SaveMyCharacter(ctx context.Context, entry domain.PlayerCacheEntry) error
	RemoveMyCharacter(ctx context.Context, name string) error
	SyncMyCharacters(ctx context.Context, entries []domain.CharacterEntry) error
}
