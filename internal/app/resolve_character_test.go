package app_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/cache"
	"github.com/Amund211/censusoverlay/internal/adapters/characterrepository"
	"github.com/Amund211/censusoverlay/internal/adapters/database"
	"github.com/Amund211/censusoverlay/internal/app"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type characterResult struct {
	entry domain.PlayerCacheEntry
	err   error
}

type mockedCharacterProvider struct {
	t      *testing.T
	byID   map[string]characterResult
	byName map[string]characterResult

	mu    sync.Mutex
	calls int
}

func (m *mockedCharacterProvider) record() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *mockedCharacterProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockedCharacterProvider) GetCharacter(ctx context.Context, characterID string) (domain.PlayerCacheEntry, error) {
	m.t.Helper()
	m.record()

	result, ok := m.byID[characterID]
	require.True(m.t, ok, "unexpected character lookup for %s", characterID)
	return result.entry, result.err
}

func (m *mockedCharacterProvider) GetCharacters(ctx context.Context, characterIDs []string) ([]domain.PlayerCacheEntry, error) {
	m.t.Helper()
	m.t.Fatal("should not be called")
	return nil, nil
}

func (m *mockedCharacterProvider) FindCharacterByName(ctx context.Context, name string) (domain.PlayerCacheEntry, error) {
	m.t.Helper()
	m.record()

	result, ok := m.byName[name]
	require.True(m.t, ok, "unexpected character lookup for name %s", name)
	return result.entry, result.err
}

func newRepository(t *testing.T) *characterrepository.SQLCharacterRepository {
	t.Helper()

	db, err := database.NewSQLiteDatabase(filepath.Join(t.TempDir(), database.SQLITE_FILE_NAME))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	require.NoError(t, database.NewDatabaseMigrator(db, logger).Migrate(t.Context(), database.SQLITE_SCHEMA))

	return characterrepository.NewSQLCharacterRepository(db, database.SQLITE_SCHEMA)
}

func newNameCache(t *testing.T) cache.Cache[domain.CharacterEntry] {
	t.Helper()

	nameCache, stop := cache.NewTTLCache[domain.CharacterEntry](time.Minute)
	t.Cleanup(stop)
	return nameCache
}

func newResolver(t *testing.T, repo *characterrepository.SQLCharacterRepository, provider *mockedCharacterProvider) *app.CharacterResolver {
	t.Helper()

	provider.t = t
	memo := cache.LoadPersisted[domain.PlayerCacheEntry](t.Context(), characterrepository.NewPlayerCacheStore(repo), cache.FlushImmediately())
	return app.NewCharacterResolver(memo, repo, provider, 900*time.Millisecond)
}

func TestCharacterResolver(t *testing.T) {
	t.Parallel()

	t.Run("placeholder ids are never resolved", func(t *testing.T) {
		t.Parallel()

		provider := &mockedCharacterProvider{}
		resolver := newResolver(t, newRepository(t), provider)

		_, ok := resolver.ResolveCharacter(t.Context(), "0")
		require.False(t, ok)
		require.Equal(t, "", resolver.ResolveName(t.Context(), ""))
		require.Equal(t, 0, provider.callCount())
	})

	t.Run("seeded from database names", func(t *testing.T) {
		t.Parallel()

		repo := newRepository(t)
		require.NoError(t, repo.UpsertPlayerCacheEntries(t.Context(), []domain.PlayerCacheEntry{
			{CharacterID: "1", Name: "Wrel", FactionID: ptr(int64(1))},
		}))

		provider := &mockedCharacterProvider{}
		resolver := newResolver(t, repo, provider)

		require.Equal(t, "Wrel", resolver.ResolveName(t.Context(), "1"))
		require.Equal(t, 0, provider.callCount())
	})

	t.Run("database entry after construction", func(t *testing.T) {
		t.Parallel()

		repo := newRepository(t)
		provider := &mockedCharacterProvider{}
		resolver := newResolver(t, repo, provider)

		profile := domain.PlayerCacheEntry{CharacterID: "2", Name: "Higby", FactionID: ptr(int64(3)), WorldID: ptr("1")}
		require.NoError(t, repo.UpsertPlayerCacheEntries(t.Context(), []domain.PlayerCacheEntry{profile}))

		entry, ok := resolver.ResolveCharacter(t.Context(), "2")
		require.True(t, ok)
		require.Equal(t, profile, entry)
		require.Equal(t, 0, provider.callCount())
	})

	t.Run("fetch writes through to the database", func(t *testing.T) {
		t.Parallel()

		repo := newRepository(t)
		profile := domain.PlayerCacheEntry{CharacterID: "3", Name: "Dexter", OutfitTag: ptr("DIG"), BattleRank: ptr(int64(100))}
		provider := &mockedCharacterProvider{byID: map[string]characterResult{
			"3": {entry: profile},
		}}
		resolver := newResolver(t, repo, provider)

		entry, ok := resolver.ResolveCharacter(t.Context(), " 3 ")
		require.True(t, ok)
		require.Equal(t, profile, entry)

		stored, err := repo.FindEntry(t.Context(), "3")
		require.NoError(t, err)
		require.Equal(t, profile, stored)

		require.Equal(t, "Dexter", resolver.ResolveName(t.Context(), "3"))
		require.Equal(t, 1, provider.callCount())
	})

	t.Run("failures are retried", func(t *testing.T) {
		t.Parallel()

		provider := &mockedCharacterProvider{byID: map[string]characterResult{
			"4": {err: assert.AnError},
		}}
		resolver := newResolver(t, newRepository(t), provider)

		require.Equal(t, "4", resolver.ResolveName(t.Context(), "4"))
		require.Equal(t, "4", resolver.ResolveName(t.Context(), "4"))
		require.Equal(t, 2, provider.callCount())
	})

	t.Run("remembered profiles are not fetched", func(t *testing.T) {
		t.Parallel()

		provider := &mockedCharacterProvider{}
		resolver := newResolver(t, newRepository(t), provider)

		resolver.Remember([]domain.PlayerCacheEntry{
			{CharacterID: "5", Name: "Five"},
			{CharacterID: "6", Name: ""},
		})

		require.Equal(t, "Five", resolver.ResolveName(t.Context(), "5"))
		require.Equal(t, 0, provider.callCount())
	})
}
