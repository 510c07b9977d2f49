package app_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Amund211/censusoverlay/internal/app"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestLookupCharacterByName(t *testing.T) {
	t.Parallel()

	t.Run("database hit", func(t *testing.T) {
		t.Parallel()

		repo := newRepository(t)
		require.NoError(t, repo.UpsertPlayerCacheEntries(t.Context(), []domain.PlayerCacheEntry{
			{CharacterID: "1", Name: "Wrel", WorldID: ptr("17")},
		}))
		provider := &mockedCharacterProvider{t: t}
		lookup := app.BuildLookupCharacterByName(newNameCache(t), repo, provider, 5*time.Second)

		entry, err := lookup(t.Context(), "  wReL ")
		require.NoError(t, err)
		require.Equal(t, domain.CharacterEntry{CharacterID: "1", Name: "Wrel", WorldID: ptr("17")}, entry)
		require.Equal(t, 0, provider.callCount())

		tracked, err := repo.LoadMyCharacters(t.Context())
		require.NoError(t, err)
		require.Empty(t, tracked)
	})

	t.Run("census hit is saved and tracked", func(t *testing.T) {
		t.Parallel()

		repo := newRepository(t)
		profile := domain.PlayerCacheEntry{CharacterID: "2", Name: "Higby", WorldID: ptr("1"), FactionID: ptr(int64(2))}
		provider := &mockedCharacterProvider{t: t, byName: map[string]characterResult{
			"Higby": {entry: profile},
		}}
		lookup := app.BuildLookupCharacterByName(newNameCache(t), repo, provider, 5*time.Second)

		entry, err := lookup(t.Context(), "Higby")
		require.NoError(t, err)
		require.Equal(t, domain.CharacterEntry{CharacterID: "2", Name: "Higby", WorldID: ptr("1")}, entry)

		stored, err := repo.FindEntry(t.Context(), "2")
		require.NoError(t, err)
		require.Equal(t, profile, stored)

		tracked, err := repo.LoadMyCharacters(t.Context())
		require.NoError(t, err)
		require.Len(t, tracked, 1)
		require.Equal(t, "2", tracked[0].CharacterID)

		// Cached by lowercased name
		_, err = lookup(t.Context(), "HIGBY")
		require.NoError(t, err)
		require.Equal(t, 1, provider.callCount())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		provider := &mockedCharacterProvider{t: t, byName: map[string]characterResult{
			"nobody": {err: domain.ErrCharacterNotFound},
		}}
		lookup := app.BuildLookupCharacterByName(newNameCache(t), newRepository(t), provider, 5*time.Second)

		_, err := lookup(t.Context(), "nobody")
		require.ErrorIs(t, err, domain.ErrCharacterNotFound)

		// Failures are not cached
		_, err = lookup(t.Context(), "nobody")
		require.ErrorIs(t, err, domain.ErrCharacterNotFound)
		require.Equal(t, 2, provider.callCount())
	})

	t.Run("invalid names", func(t *testing.T) {
		t.Parallel()

		provider := &mockedCharacterProvider{t: t}
		lookup := app.BuildLookupCharacterByName(newNameCache(t), newRepository(t), provider, 5*time.Second)

		for _, name := range []string{"", "   ", strings.Repeat("a", 33)} {
			_, err := lookup(t.Context(), name)
			require.Error(t, err)
		}
		require.Equal(t, 0, provider.callCount())
	})
}
