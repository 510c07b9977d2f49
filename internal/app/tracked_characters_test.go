package app_test

import (
	"testing"
	"time"

	"github.com/Amund211/censusoverlay/internal/app"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestTrackedCharacters(t *testing.T) {
	t.Parallel()

	t.Run("seed comes first without duplicates", func(t *testing.T) {
		t.Parallel()

		repo := newRepository(t)
		require.NoError(t, repo.SyncMyCharacters(t.Context(), []domain.CharacterEntry{
			{CharacterID: "2", Name: "Beta"},
			{CharacterID: "1", Name: "Alpha"},
		}))

		tracked, err := app.BuildLoadTrackedCharacters(repo, " 2 ")(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"2", "1"}, tracked)
	})

	t.Run("placeholder seed is skipped", func(t *testing.T) {
		t.Parallel()

		tracked, err := app.BuildLoadTrackedCharacters(newRepository(t), "0")(t.Context())
		require.NoError(t, err)
		require.Empty(t, tracked)
	})

	t.Run("track keeps the remembered profile", func(t *testing.T) {
		t.Parallel()

		repo := newRepository(t)
		profile := domain.PlayerCacheEntry{CharacterID: "7", Name: "Seven", FactionID: ptr(int64(1)), BattleRank: ptr(int64(8))}
		require.NoError(t, repo.UpsertPlayerCacheEntries(t.Context(), []domain.PlayerCacheEntry{profile}))

		provider := &mockedCharacterProvider{t: t}
		lookup := app.BuildLookupCharacterByName(newNameCache(t), repo, provider, 5*time.Second)

		entry, err := app.BuildTrackCharacter(lookup, repo)(t.Context(), "seven")
		require.NoError(t, err)
		require.Equal(t, "7", entry.CharacterID)

		stored, err := repo.FindEntry(t.Context(), "7")
		require.NoError(t, err)
		require.Equal(t, profile, stored)

		tracked, err := app.BuildLoadTrackedCharacters(repo, "")(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"7"}, tracked)

		require.NoError(t, app.BuildUntrackCharacter(repo)(t.Context(), "Seven"))
		tracked, err = app.BuildLoadTrackedCharacters(repo, "")(t.Context())
		require.NoError(t, err)
		require.Empty(t, tracked)
	})
}
