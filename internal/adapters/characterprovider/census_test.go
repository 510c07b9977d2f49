package characterprovider_test

import (
	"context"
	"testing"

	"github.com/Amund211/censusoverlay/internal/adapters/characterprovider"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type mockedCensusGetter struct {
	t                  *testing.T
	expectedCollection string
	expectedQuery      string
	body               string
	err                error
}

func (m *mockedCensusGetter) Get(ctx context.Context, collection string, query string) (gjson.Result, error) {
	require.Equal(m.t, m.expectedCollection, collection)
	require.Equal(m.t, m.expectedQuery, query)

	if m.err != nil {
		return gjson.Result{}, m.err
	}
	return gjson.Parse(m.body), nil
}

func ptr[T any](v T) *T {
	return &v
}

func newProvider(t *testing.T, getter *mockedCensusGetter) characterprovider.CharacterProvider {
	t.Helper()

	getter.t = t
	provider, err := characterprovider.NewCensusCharacterProvider(getter)
	require.NoError(t, err)
	return provider
}

func TestGetCharacter(t *testing.T) {
	t.Parallel()

	const query = "character_id=5428010618035323201&c:show=character_id,name.first,faction_id,world_id,battle_rank&c:resolve=outfit"

	t.Run("full profile", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			body:               `{"character_list":[{"character_id":"5428010618035323201","name":{"first":"Dexter"},"faction_id":"2","world_id":"17","battle_rank":{"value":"120"},"outfit":{"alias":"DIGT"}}],"returned":1}`,
		})

		profile, err := provider.GetCharacter(t.Context(), "5428010618035323201")
		require.NoError(t, err)
		require.Equal(t, domain.PlayerCacheEntry{
			CharacterID: "5428010618035323201",
			Name:        "Dexter",
			WorldID:     ptr("17"),
			FactionID:   ptr(int64(2)),
			OutfitTag:   ptr("DIGT"),
			BattleRank:  ptr(int64(120)),
		}, profile)
	})

	t.Run("flattened keys and numeric faction", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			body:               `{"character_list":[{"character_id":"5428010618035323201","name.first":"Dexter","faction_id":3,"battle_rank.value":"15"}],"returned":1}`,
		})

		profile, err := provider.GetCharacter(t.Context(), "5428010618035323201")
		require.NoError(t, err)
		require.Equal(t, domain.PlayerCacheEntry{
			CharacterID: "5428010618035323201",
			Name:        "Dexter",
			FactionID:   ptr(int64(3)),
			BattleRank:  ptr(int64(15)),
		}, profile)
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			body:               `{"character_list":[],"returned":0}`,
		})

		_, err := provider.GetCharacter(t.Context(), "5428010618035323201")
		require.ErrorIs(t, err, domain.ErrCharacterNotFound)
	})

	t.Run("entry without a name", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			body:               `{"character_list":[{"character_id":"5428010618035323201","faction_id":"1"}],"returned":1}`,
		})

		_, err := provider.GetCharacter(t.Context(), "5428010618035323201")
		require.ErrorIs(t, err, domain.ErrCharacterNotFound)
	})

	t.Run("census error", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			err:                assert.AnError,
		})

		_, err := provider.GetCharacter(t.Context(), "5428010618035323201")
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestGetCharacters(t *testing.T) {
	t.Parallel()

	t.Run("batch", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character/",
			expectedQuery:      "character_id=1,2,3&c:show=character_id,name.first,faction_id,battle_rank,world_id&c:resolve=outfit",
			body:               `{"character_list":[{"character_id":"1","name":{"first":"One"},"world_id":"1"},{"character_id":"3","name":{"first":"Three"},"outfit":{"alias":""}}],"returned":2}`,
		})

		profiles, err := provider.GetCharacters(t.Context(), []string{"1", "2", "3"})
		require.NoError(t, err)
		require.Equal(t, []domain.PlayerCacheEntry{
			{CharacterID: "1", Name: "One", WorldID: ptr("1")},
			{CharacterID: "3", Name: "Three"},
		}, profiles)
	})

	t.Run("no ids does not query", func(t *testing.T) {
		t.Parallel()

		provider, err := characterprovider.NewCensusCharacterProvider(nil)
		require.NoError(t, err)

		profiles, err := provider.GetCharacters(t.Context(), nil)
		require.NoError(t, err)
		require.Empty(t, profiles)
	})

	t.Run("too many ids", func(t *testing.T) {
		t.Parallel()

		provider, err := characterprovider.NewCensusCharacterProvider(nil)
		require.NoError(t, err)

		ids := make([]string, characterprovider.MaxBatchSize+1)
		for i := range ids {
			ids[i] = "1"
		}
		_, err = provider.GetCharacters(t.Context(), ids)
		require.Error(t, err)
	})
}

func TestFindCharacterByName(t *testing.T) {
	t.Parallel()

	const query = "name.first_lower=dexter&c:resolve=world,outfit&c:show=character_id,name.first,world_id,faction_id,battle_rank"

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			body:               `{"character_list":[{"character_id":"42","name":{"first":"Dexter"},"world_id":"13","faction_id":"1"}],"returned":1}`,
		})

		profile, err := provider.FindCharacterByName(t.Context(), " Dexter ")
		require.NoError(t, err)
		require.Equal(t, domain.PlayerCacheEntry{
			CharacterID: "42",
			Name:        "Dexter",
			WorldID:     ptr("13"),
			FactionID:   ptr(int64(1)),
		}, profile)
	})

	t.Run("missing name falls back to the query", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			body:               `{"character_list":[{"character_id":"42"}],"returned":1}`,
		})

		profile, err := provider.FindCharacterByName(t.Context(), "DEXTER")
		require.NoError(t, err)
		require.Equal(t, domain.PlayerCacheEntry{CharacterID: "42", Name: "DEXTER"}, profile)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, &mockedCensusGetter{
			expectedCollection: "character",
			expectedQuery:      query,
			body:               `{"character_list":[],"returned":0}`,
		})

		_, err := provider.FindCharacterByName(t.Context(), "dexter")
		require.ErrorIs(t, err, domain.ErrCharacterNotFound)
	})

	t.Run("blank name", func(t *testing.T) {
		t.Parallel()

		provider, err := characterprovider.NewCensusCharacterProvider(nil)
		require.NoError(t, err)

		_, err = provider.FindCharacterByName(t.Context(), "   ")
		require.ErrorIs(t, err, domain.ErrCharacterNotFound)
	})
}
