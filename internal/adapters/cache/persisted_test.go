package cache_test

import (
	"context"
	"maps"
	"testing"

	"github.com/Amund211/censusoverlay/internal/adapters/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveCall struct {
	entries map[string]int
	changed []string
}

type mockedStore struct {
	initial map[string]int
	loadErr error
	saveErr error
	saves   []saveCall
}

func (s *mockedStore) Load(ctx context.Context) (map[string]int, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return maps.Clone(s.initial), nil
}

func (s *mockedStore) Save(ctx context.Context, entries map[string]int, changed []string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, saveCall{entries: entries, changed: changed})
	return nil
}

func TestPersisted(t *testing.T) {
	t.Parallel()

	t.Run("loads initial entries", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{initial: map[string]int{"a": 1}}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushAfter(2))

		value, ok := p.Get("a")
		require.True(t, ok)
		require.Equal(t, 1, value)
		require.Equal(t, 1, p.Len())

		_, ok = p.Get("b")
		require.False(t, ok)
	})

	t.Run("failed load starts empty", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{loadErr: assert.AnError}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushImmediately())

		require.Equal(t, 0, p.Len())
		require.NoError(t, p.Set(t.Context(), "a", 1))
		require.Len(t, store.saves, 1)
	})

	t.Run("flush after threshold", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushAfter(3))

		require.NoError(t, p.Set(t.Context(), "a", 1))
		require.NoError(t, p.Set(t.Context(), "b", 2))
		require.Empty(t, store.saves)

		require.NoError(t, p.Set(t.Context(), "c", 3))
		require.Len(t, store.saves, 1)
		require.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, store.saves[0].entries)
		require.Equal(t, []string{"a", "b", "c"}, store.saves[0].changed)

		require.NoError(t, p.Set(t.Context(), "d", 4))
		require.Len(t, store.saves, 1)
	})

	t.Run("flush immediately", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{initial: map[string]int{"a": 1}}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushImmediately())

		require.NoError(t, p.Set(t.Context(), "b", 2))
		require.Len(t, store.saves, 1)
		require.Equal(t, []string{"b"}, store.saves[0].changed)
		require.Equal(t, map[string]int{"a": 1, "b": 2}, store.saves[0].entries)
	})

	t.Run("clean updates do not count", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushImmediately())

		err := p.Update(t.Context(), "a", func(current int, exists bool) (int, bool) {
			require.False(t, exists)
			return 5, false
		})
		require.NoError(t, err)
		require.Empty(t, store.saves)

		value, ok := p.Get("a")
		require.True(t, ok)
		require.Equal(t, 5, value)

		err = p.Update(t.Context(), "a", func(current int, exists bool) (int, bool) {
			require.True(t, exists)
			require.Equal(t, 5, current)
			return current + 1, true
		})
		require.NoError(t, err)
		require.Len(t, store.saves, 1)
		require.Equal(t, map[string]int{"a": 6}, store.saves[0].entries)
	})

	t.Run("seed is not dirty", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushImmediately())

		p.Seed("a", 1)
		require.NoError(t, p.Close(t.Context()))
		require.Empty(t, store.saves)
	})

	t.Run("close flushes dirty entries", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushAfter(8))

		require.NoError(t, p.Set(t.Context(), "a", 1))
		require.Empty(t, store.saves)

		require.NoError(t, p.Close(t.Context()))
		require.Len(t, store.saves, 1)

		// Nothing left to flush
		require.NoError(t, p.Flush(t.Context()))
		require.Len(t, store.saves, 1)
	})

	t.Run("failed save keeps entries dirty", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{saveErr: assert.AnError}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushImmediately())

		err := p.Set(t.Context(), "a", 1)
		require.ErrorIs(t, err, assert.AnError)

		store.saveErr = nil
		require.NoError(t, p.Flush(t.Context()))
		require.Len(t, store.saves, 1)
		require.Equal(t, []string{"a"}, store.saves[0].changed)
	})

	t.Run("get or fetch", func(t *testing.T) {
		t.Parallel()

		store := &mockedStore{initial: map[string]int{"a": 1}}
		p := cache.LoadPersisted[int](t.Context(), store, cache.FlushImmediately())

		value, err := p.GetOrFetch(t.Context(), "a", func(ctx context.Context) (int, error) {
			t.Fatal("fetch should not be called on a hit")
			return 0, nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, value)

		_, err = p.GetOrFetch(t.Context(), "b", func(ctx context.Context) (int, error) {
			return 0, assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)
		_, ok := p.Get("b")
		require.False(t, ok)
		require.Empty(t, store.saves)

		value, err = p.GetOrFetch(t.Context(), "b", func(ctx context.Context) (int, error) {
			return 2, nil
		})
		require.NoError(t, err)
		require.Equal(t, 2, value)
		require.Len(t, store.saves, 1)
	})
}
