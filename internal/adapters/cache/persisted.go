package cache

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/reporting"
)

// Store is the durable side of a Persisted cache.
// Save receives the complete entry set and the keys that changed since the last save.
type Store[V any] interface {
	Load(ctx context.Context) (map[string]V, error)
	Save(ctx context.Context, entries map[string]V, changed []string) error
}

// FlushStrategy decides how many dirty writes are buffered before saving
type FlushStrategy struct {
	threshold int
}

// FlushAfter saves once n dirty writes have accumulated
func FlushAfter(n int) FlushStrategy {
	return FlushStrategy{threshold: max(n, 1)}
}

// FlushImmediately saves after every dirty write
func FlushImmediately() FlushStrategy {
	return FlushAfter(1)
}

func (s FlushStrategy) due(dirty int) bool {
	return dirty >= s.threshold
}

// Persisted is an in-memory map backed by a Store
type Persisted[V any] struct {
	store    Store[V]
	strategy FlushStrategy

	mu      sync.Mutex
	entries map[string]V
	changed map[string]struct{}
	dirty   int
}

// LoadPersisted reads the initial entries from store.
// A failing load is reported and the cache starts out empty.
func LoadPersisted[V any](ctx context.Context, store Store[V], strategy FlushStrategy) *Persisted[V] {
	entries, err := store.Load(ctx)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to load persisted cache: %w", err))
		entries = nil
	}
	if entries == nil {
		entries = make(map[string]V)
	}

	logging.FromContext(ctx).InfoContext(ctx, "Loaded persisted cache", slog.Int("entries", len(entries)))

	return &Persisted[V]{
		store:    store,
		strategy: strategy,
		entries:  entries,
		changed:  make(map[string]struct{}),
	}
}

func (p *Persisted[V]) Get(key string) (V, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	value, ok := p.entries[key]
	return value, ok
}

func (p *Persisted[V]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.entries)
}

// Seed stores a value without marking it dirty
func (p *Persisted[V]) Seed(key string, value V) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries[key] = value
}

// Set stores a value and marks it dirty
func (p *Persisted[V]) Set(ctx context.Context, key string, value V) error {
	return p.Update(ctx, key, func(V, bool) (V, bool) {
		return value, true
	})
}

// Update replaces the entry for key with the result of fn.
// Only updates where fn reports dirty count towards the flush strategy.
func (p *Persisted[V]) Update(ctx context.Context, key string, fn func(current V, exists bool) (V, bool)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, exists := p.entries[key]
	next, dirty := fn(current, exists)
	p.entries[key] = next
	if !dirty {
		return nil
	}

	p.changed[key] = struct{}{}
	p.dirty++
	if !p.strategy.due(p.dirty) {
		return nil
	}
	return p.flushLocked(ctx)
}

// GetOrFetch returns the stored value or fetches and stores it.
// Failed fetches are not stored.
func (p *Persisted[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if value, ok := p.Get(key); ok {
		return value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		var empty V
		return empty, err
	}

	// NOTE: The value is returned even if it could not be saved
	if err := p.Set(ctx, key, value); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "Failed to persist fetched entry", slog.String("error", err.Error()))
	}

	return value, nil
}

// Flush saves the cache if anything is dirty
func (p *Persisted[V]) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushLocked(ctx)
}

// Close flushes pending writes
func (p *Persisted[V]) Close(ctx context.Context) error {
	return p.Flush(ctx)
}

func (p *Persisted[V]) flushLocked(ctx context.Context) error {
	if p.dirty == 0 {
		return nil
	}

	changed := slices.Sorted(maps.Keys(p.changed))
	if err := p.store.Save(ctx, maps.Clone(p.entries), changed); err != nil {
		err := fmt.Errorf("failed to save persisted cache: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	p.dirty = 0
	clear(p.changed)
	return nil
}
