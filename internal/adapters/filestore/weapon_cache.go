package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
)

const (
	WeaponEventCacheFileName = "weapon_event_cache.json"
	WeaponHSRCacheFileName   = "weapon_hsr_cache.json"
)

// WeaponCacheStore keeps the weapon lookups in two JSON maps:
// item id -> event name and item id -> headshot ratio eligibility
type WeaponCacheStore struct {
	eventPath string
	hsrPath   string
}

func NewWeaponCacheStore(dataDir string) *WeaponCacheStore {
	return &WeaponCacheStore{
		eventPath: filepath.Join(dataDir, WeaponEventCacheFileName),
		hsrPath:   filepath.Join(dataDir, WeaponHSRCacheFileName),
	}
}

func (s *WeaponCacheStore) Load(ctx context.Context) (map[string]domain.WeaponCacheEntry, error) {
	names, err := readJSONMap[string](s.eventPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weapon event cache: %w", err)
	}
	hsr, err := readJSONMap[bool](s.hsrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weapon hsr cache: %w", err)
	}

	entries := make(map[string]domain.WeaponCacheEntry, max(len(names), len(hsr)))
	for weaponID, eventName := range names {
		entries[weaponID] = domain.WeaponCacheEntry{
			EventName:   &eventName,
			EventCached: true,
		}
	}
	for weaponID, eligible := range hsr {
		entry := entries[weaponID]
		entry.HSREligible = &eligible
		entries[weaponID] = entry
	}

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Read weapon caches",
		slog.Int("eventNames", len(names)),
		slog.Int("hsr", len(hsr)),
	)

	return entries, nil
}

// Save rewrites both files.
// Nothing is written while no event name is known.
func (s *WeaponCacheStore) Save(ctx context.Context, entries map[string]domain.WeaponCacheEntry, changed []string) error {
	names := make(map[string]string)
	hsr := make(map[string]bool)
	for weaponID, entry := range entries {
		if entry.EventName != nil {
			names[weaponID] = *entry.EventName
		}
		if entry.HSREligible != nil {
			hsr[weaponID] = *entry.HSREligible
		}
	}

	if len(names) == 0 {
		return nil
	}

	if err := writeJSONMap(s.eventPath, names); err != nil {
		return fmt.Errorf("failed to write weapon event cache: %w", err)
	}
	if err := writeJSONMap(s.hsrPath, hsr); err != nil {
		return fmt.Errorf("failed to write weapon hsr cache: %w", err)
	}

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Wrote weapon caches",
		slog.Int("eventNames", len(names)),
		slog.Int("hsr", len(hsr)),
		slog.Int("changed", len(changed)),
	)

	return nil
}

// readJSONMap treats a missing file as an empty map
func readJSONMap[V any](path string) (map[string]V, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]V{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error reading from %s: %w", path, err)
	}

	var out map[string]V
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if out == nil {
		out = map[string]V{}
	}
	return out, nil
}

// writeJSONMap replaces the file through a rename so readers never see a partial write
func writeJSONMap[V any](path string, data map[string]V) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", path, err)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing to %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	return nil
}
