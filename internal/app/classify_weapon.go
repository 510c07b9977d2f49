package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/cache"
	"github.com/Amund211/censusoverlay/internal/adapters/weaponprovider"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
)

// Number of newly learned weapon names buffered before the caches are written
const WeaponCacheFlushThreshold = 8

type ClassifyWeapon func(ctx context.Context, weaponID string) domain.WeaponLookup

func lookupFromEntry(entry domain.WeaponCacheEntry) domain.WeaponLookup {
	lookup := domain.WeaponLookup{EventName: entry.EventName}
	if entry.HSREligible != nil {
		lookup.HSREligible = *entry.HSREligible
	}
	return lookup
}

// BuildClassifyWeapon resolves weapon ids to kill event names and headshot ratio eligibility.
// Items census could not be asked about are remembered for the lifetime of the process and never persisted.
func BuildClassifyWeapon(
	weaponCache *cache.Persisted[domain.WeaponCacheEntry],
	provider weaponprovider.WeaponProvider,
	enabled bool,
	timeout time.Duration,
) ClassifyWeapon {
	var mu sync.Mutex
	unavailable := make(map[string]struct{})

	isUnavailable := func(weaponID string) bool {
		mu.Lock()
		defer mu.Unlock()
		_, ok := unavailable[weaponID]
		return ok
	}
	markUnavailable := func(weaponID string) {
		mu.Lock()
		defer mu.Unlock()
		unavailable[weaponID] = struct{}{}
	}

	return func(ctx context.Context, weaponID string) domain.WeaponLookup {
		weaponID = strings.TrimSpace(weaponID)
		if !enabled || weaponID == "" || weaponID == "0" {
			return domain.ApplyWeaponOverrides(weaponID, domain.WeaponLookup{})
		}

		entry, cached := weaponCache.Get(weaponID)
		if cached && entry.EventCached && entry.HSREligible != nil {
			return domain.ApplyWeaponOverrides(weaponID, lookupFromEntry(entry))
		}

		if isUnavailable(weaponID) {
			return domain.ApplyWeaponOverrides(weaponID, lookupFromEntry(entry))
		}

		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		fetched, err := provider.GetWeapon(fetchCtx, weaponID)
		cancel()
		if errors.Is(err, domain.ErrWeaponNotFound) {
			fetched = domain.WeaponLookup{}
		} else if err != nil {
			// NOTE: WeaponProvider implementations handle their own error reporting
			logging.FromContext(ctx).WarnContext(
				ctx,
				"Weapon lookup failed",
				slog.String("weaponID", weaponID),
				slog.String("error", err.Error()),
			)
			markUnavailable(weaponID)
			return domain.ApplyWeaponOverrides(weaponID, lookupFromEntry(entry))
		}

		var merged domain.WeaponCacheEntry
		err = weaponCache.Update(ctx, weaponID, func(current domain.WeaponCacheEntry, exists bool) (domain.WeaponCacheEntry, bool) {
			learned := false
			next := current
			if !current.EventCached || current.EventName == nil {
				next.EventName = fetched.EventName
				learned = fetched.EventName != nil
			}
			next.EventCached = true
			hsrEligible := fetched.HSREligible
			next.HSREligible = &hsrEligible

			merged = next
			return next, learned
		})
		if err != nil {
			// NOTE: Persisted handles its own error reporting
			logging.FromContext(ctx).WarnContext(ctx, "Failed to persist weapon caches", slog.String("error", err.Error()))
		}

		return domain.ApplyWeaponOverrides(weaponID, lookupFromEntry(merged))
	}
}
