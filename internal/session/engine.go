// Package session folds push payloads into the running session of the active
// character and produces the overlay messages for each of them.
//
// Lookups needed by a payload are started with Engine.Prefetch on the ingest
// goroutine. Engine.Apply then runs on a single goroutine in payload order,
// waiting for those lookups where needed.
package session

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/lookup"
	"github.com/Amund211/censusoverlay/internal/overlay"
	"github.com/Amund211/censusoverlay/internal/refdata"
)

// Multi kills are never counted with a window below this
const minMultiKillWindow = 100 * time.Millisecond

type Config struct {
	MultiKillWindow     time.Duration
	DuplicateKillWindow time.Duration
	KDModeRevive        bool
}

type Resolvers struct {
	ClassifyWeapon func(ctx context.Context, weaponID string) domain.WeaponLookup
	ResolveName    func(ctx context.Context, characterID string) string
}

type lookups struct {
	weapon     *lookup.Future[domain.WeaponLookup]
	victimName *lookup.Future[string]
	killerName *lookup.Future[string]
}

// Work is one payload bound to the character it is applied to
type Work struct {
	Payload     domain.Payload
	CharacterID string
	// Now is the event time in unix seconds
	Now float64

	lookups lookups
}

// Snapshot is the latest session state of an active character
type Snapshot struct {
	CharacterID  string
	Raw          domain.SessionRaw
	KDModeRevive bool
}

type Engine struct {
	cfg        Config
	presenter  *overlay.Presenter
	vehicles   *refdata.VehicleEventMaps
	facilities *refdata.FacilityMap
	resolvers  Resolvers
	pool       *lookup.Pool
	nowFunc    func() time.Time

	// Only touched from Apply
	sessions map[string]*Accumulator

	mu       sync.Mutex
	snapshot *Snapshot
}

func NewEngine(
	cfg Config,
	presenter *overlay.Presenter,
	vehicles *refdata.VehicleEventMaps,
	facilities *refdata.FacilityMap,
	resolvers Resolvers,
	pool *lookup.Pool,
	nowFunc func() time.Time,
) *Engine {
	return &Engine{
		cfg:        cfg,
		presenter:  presenter,
		vehicles:   vehicles,
		facilities: facilities,
		resolvers:  resolvers,
		pool:       pool,
		nowFunc:    nowFunc,

		sessions: make(map[string]*Accumulator),
	}
}

// Prefetch starts the lookups the payload will need for characterID
func (e *Engine) Prefetch(ctx context.Context, payload domain.Payload, characterID string, now float64) Work {
	work := Work{
		Payload:     payload,
		CharacterID: characterID,
		Now:         now,
	}
	if payload.Kind() != domain.EventDeath {
		return work
	}

	death := readDeath(payload)
	killed := death.attackerID == characterID && !isPlaceholderID(death.victimID) && death.victimID != characterID
	died := death.victimID == characterID

	if killed {
		work.lookups.victimName = e.resolveName(ctx, death.victimID)
	}
	if died {
		work.lookups.killerName = e.resolveName(ctx, death.attackerID)
	}
	if death.hasWeapon && !death.teamkill && (killed || died) {
		weaponID := death.weaponID
		work.lookups.weapon = lookup.Submit(
			ctx,
			e.pool,
			domain.ApplyWeaponOverrides(weaponID, domain.WeaponLookup{}),
			func(ctx context.Context) domain.WeaponLookup {
				return e.resolvers.ClassifyWeapon(ctx, weaponID)
			},
		)
	}

	return work
}

func (e *Engine) resolveName(ctx context.Context, characterID string) *lookup.Future[string] {
	if isPlaceholderID(characterID) {
		return lookup.Resolved(characterID)
	}
	return lookup.Submit(ctx, e.pool, characterID, func(ctx context.Context) string {
		return e.resolvers.ResolveName(ctx, characterID)
	})
}

func awaitOr[T any](ctx context.Context, future *lookup.Future[T], fallback T) T {
	if future == nil {
		return fallback
	}
	return future.Await(ctx)
}

// Apply folds the payload into the session of its character and returns the messages in emit order
func (e *Engine) Apply(ctx context.Context, work Work) []domain.Message {
	if isPlaceholderID(work.CharacterID) {
		return nil
	}

	acc, ok := e.sessions[work.CharacterID]
	if !ok {
		acc = NewAccumulator()
		e.sessions[work.CharacterID] = acc
	}
	acc.kdModeRevive = e.cfg.KDModeRevive

	var out []domain.Message
	switch work.Payload.Kind() {
	case domain.EventDeath:
		out = e.applyDeath(ctx, acc, work)
	case domain.EventGainExperience:
		out = e.applyExperience(acc, work)
	case domain.EventPlayerLogin:
		out = e.applyLogin(acc, work)
	case domain.EventPlayerLogout:
		out = e.applyLogout(acc, work)
	case domain.EventFacilityCapture, domain.EventFacilityDefend:
		e.applyFacility(ctx, acc, work)
	case domain.EventMetagame:
		out = e.applyMetagame(acc, work)
	case domain.EventUnrecognized:
	}

	e.mu.Lock()
	e.snapshot = &Snapshot{
		CharacterID:  work.CharacterID,
		Raw:          acc.Raw(e.nowFunc()),
		KDModeRevive: e.cfg.KDModeRevive,
	}
	e.mu.Unlock()

	return out
}

// Snapshot returns the session the last payload was applied to
func (e *Engine) Snapshot() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == nil {
		return Snapshot{}, false
	}
	return *e.snapshot, true
}

func (e *Engine) event(name string) domain.Message {
	return e.presenter.Event(name)
}

func (e *Engine) voice(trigger string) domain.Message {
	return overlay.VoiceTrigger(trigger, e.nowFunc())
}

func (e *Engine) sessionRaw(acc *Accumulator) domain.Message {
	return acc.Raw(e.nowFunc())
}

func (e *Engine) streak(acc *Accumulator, count uint32, visible bool) domain.Message {
	return e.presenter.Streak(count, visible, acc.streakHistory())
}

func (e *Engine) multiKillWindow() float64 {
	return max(e.cfg.MultiKillWindow, minMultiKillWindow).Seconds()
}

func unixTime(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func payloadID(payload domain.Payload, key string) string {
	id, _ := payload.Str(key)
	return strings.TrimSpace(id)
}

func trimmedID(payload domain.Payload, key string) (string, bool) {
	id, ok := payload.Str(key)
	if !ok {
		return "", false
	}
	id = strings.TrimSpace(id)
	if isPlaceholderID(id) {
		return "", false
	}
	return id, true
}

func (a *Accumulator) updateLocation(payload domain.Payload) {
	if worldID, ok := payload.WorldID(); ok {
		a.worldID = worldID
	}
	if zoneID, ok := payload.Uint32("zone_id"); ok {
		a.zoneID = zoneID
	}
}
