package characterprovider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Census caps the number of ids it resolves in one query
const MaxBatchSize = 30

type CharacterProvider interface {
	GetCharacter(ctx context.Context, characterID string) (domain.PlayerCacheEntry, error)
	GetCharacters(ctx context.Context, characterIDs []string) ([]domain.PlayerCacheEntry, error)
	FindCharacterByName(ctx context.Context, name string) (domain.PlayerCacheEntry, error)
}

type CensusGetter interface {
	Get(ctx context.Context, collection string, query string) (gjson.Result, error)
}

type censusCharacterProvider struct {
	census CensusGetter

	returnCount metric.Int64Counter
	tracer      trace.Tracer
}

func NewCensusCharacterProvider(census CensusGetter) (*censusCharacterProvider, error) {
	const name = "census-overlay/characterprovider/census"

	meter := otel.Meter(name)
	tracer := otel.Tracer(name)

	returnCount, err := meter.Int64Counter("characterprovider/census/return_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create return count metric: %w", err)
	}

	return &censusCharacterProvider{
		census: census,

		returnCount: returnCount,
		tracer:      tracer,
	}, nil
}

func (p *censusCharacterProvider) GetCharacter(ctx context.Context, characterID string) (domain.PlayerCacheEntry, error) {
	ctx, span := p.tracer.Start(ctx, "CensusCharacterProvider.GetCharacter")
	defer span.End()

	root, err := p.census.Get(
		ctx,
		"character",
		fmt.Sprintf("character_id=%s&c:show=character_id,name.first,faction_id,world_id,battle_rank&c:resolve=outfit", characterID),
	)
	if err != nil {
		// NOTE: censusapi.Client handles its own error reporting
		return domain.PlayerCacheEntry{}, fmt.Errorf("failed to get character: %w", err)
	}

	profiles := profilesFromCharacterList(root, "")
	p.record(ctx, "single", len(profiles))
	if len(profiles) == 0 {
		return domain.PlayerCacheEntry{}, domain.ErrCharacterNotFound
	}
	return profiles[0], nil
}

// GetCharacters resolves up to MaxBatchSize ids in one request.
// Unknown ids are left out of the result.
func (p *censusCharacterProvider) GetCharacters(ctx context.Context, characterIDs []string) ([]domain.PlayerCacheEntry, error) {
	ctx, span := p.tracer.Start(ctx, "CensusCharacterProvider.GetCharacters")
	defer span.End()

	if len(characterIDs) == 0 {
		return []domain.PlayerCacheEntry{}, nil
	}
	if len(characterIDs) > MaxBatchSize {
		return nil, fmt.Errorf("too many character ids in one batch: %d > %d", len(characterIDs), MaxBatchSize)
	}

	root, err := p.census.Get(
		ctx,
		"character/",
		fmt.Sprintf(
			"character_id=%s&c:show=character_id,name.first,faction_id,battle_rank,world_id&c:resolve=outfit",
			strings.Join(characterIDs, ","),
		),
	)
	if err != nil {
		// NOTE: censusapi.Client handles its own error reporting
		return nil, fmt.Errorf("failed to get characters: %w", err)
	}

	profiles := profilesFromCharacterList(root, "")
	p.record(ctx, "batch", len(profiles))
	return profiles, nil
}

func (p *censusCharacterProvider) FindCharacterByName(ctx context.Context, name string) (domain.PlayerCacheEntry, error) {
	ctx, span := p.tracer.Start(ctx, "CensusCharacterProvider.FindCharacterByName")
	defer span.End()

	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return domain.PlayerCacheEntry{}, domain.ErrCharacterNotFound
	}

	root, err := p.census.Get(
		ctx,
		"character",
		fmt.Sprintf(
			"name.first_lower=%s&c:resolve=world,outfit&c:show=character_id,name.first,world_id,faction_id,battle_rank",
			url.QueryEscape(lower),
		),
	)
	if err != nil {
		// NOTE: censusapi.Client handles its own error reporting
		return domain.PlayerCacheEntry{}, fmt.Errorf("failed to find character by name: %w", err)
	}

	profiles := profilesFromCharacterList(root, strings.TrimSpace(name))
	p.record(ctx, "by_name", len(profiles))
	if len(profiles) == 0 {
		return domain.PlayerCacheEntry{}, domain.ErrCharacterNotFound
	}
	return profiles[0], nil
}

func (p *censusCharacterProvider) record(ctx context.Context, kind string, found int) {
	p.returnCount.Add(
		ctx,
		int64(max(found, 1)),
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Bool("found", found > 0),
		),
	)
}

// profilesFromCharacterList reads every usable entry of character_list.
// Entries without an id, or without a name when fallbackName is empty, are skipped.
func profilesFromCharacterList(root gjson.Result, fallbackName string) []domain.PlayerCacheEntry {
	profiles := []domain.PlayerCacheEntry{}
	for _, entry := range root.Get("character_list").Array() {
		profile, ok := profileFromEntry(entry, fallbackName)
		if !ok {
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles
}

func profileFromEntry(entry gjson.Result, fallbackName string) (domain.PlayerCacheEntry, bool) {
	characterID, ok := jsonfield.TrimmedStr(entry.Get("character_id"))
	if !ok {
		return domain.PlayerCacheEntry{}, false
	}

	name, ok := firstText(entry, "name.first", gjson.Escape("name.first"))
	if !ok {
		if fallbackName == "" {
			return domain.PlayerCacheEntry{}, false
		}
		name = fallbackName
	}

	profile := domain.PlayerCacheEntry{
		CharacterID: characterID,
		Name:        name,
	}

	if worldID, ok := firstText(entry, "world_id"); ok {
		profile.WorldID = &worldID
	}
	if factionID, ok := jsonfield.IntLoose(entry.Get("faction_id")); ok {
		profile.FactionID = &factionID
	}
	if battleRank, ok := jsonfield.IntLoose(entry.Get("battle_rank.value")); ok {
		profile.BattleRank = &battleRank
	} else if battleRank, ok := jsonfield.IntLoose(entry.Get(gjson.Escape("battle_rank.value"))); ok {
		profile.BattleRank = &battleRank
	}
	if outfitTag, ok := jsonfield.TrimmedStr(entry.Get("outfit.alias")); ok {
		profile.OutfitTag = &outfitTag
	}

	return profile, true
}

func firstText(entry gjson.Result, paths ...string) (string, bool) {
	for _, path := range paths {
		if text, ok := jsonfield.TrimmedStr(entry.Get(path)); ok {
			return text, true
		}
	}
	return "", false
}
