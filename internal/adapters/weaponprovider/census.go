package weaponprovider

import (
	"context"
	"fmt"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type WeaponProvider interface {
	GetWeapon(ctx context.Context, weaponID string) (domain.WeaponLookup, error)
}

type CensusGetter interface {
	Get(ctx context.Context, collection string, query string) (gjson.Result, error)
}

type censusWeaponProvider struct {
	census CensusGetter

	returnCount metric.Int64Counter
	tracer      trace.Tracer
}

func NewCensusWeaponProvider(census CensusGetter) (*censusWeaponProvider, error) {
	const name = "census-overlay/weaponprovider/census"

	meter := otel.Meter(name)
	tracer := otel.Tracer(name)

	returnCount, err := meter.Int64Counter("weaponprovider/census/return_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create return count metric: %w", err)
	}

	return &censusWeaponProvider{
		census: census,

		returnCount: returnCount,
		tracer:      tracer,
	}, nil
}

// GetWeapon classifies the item by its name and item type.
// Returns domain.ErrWeaponNotFound when census does not know the item.
func (p *censusWeaponProvider) GetWeapon(ctx context.Context, weaponID string) (domain.WeaponLookup, error) {
	ctx, span := p.tracer.Start(ctx, "CensusWeaponProvider.GetWeapon")
	defer span.End()

	root, err := p.census.Get(
		ctx,
		"item",
		fmt.Sprintf("item_id=%s&c:resolve=item_type&c:show=item_id,name.en,item_type_id", weaponID),
	)
	if err != nil {
		// NOTE: censusapi.Client handles its own error reporting
		return domain.WeaponLookup{}, fmt.Errorf("failed to get item: %w", err)
	}

	lookup, found := weaponFromItemList(root)
	if !found {
		return domain.WeaponLookup{}, domain.ErrWeaponNotFound
	}

	eventName := "none"
	if lookup.EventName != nil {
		eventName = *lookup.EventName
	}
	p.returnCount.Add(
		ctx,
		1,
		metric.WithAttributes(
			attribute.String("event_name", eventName),
			attribute.Bool("hsr_eligible", lookup.HSREligible),
		),
	)

	return lookup, nil
}

func weaponFromItemList(root gjson.Result) (domain.WeaponLookup, bool) {
	item := root.Get("item_list.0")
	if !item.IsObject() {
		return domain.WeaponLookup{}, false
	}

	itemName, _ := jsonfield.Str(item.Get("name.en"))
	itemTypeName, _ := jsonfield.Str(item.Get("item_type.name"))

	return domain.WeaponLookup{
		EventName:   domain.ClassifyWeaponText(itemName, itemTypeName),
		HSREligible: domain.IsHSRWeaponCategory(itemTypeName),
	}, true
}
