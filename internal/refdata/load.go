package refdata

import (
	"context"
	"log/slog"
	"os"

	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/tidwall/gjson"
)

const (
	ExperienceFileName = "experience.json"
	FacilityFileName   = "bases.json"
)

type Locator interface {
	Locate(name string) (string, bool)
}

func readDocument(ctx context.Context, assets Locator, name string) (gjson.Result, bool) {
	logger := logging.FromContext(ctx).With(slog.String("file", name))

	path, ok := assets.Locate(name)
	if !ok {
		logger.WarnContext(ctx, "Reference data file not found")
		return gjson.Result{}, false
	}
	logger = logger.With(slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read reference data file", "error", err.Error())
		return gjson.Result{}, false
	}
	if !gjson.ValidBytes(data) {
		logger.WarnContext(ctx, "Failed to parse reference data file")
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(data), true
}

// LoadVehicleEventMaps reads experience.json from the asset roots. Missing data gives empty maps.
func LoadVehicleEventMaps(ctx context.Context, assets Locator) *VehicleEventMaps {
	root, ok := readDocument(ctx, assets, ExperienceFileName)
	if !ok {
		return NewEmptyVehicleEventMaps()
	}
	return ParseVehicleEventMaps(root)
}

// LoadFacilityMap reads bases.json from the asset roots. Missing data gives an empty map.
func LoadFacilityMap(ctx context.Context, assets Locator) *FacilityMap {
	root, ok := readDocument(ctx, assets, FacilityFileName)
	if !ok {
		return NewEmptyFacilityMap()
	}
	return ParseFacilityMap(root)
}
