package catalog

import (
	"context"
	"log/slog"
	"os"

	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/tidwall/gjson"
)

// Load reads the event catalog and streak template from the overlay config document.
// A missing or broken document yields an empty catalog and the default template.
func Load(ctx context.Context, configPath string, assets AssetRoots) (*EventCatalog, *StreakTemplate) {
	logger := logging.FromContext(ctx).With(slog.String("path", configPath))

	if configPath == "" {
		logger.WarnContext(ctx, "No overlay config found, using default event presentation")
		return NewEmptyEventCatalog(), DefaultStreakTemplate()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read overlay config", "error", err.Error())
		return NewEmptyEventCatalog(), DefaultStreakTemplate()
	}
	if !gjson.ValidBytes(data) {
		logger.WarnContext(ctx, "Failed to parse overlay config")
		return NewEmptyEventCatalog(), DefaultStreakTemplate()
	}

	root := gjson.ParseBytes(data)
	return ParseEventCatalog(root), ParseStreakTemplate(root, assets)
}
