package catalog_test

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Amund211/censusoverlay/internal/catalog"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type staticImageSizer struct {
	width, height float64
	calls         *int
}

func (s staticImageSizer) ImageSize(filename string) (float64, float64, bool) {
	if s.calls != nil {
		*s.calls++
	}
	return s.width, s.height, true
}

func ptr[T any](v T) *T {
	return &v
}

func TestParseStreakTemplate(t *testing.T) {
	t.Parallel()

	t.Run("missing section", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, catalog.DefaultStreakTemplate(), catalog.ParseStreakTemplate(gjson.Parse(`{}`), nil))
	})

	t.Run("all fields", func(t *testing.T) {
		t.Parallel()

		doc := `{"streak":{
			"active": false,
			"img": " streak.png ",
			"x": 50, "y": 60, "tx": 3, "ty": -4,
			"scale": 1.5,
			"size": 4,
			"color": " #ff0000 ",
			"bold": true,
			"anim_active": false,
			"speed": 0,
			"knife_glow": false,
			"glow_color": "",
			"show_knives": false,
			"knife_size_px": 40,
			"knife_tr": "tr.png",
			"knife_nc": " ",
			"knife_vs": "vs.png",
			"custom_path": [[0, -10], [10], "x", [10, 0, 99], ["a", 5]],
			"width": 300,
			"height": 0,
			"knives_per_ring": 0,
			"ring_spacing": 2
		}}`

		calls := 0
		template := catalog.ParseStreakTemplate(gjson.Parse(doc), staticImageSizer{width: 500, height: 60, calls: &calls})

		require.Equal(t, &catalog.StreakTemplate{
			Active:     false,
			BgFilename: ptr("streak.png"),
			X:          50,
			Y:          60,
			TX:         3,
			TY:         -4,
			Scale:      1.5,
			FontSize:   8,
			Color:      "#ff0000",
			Bold:       true,
			AnimActive: false,
			AnimSpeed:  1,
			StreakGlow: false,
			GlowColor:  "#00f2ff",
			ShowKnives: false,
			KnifeSize:  40,
			KnifeTR:    ptr("tr.png"),
			KnifeVS:    ptr("vs.png"),
			CustomPath: []catalog.Point{
				{X: 0, Y: -10},
				{X: 10, Y: 0},
				{X: 0, Y: 5},
			},
			BgWidth:       300,
			BgHeight:      80,
			KnivesPerRing: 1,
			RingSpacing:   4,
		}, template)
		require.Equal(t, 1, calls)
	})

	t.Run("streak glow wins over knife glow", func(t *testing.T) {
		t.Parallel()

		template := catalog.ParseStreakTemplate(gjson.Parse(`{"streak":{"streak_glow":true,"knife_glow":false,"knife_size":12,"knife_size_px":50}}`), nil)
		require.True(t, template.StreakGlow)
		require.InDelta(t, 12, template.KnifeSize, 1e-9)
	})

	t.Run("size is not inferred when both are configured", func(t *testing.T) {
		t.Parallel()

		calls := 0
		template := catalog.ParseStreakTemplate(
			gjson.Parse(`{"streak":{"img":"streak.png","width":100,"height":120}}`),
			staticImageSizer{width: 500, height: 500, calls: &calls},
		)
		require.Equal(t, 0, calls)
		require.InDelta(t, 100, template.BgWidth, 1e-9)
		require.InDelta(t, 120, template.BgHeight, 1e-9)
	})

	t.Run("size is inferred from the image asset", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		imagesDir := filepath.Join(dir, "Images")
		require.NoError(t, os.MkdirAll(imagesDir, 0o755))

		file, err := os.Create(filepath.Join(imagesDir, "streak.png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(file, image.NewRGBA(image.Rect(0, 0, 320, 200))))
		require.NoError(t, file.Close())

		roots := catalog.NewAssetRoots(dir)
		template := catalog.ParseStreakTemplate(gjson.Parse(`{"streak":{"img":"/streak.png"}}`), roots)
		require.InDelta(t, 320, template.BgWidth, 1e-9)
		require.InDelta(t, 200, template.BgHeight, 1e-9)
	})
}
