package catalog

import (
	"math"

	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/tidwall/gjson"
)

type Point struct {
	X float64
	Y float64
}

// StreakTemplate is the presentation config of the kill streak badge
type StreakTemplate struct {
	Active        bool
	BgFilename    *string
	X             float64
	Y             float64
	TX            float64
	TY            float64
	Scale         float64
	FontSize      float64
	Color         string
	Bold          bool
	AnimActive    bool
	AnimSpeed     float64
	StreakGlow    bool
	GlowColor     string
	ShowKnives    bool
	KnifeSize     float64
	KnifeTR       *string
	KnifeNC       *string
	KnifeVS       *string
	KnifeNSO      *string
	CustomPath    []Point
	BgWidth       float64
	BgHeight      float64
	KnivesPerRing uint32
	RingSpacing   float64
}

func DefaultStreakTemplate() *StreakTemplate {
	return &StreakTemplate{
		Active:        true,
		X:             120,
		Y:             120,
		Scale:         1,
		FontSize:      28,
		Color:         "#ffffff",
		AnimActive:    true,
		AnimSpeed:     50,
		StreakGlow:    true,
		GlowColor:     "#00f2ff",
		ShowKnives:    true,
		KnifeSize:     90,
		CustomPath:    []Point{},
		BgWidth:       220,
		BgHeight:      220,
		KnivesPerRing: 50,
		RingSpacing:   22,
	}
}

// ImageSizer reports the dimensions of a named image asset
type ImageSizer interface {
	ImageSize(filename string) (float64, float64, bool)
}

// ParseStreakTemplate reads the `streak` section of the overlay config document.
// A missing badge size is taken from the background image when it can be found.
func ParseStreakTemplate(root gjson.Result, images ImageSizer) *StreakTemplate {
	template := DefaultStreakTemplate()
	streak := root.Get("streak")
	if !streak.IsObject() {
		return template
	}

	boolField := func(key string, target *bool) {
		if v, ok := jsonfield.Bool(streak.Get(key)); ok {
			*target = v
		}
	}
	floatField := func(key string, target *float64) {
		if v, ok := jsonfield.Float(streak.Get(key)); ok {
			*target = v
		}
	}
	textField := func(key string) *string {
		v, ok := jsonfield.TrimmedStr(streak.Get(key))
		if !ok {
			return nil
		}
		return &v
	}

	boolField("active", &template.Active)
	template.BgFilename = textField("img")
	floatField("x", &template.X)
	floatField("y", &template.Y)
	floatField("tx", &template.TX)
	floatField("ty", &template.TY)
	floatField("scale", &template.Scale)
	template.Scale = math.Max(template.Scale, 0.1)
	floatField("size", &template.FontSize)
	template.FontSize = math.Max(template.FontSize, 8)
	if color := textField("color"); color != nil {
		template.Color = *color
	}
	boolField("bold", &template.Bold)
	boolField("anim_active", &template.AnimActive)
	floatField("speed", &template.AnimSpeed)
	template.AnimSpeed = math.Max(template.AnimSpeed, 1)

	if v, ok := jsonfield.Bool(streak.Get("streak_glow")); ok {
		template.StreakGlow = v
	} else {
		boolField("knife_glow", &template.StreakGlow)
	}
	if color := textField("glow_color"); color != nil {
		template.GlowColor = *color
	}
	boolField("show_knives", &template.ShowKnives)

	if v, ok := jsonfield.Float(streak.Get("knife_size")); ok {
		template.KnifeSize = v
	} else {
		floatField("knife_size_px", &template.KnifeSize)
	}
	template.KnifeSize = math.Max(template.KnifeSize, 8)

	template.KnifeTR = textField("knife_tr")
	template.KnifeNC = textField("knife_nc")
	template.KnifeVS = textField("knife_vs")
	template.KnifeNSO = textField("knife_nso")
	template.CustomPath = parseCustomPath(streak.Get("custom_path"))

	width, hasWidth := positiveFloat(streak.Get("width"))
	height, hasHeight := positiveFloat(streak.Get("height"))
	if (!hasWidth || !hasHeight) && template.BgFilename != nil && images != nil {
		if imageWidth, imageHeight, ok := images.ImageSize(*template.BgFilename); ok {
			if !hasWidth {
				width, hasWidth = imageWidth, true
			}
			if !hasHeight {
				height, hasHeight = imageHeight, true
			}
		}
	}
	if hasWidth {
		template.BgWidth = width
	}
	if hasHeight {
		template.BgHeight = height
	}
	template.BgWidth = math.Max(template.BgWidth, 80)
	template.BgHeight = math.Max(template.BgHeight, 80)

	if v, ok := jsonfield.Uint(streak.Get("knives_per_ring")); ok && v <= math.MaxUint32 {
		template.KnivesPerRing = uint32(v)
	}
	template.KnivesPerRing = max(template.KnivesPerRing, 1)
	floatField("ring_spacing", &template.RingSpacing)
	template.RingSpacing = math.Max(template.RingSpacing, 4)

	return template
}

func positiveFloat(r gjson.Result) (float64, bool) {
	v, ok := jsonfield.Float(r)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseCustomPath(r gjson.Result) []Point {
	path := []Point{}
	if !r.IsArray() {
		return path
	}
	for _, item := range r.Array() {
		if !item.IsArray() {
			continue
		}
		pair := item.Array()
		if len(pair) < 2 {
			continue
		}
		x, _ := jsonfield.Float(pair[0])
		y, _ := jsonfield.Float(pair[1])
		path = append(path, Point{X: x, Y: y})
	}
	return path
}
