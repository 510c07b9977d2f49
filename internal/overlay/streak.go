package overlay

import (
	"math"
	"strings"

	"github.com/Amund211/censusoverlay/internal/catalog"
	"github.com/Amund211/censusoverlay/internal/domain"
)

const (
	minBadgeSize    = 80
	minFontSize     = 8
	ringGrowth      = 0.28
	ringInset       = 15
	ringLift        = -20
	ringBottomPinch = 0.15
)

// StreakHistory is the faction and ring slot of every kill in the current streak
type StreakHistory struct {
	Factions []string
	Slots    []uint32
}

func (p *Presenter) Streak(count uint32, visible bool, history StreakHistory) domain.Envelope {
	tmpl := p.streak
	if !visible || !tmpl.Active {
		return domain.Envelope{Category: domain.CategoryStreak, Data: domain.StreakDisplay{Visible: false}}
	}

	var knives []domain.KnifeIcon
	if tmpl.ShowKnives && count > 0 {
		knives = LayoutKnives(tmpl, history)
	}

	bgFilename := ""
	if tmpl.BgFilename != nil {
		bgFilename = *tmpl.BgFilename
	}

	return domain.Envelope{
		Category: domain.CategoryStreak,
		Data: domain.StreakDisplay{
			Visible:    true,
			BgFilename: bgFilename,
			BgWidth:    max(int64(math.Round(tmpl.BgWidth*tmpl.Scale)), minBadgeSize),
			BgHeight:   max(int64(math.Round(tmpl.BgHeight*tmpl.Scale)), minBadgeSize),
			X:          tmpl.X,
			Y:          tmpl.Y,
			Scale:      1.0,
			Count:      max(count, 1),
			TX:         tmpl.TX,
			TY:         tmpl.TY,
			FontSize:   max(tmpl.FontSize*tmpl.Scale, minFontSize),
			Color:      tmpl.Color,
			Bold:       tmpl.Bold,
			AnimActive: tmpl.AnimActive,
			AnimSpeed:  tmpl.AnimSpeed,
			StreakGlow: tmpl.StreakGlow,
			GlowColor:  tmpl.GlowColor,
			Knives:     knives,
		},
	}
}

type pathSegment struct {
	from   catalog.Point
	to     catalog.Point
	length float64
	offset float64
}

// closedPath treats the points as a polygon and measures every edge
func closedPath(points []catalog.Point) ([]pathSegment, float64) {
	segments := make([]pathSegment, 0, len(points))
	total := 0.0
	for i, from := range points {
		to := points[(i+1)%len(points)]
		length := math.Hypot(to.X-from.X, to.Y-from.Y)
		segments = append(segments, pathSegment{from: from, to: to, length: length, offset: total})
		total += length
	}
	return segments, total
}

func pointAlong(segments []pathSegment, target float64) catalog.Point {
	for _, segment := range segments {
		if segment.length <= 0 {
			continue
		}
		if target >= segment.offset && target <= segment.offset+segment.length {
			t := (target - segment.offset) / segment.length
			return catalog.Point{
				X: segment.from.X + t*(segment.to.X-segment.from.X),
				Y: segment.from.Y + t*(segment.to.Y-segment.from.Y),
			}
		}
	}
	return catalog.Point{}
}

// LayoutKnives places one knife per streak kill, either on growing ellipses around
// the badge or along the configured custom path.
func LayoutKnives(tmpl *catalog.StreakTemplate, history StreakHistory) []domain.KnifeIcon {
	entries := min(len(history.Factions), len(history.Slots))
	knives := make([]domain.KnifeIcon, 0, entries)
	if entries == 0 {
		return knives
	}

	bgWidth := max(tmpl.BgWidth*tmpl.Scale, minBadgeSize)
	bgHeight := max(tmpl.BgHeight*tmpl.Scale, minBadgeSize)
	perRing := float64(max(tmpl.KnivesPerRing, 1))

	var segments []pathSegment
	var pathLength float64
	customPath := len(tmpl.CustomPath) > 2
	if customPath {
		segments, pathLength = closedPath(tmpl.CustomPath)
	}

	for i := range entries {
		faction := history.Factions[i]
		filename, ok := knifeFilename(tmpl, faction)
		if !ok {
			continue
		}

		slot := float64(history.Slots[i])
		ring := math.Floor(slot / perRing)
		pos := math.Mod(slot, perRing)
		ringScale := 1 + ring*ringGrowth

		var x, y, rotation float64
		switch {
		case customPath && pathLength > 0:
			point := pointAlong(segments, pos/perRing*pathLength)
			x = point.X * ringScale
			y = point.Y * ringScale
			rotation = math.Atan2(y, x)*180/math.Pi + 90
		case customPath:
			// Degenerate path, every knife sits at the badge center
		default:
			angle := pos*(360/perRing) - 90
			rad := angle * math.Pi / 180
			sin, cos := math.Sincos(rad)
			narrow := 1.0
			if sin > 0 {
				narrow = 1 - ringBottomPinch*sin
			}
			radiusX := (bgWidth/2 - ringInset + ring*tmpl.RingSpacing) * narrow
			radiusY := bgHeight/2 - ringInset + ring*tmpl.RingSpacing
			x = radiusX * cos
			y = ringLift + radiusY*sin
			rotation = angle + 90
		}

		knives = append(knives, domain.KnifeIcon{
			Filename: filename,
			XOff:     x,
			YOff:     y,
			Rotation: rotation,
			Size:     tmpl.KnifeSize,
			Faction:  faction,
		})
	}
	return knives
}

func knifeFilename(tmpl *catalog.StreakTemplate, faction string) (string, bool) {
	var specific *string
	switch strings.ToUpper(faction) {
	case "TR":
		specific = tmpl.KnifeTR
	case "NC":
		specific = tmpl.KnifeNC
	case "VS":
		specific = tmpl.KnifeVS
	case "NSO":
		specific = tmpl.KnifeNSO
	}

	for _, candidate := range []*string{specific, tmpl.KnifeTR, tmpl.KnifeNC, tmpl.KnifeVS, tmpl.KnifeNSO} {
		if candidate != nil {
			return *candidate, true
		}
	}
	return "", false
}
