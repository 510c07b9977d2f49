// Package overlay turns named overlay events into the effect requests sent to
// presentation clients.
package overlay

import (
	"strings"
	"time"

	"github.com/Amund211/censusoverlay/internal/catalog"
	"github.com/Amund211/censusoverlay/internal/domain"
)

const (
	fallbackEventDurationMS = 1800
	fallbackEventX          = 640
	fallbackEventY          = 220
	fallbackEventWidth      = 360
	fallbackEventHeight     = 140

	fallbackHitmarkerX = 640
	fallbackHitmarkerY = 360
)

// Chooser picks an index in [0, n) for n > 1
type Chooser func(n int) int

// ChooseByClock spreads picks using the sub-second part of the wall clock
func ChooseByClock(n int) int {
	return time.Now().Nanosecond() % n
}

type Presenter struct {
	events *catalog.EventCatalog
	streak *catalog.StreakTemplate
	choose Chooser
}

func NewPresenter(events *catalog.EventCatalog, streak *catalog.StreakTemplate, choose Chooser) *Presenter {
	if choose == nil {
		choose = ChooseByClock
	}
	return &Presenter{
		events: events,
		streak: streak,
		choose: choose,
	}
}

func (p *Presenter) pick(options []string) *string {
	switch len(options) {
	case 0:
		return nil
	case 1:
		return &options[0]
	default:
		choice := options[p.choose(len(options))]
		return &choice
	}
}

func (p *Presenter) templated(name string, template catalog.EventTemplate) domain.TemplatedEffect {
	return domain.TemplatedEffect{
		EventName:     name,
		EventType:     strings.ToLower(name),
		Duration:      template.DurationMS,
		Centered:      false,
		X:             template.X,
		Y:             template.Y,
		Scale:         template.Scale,
		Filename:      p.pick(template.Images),
		SoundFilename: p.pick(template.Sounds),
		SoundVolume:   template.SoundVolume,
		PlayDuplicate: template.PlayDuplicate,
		Impact:        template.Impact,
	}
}

// Event is the effect request for a named overlay event
func (p *Presenter) Event(name string) domain.Envelope {
	if template, ok := p.events.Template(name); ok {
		return domain.Envelope{Category: domain.CategoryEvent, Data: p.templated(name, template)}
	}

	return domain.Envelope{
		Category: domain.CategoryEvent,
		Data: domain.FallbackEffect{
			EventName: name,
			EventType: strings.ToLower(name),
			Duration:  fallbackEventDurationMS,
			Centered:  true,
			X:         fallbackEventX,
			Y:         fallbackEventY,
			Width:     fallbackEventWidth,
			Height:    fallbackEventHeight,
			Impact:    catalog.DefaultImpact(name),
		},
	}
}

// SubsetEvent emits specific when it has its own art or sound, and parent otherwise
func (p *Presenter) SubsetEvent(parent, specific string) domain.Envelope {
	if p.events.HasSpecificConfig(specific) {
		return p.Event(specific)
	}
	return p.Event(parent)
}

func (p *Presenter) Hitmarker(headshot bool) domain.Envelope {
	name := "Hitmarker"
	if headshot {
		name = "Headshot Hitmarker"
	}

	if template, ok := p.events.Template(name); ok {
		return domain.Envelope{Category: domain.CategoryHitmarker, Data: p.templated(name, template)}
	}

	duration, size := uint64(120), 140
	if headshot {
		duration, size = 170, 180
	}
	return domain.Envelope{
		Category: domain.CategoryHitmarker,
		Data: domain.FallbackEffect{
			EventName: name,
			EventType: strings.ToLower(name),
			Duration:  duration,
			Centered:  true,
			X:         fallbackHitmarkerX,
			Y:         fallbackHitmarkerY,
			Width:     size,
			Height:    size,
			Impact:    headshot,
		},
	}
}

func VoiceTrigger(trigger string, now time.Time) domain.Envelope {
	return domain.Envelope{
		Category: domain.CategoryVoiceTrigger,
		Data: domain.VoiceTrigger{
			Trigger: trigger,
			At:      now.UTC().Format(time.RFC3339Nano),
		},
	}
}
