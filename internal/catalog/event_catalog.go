package catalog

import (
	"slices"
	"strings"

	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/Amund211/censusoverlay/internal/strutils"
	"github.com/tidwall/gjson"
)

const (
	defaultGlobalDurationMS = 3000
	minDurationMS           = 60
)

// EventTemplate describes how a named overlay event is presented
type EventTemplate struct {
	Images        []string
	Sounds        []string
	SoundVolume   float64
	DurationMS    uint64
	X             float64
	Y             float64
	Scale         float64
	PlayDuplicate bool
	Impact        bool
}

// EventCatalog is the immutable set of configured event templates
type EventCatalog struct {
	templates          map[string]EventTemplate
	canonicalTemplates map[string]EventTemplate
	names              int
}

func NewEmptyEventCatalog() *EventCatalog {
	return &EventCatalog{
		templates:          map[string]EventTemplate{},
		canonicalTemplates: map[string]EventTemplate{},
	}
}

// ParseEventCatalog reads the `events` section of the overlay config document
func ParseEventCatalog(root gjson.Result) *EventCatalog {
	catalog := NewEmptyEventCatalog()

	globalDuration := uint64(defaultGlobalDurationMS)
	if v, ok := jsonfield.Uint(root.Get("event_global_duration")); ok {
		globalDuration = v
	}
	globalDuration = max(globalDuration, minDurationMS)

	queueActive := true
	if v, ok := jsonfield.Bool(root.Get("event_queue_active")); ok {
		queueActive = v
	}

	events := root.Get("events")
	if !events.IsObject() {
		return catalog
	}

	// Names are visited in sorted order so the canonical key owner does not depend on document order
	entries := events.Map()
	eventNames := make([]string, 0, len(entries))
	for eventName := range entries {
		eventNames = append(eventNames, eventName)
	}
	slices.Sort(eventNames)

	for _, eventName := range eventNames {
		value := entries[eventName]
		if !value.IsObject() {
			continue
		}
		template := parseEventTemplate(eventName, value, globalDuration, queueActive)

		catalog.insert(eventName, template)
		switch {
		case strings.EqualFold(eventName, "Ludicrous Kill"):
			catalog.insert("ludacris kill", template)
		case strings.EqualFold(eventName, "Ludacris Kill"):
			catalog.insert("ludicrous kill", template)
		}
		catalog.names++
	}

	return catalog
}

func parseEventTemplate(eventName string, value gjson.Result, globalDuration uint64, queueActive bool) EventTemplate {
	template := EventTemplate{
		Images:        jsonfield.StringList(value.Get("img")),
		Sounds:        jsonfield.StringList(value.Get("snd")),
		SoundVolume:   1,
		X:             640,
		Y:             220,
		Scale:         1,
		PlayDuplicate: true,
		Impact:        DefaultImpact(eventName),
	}

	if v, ok := jsonfield.Float(value.Get("volume")); ok {
		template.SoundVolume = v
	}
	template.SoundVolume = min(max(template.SoundVolume, 0), 2)

	var specificDuration uint64
	if v, ok := jsonfield.Uint(value.Get("duration")); ok {
		specificDuration = v
	}
	template.DurationMS = max(TemplateDuration(eventName, specificDuration, globalDuration, queueActive), minDurationMS)

	if v, ok := jsonfield.Float(value.Get("x")); ok {
		template.X = v
	}
	if v, ok := jsonfield.Float(value.Get("y")); ok {
		template.Y = v
	}
	if v, ok := jsonfield.Float(value.Get("scale")); ok {
		template.Scale = v
	}
	template.Scale = max(template.Scale, 0.1)

	if v, ok := jsonfield.Bool(value.Get("play_duplicate")); ok {
		template.PlayDuplicate = v
	}
	if v, ok := jsonfield.Bool(value.Get("impact")); ok {
		template.Impact = v
	}

	return template
}

// TemplateDuration picks the display duration in milliseconds.
// A specific duration of 0 means unset.
func TemplateDuration(eventName string, specificDuration, globalDuration uint64, queueActive bool) uint64 {
	lower := strings.ToLower(eventName)
	if lower == "hitmarker" || lower == "headshot hitmarker" {
		if specificDuration > 0 {
			return specificDuration
		}
		if lower == "headshot hitmarker" {
			return 170
		}
		return 120
	}
	if !queueActive || specificDuration == 0 {
		return max(globalDuration, minDurationMS)
	}
	return specificDuration
}

// DefaultImpact is whether an event shakes the overlay when the config does not say
func DefaultImpact(eventName string) bool {
	switch strings.ToLower(eventName) {
	case "headshot", "death":
		return true
	default:
		return false
	}
}

func (c *EventCatalog) insert(eventName string, template EventTemplate) {
	c.templates[strings.ToLower(eventName)] = template
	canonical := strutils.CanonicalKey(eventName)
	if _, ok := c.canonicalTemplates[canonical]; !ok {
		c.canonicalTemplates[canonical] = template
	}
}

// Template looks up a template by exact name, by canonical key and then by known aliases
func (c *EventCatalog) Template(eventName string) (EventTemplate, bool) {
	if template, ok := c.templates[strings.ToLower(eventName)]; ok {
		return template, true
	}
	canonical := strutils.CanonicalKey(eventName)
	if template, ok := c.canonicalTemplates[canonical]; ok {
		return template, true
	}
	for _, alias := range canonicalAliases(canonical) {
		if template, ok := c.canonicalTemplates[alias]; ok {
			return template, true
		}
	}
	return EventTemplate{}, false
}

// HasSpecificConfig reports whether the event has its own images or sounds configured
func (c *EventCatalog) HasSpecificConfig(eventName string) bool {
	template, ok := c.Template(eventName)
	if !ok {
		return false
	}
	return len(template.Images) > 0 || len(template.Sounds) > 0
}

// Len is the number of configured event names
func (c *EventCatalog) Len() int {
	return c.names
}

func canonicalAliases(canonical string) []string {
	switch canonical {
	case "revenge":
		return []string{"revengekill"}
	case "revengekill":
		return []string{"revenge"}
	case "getroadkilled":
		return []string{"roadkillvictim"}
	case "roadkillvictim":
		return []string{"getroadkilled"}
	case "minekill":
		return []string{"tankminekill", "apminekill"}
	case "tankminekill", "apminekill":
		return []string{"minekill"}
	case "revive":
		return []string{"revivetaken", "revivegiven"}
	case "revivetaken", "revivegiven":
		return []string{"revive"}
	case "killmax":
		return []string{"maxkill"}
	case "maxkill":
		return []string{"killmax"}
	default:
		return nil
	}
}
