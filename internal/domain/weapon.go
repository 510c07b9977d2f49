package domain

import "strings"

type WeaponLookup struct {
	EventName   *string
	HSREligible bool
}

const (
	SpitfireKill = "Spitfire Kill"
	MineKill     = "Mine Kill"
	KnifeKill    = "Knife Kill"
	NadeKill     = "Nade Kill"
)

var hsrWeaponCategories = []string{
	"AI MAX (Left)",
	"AI MAX (Right)",
	"Amphibious Rifle",
	"Anti-Materiel Rifle",
	"Assault Rifle",
	"Carbine",
	"Heavy Weapon",
	"Hybrid Rifle",
	"LMG",
	"Pistol",
	"Scout Rifle",
	"Shotgun",
	"SMG",
	"Sniper Rifle",
	"Amphibious Sidearm",
	"Knife",
}

// ClassifyWeaponText picks an event name from the item name and item type
func ClassifyWeaponText(itemName, itemTypeName string) *string {
	name := strings.ToLower(itemName)
	typeName := strings.ToLower(itemTypeName)

	var eventName string
	switch {
	case strings.Contains(name, "spitfire") || strings.Contains(typeName, "spitfire"):
		eventName = SpitfireKill
	case strings.Contains(typeName, "knife") || strings.Contains(name, "knife"):
		eventName = KnifeKill
	case strings.Contains(typeName, "grenade") || strings.Contains(name, "grenade"):
		eventName = NadeKill
	default:
		return nil
	}
	return &eventName
}

// IsHSRWeaponCategory reports whether kills with this item type count towards headshot ratio
func IsHSRWeaponCategory(itemTypeName string) bool {
	trimmed := strings.TrimSpace(itemTypeName)
	for _, category := range hsrWeaponCategories {
		if strings.EqualFold(category, trimmed) {
			return true
		}
	}
	return false
}

func specialWeaponEventName(weaponID string) (string, bool) {
	switch weaponID {
	case "802512", "802514", "802515", "802516", "802517", "802518", "6005426", "6005427", "6009294":
		return SpitfireKill, true
	case "650", "6005961", "6005962", "1045", "1044", "6005422":
		return MineKill, true
	default:
		return "", false
	}
}

// ApplyWeaponOverrides applies the fixed per-item event names on top of a lookup result.
// Knife kills are always eligible for headshot ratio.
func ApplyWeaponOverrides(weaponID string, lookup WeaponLookup) WeaponLookup {
	if name, ok := specialWeaponEventName(weaponID); ok {
		lookup.EventName = &name
	}
	if lookup.EventName != nil && *lookup.EventName == KnifeKill {
		lookup.HSREligible = true
	}
	return lookup
}

// WeaponCacheEntry is what is remembered about an item between lookups.
// EventCached is set once a lookup has run for the item, even if it found no event name.
type WeaponCacheEntry struct {
	EventName   *string
	EventCached bool
	HSREligible *bool
}
