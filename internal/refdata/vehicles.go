package refdata

import (
	"strings"

	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/tidwall/gjson"
)

var excludedVehicles = []string{
	"Infantry",
	"Engineer Turret",
	"Engi Turret",
	"Phalanx",
	"Drop Pod",
	"Spitfire",
	"HIVE",
	"Construction",
}

// VehicleEventMaps maps experience ids to the vehicle they were awarded for
type VehicleEventMaps struct {
	gunnerKill  map[string]string
	vehicleKill map[string]string
	repairIDs   map[string]struct{}
}

func NewEmptyVehicleEventMaps() *VehicleEventMaps {
	return &VehicleEventMaps{
		gunnerKill:  map[string]string{},
		vehicleKill: map[string]string{},
		repairIDs:   map[string]struct{}{},
	}
}

// ParseVehicleEventMaps reads the experience_list of the census experience dump
func ParseVehicleEventMaps(root gjson.Result) *VehicleEventMaps {
	maps := NewEmptyVehicleEventMaps()

	entries := root.Get("experience_list")
	if !entries.IsArray() {
		return maps
	}

	for _, entry := range entries.Array() {
		experienceID, ok := jsonfield.TrimmedStr(entry.Get("experience_id"))
		if !ok {
			continue
		}
		description, ok := jsonfield.TrimmedStr(entry.Get("description"))
		if !ok {
			continue
		}

		if strings.Contains(description, "Repair") {
			maps.repairIDs[experienceID] = struct{}{}
		}

		if strings.Contains(description, "Kill by") &&
			strings.Contains(description, "Gunner") &&
			!strings.HasPrefix(description, "Player Kill by") {
			vehicle, _, found := strings.Cut(description, " Kill by ")
			if vehicle = strings.TrimSpace(vehicle); found && isTrackedVehicle(vehicle) {
				maps.gunnerKill[experienceID] = vehicle
			}
		} else if vehicle, found := strings.CutPrefix(description, "Vehicle Destruction - "); found {
			if vehicle = strings.TrimSpace(vehicle); isTrackedVehicle(vehicle) {
				maps.vehicleKill[experienceID] = vehicle
			}
		}
	}

	return maps
}

func isTrackedVehicle(vehicle string) bool {
	if vehicle == "" {
		return false
	}
	for _, excluded := range excludedVehicles {
		if strings.Contains(vehicle, excluded) {
			return false
		}
	}
	return true
}

// GunnerKill returns the vehicle destroyed by the character's gunner
func (m *VehicleEventMaps) GunnerKill(experienceID string) (string, bool) {
	vehicle, ok := m.gunnerKill[experienceID]
	return vehicle, ok
}

func (m *VehicleEventMaps) VehicleKill(experienceID string) (string, bool) {
	vehicle, ok := m.vehicleKill[experienceID]
	return vehicle, ok
}

func (m *VehicleEventMaps) IsRepair(experienceID string) bool {
	_, ok := m.repairIDs[experienceID]
	return ok
}

func (m *VehicleEventMaps) Counts() (gunnerKills int, vehicleKills int, repairs int) {
	return len(m.gunnerKill), len(m.vehicleKill), len(m.repairIDs)
}
