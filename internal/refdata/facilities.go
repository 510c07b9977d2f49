package refdata

import (
	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/tidwall/gjson"
)

// FacilityMap maps facility ids to their display name
type FacilityMap struct {
	names map[string]string
}

func NewEmptyFacilityMap() *FacilityMap {
	return &FacilityMap{names: map[string]string{}}
}

// ParseFacilityMap accepts both {"id": {"name": "..."}} and {"id": "..."} entries
func ParseFacilityMap(root gjson.Result) *FacilityMap {
	facilities := NewEmptyFacilityMap()
	if !root.IsObject() {
		return facilities
	}

	root.ForEach(func(key, value gjson.Result) bool {
		name, ok := jsonfield.TrimmedStr(value.Get("name"))
		if !ok {
			name, ok = jsonfield.TrimmedStr(value)
		}
		if ok {
			facilities.names[key.String()] = name
		}
		return true
	})

	return facilities
}

func (f *FacilityMap) Name(facilityID string) (string, bool) {
	name, ok := f.names[facilityID]
	return name, ok
}

func (f *FacilityMap) Len() int {
	return len(f.names)
}
