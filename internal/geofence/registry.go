package geofence

import (
	"backend-wearquest/internal/shared/geo"
)

type Category string

const (
	CategoryHome       Category = "home"
	CategoryWork       Category = "work"
	CategoryGym        Category = "gym"
	CategoryOutdoor    Category = "outdoor"
	CategoryRestricted Category = "restricted"
)

type Zone struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	RadiusM  float64  `json:"radius_m"`
	Category Category `json:"category"`
}

// Registry holds the configured zones. It is built once at startup and
// read-only afterwards, so concurrent reads need no locking.
type Registry struct {
	zones []Zone
}

func NewRegistry(zones []Zone) *Registry {
	return &Registry{zones: zones}
}

// DefaultZones is the zone set used when no deployment-specific
// configuration is supplied.
func DefaultZones() []Zone {
	return []Zone{
		{ID: "zone-home", Name: "Home", Lat: -6.2001, Lng: 106.8166, RadiusM: 150, Category: CategoryHome},
		{ID: "zone-work", Name: "Office", Lat: -6.2250, Lng: 106.8000, RadiusM: 200, Category: CategoryWork},
		{ID: "zone-gym", Name: "Gym", Lat: -6.2150, Lng: 106.8300, RadiusM: 100, Category: CategoryGym},
		{ID: "zone-park", Name: "City Park", Lat: -6.1850, Lng: 106.8270, RadiusM: 500, Category: CategoryOutdoor},
		{ID: "zone-restricted", Name: "Restricted Area", Lat: -6.1200, Lng: 106.6500, RadiusM: 1000, Category: CategoryRestricted},
	}
}

func (r *Registry) Zones() []Zone {
	out := make([]Zone, len(r.zones))
	copy(out, r.zones)
	return out
}

// Contains reports whether the point lies within the zone's radius.
func Contains(z Zone, lat, lng float64) bool {
	return geo.HaversineM(z.Lat, z.Lng, lat, lng) <= z.RadiusM
}

// Classify returns every zone containing the point. A point may match
// zero or more zones.
func (r *Registry) Classify(lat, lng float64) []Zone {
	var matches []Zone
	for _, z := range r.zones {
		if Contains(z, lat, lng) {
			matches = append(matches, z)
		}
	}
	return matches
}

// InRestricted reports whether the point lies inside any restricted zone.
func (r *Registry) InRestricted(lat, lng float64) bool {
	for _, z := range r.zones {
		if z.Category == CategoryRestricted && Contains(z, lat, lng) {
			return true
		}
	}
	return false
}
