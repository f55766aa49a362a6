package city

import (
	"strings"

	"github.com/FACorreiaa/go-day-planner/internal/textmatch"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type Precision string

const (
	PrecisionArea     Precision = "area"
	PrecisionCenter   Precision = "center"
	PrecisionPrevious Precision = "previous"
)

// ResolvedLocation is where a search should be biased towards.
type ResolvedLocation struct {
	Name        string            `json:"name"`
	Coordinates types.Coordinates `json:"coordinates"`
	Precision   Precision         `json:"precision"`
}

var nearbyPhrases = []string{
	"nearby",
	"near by",
	"close by",
	"near there",
	"near here",
	"around here",
	"around there",
	"same area",
	"around the corner",
	"next door",
	"in the area",
	"walking distance",
}

// IsNearbyReference reports whether text points at "wherever the previous stop was".
func IsNearbyReference(text string) bool {
	t := strings.ToLower(text)
	for _, p := range nearbyPhrases {
		if textmatch.ContainsWord(t, p) {
			return true
		}
	}
	return false
}

// MatchArea returns the first gazetteer area whose name or alias occurs in text.
func MatchArea(text string, city *types.CityConfig) (*types.NamedArea, bool) {
	if city == nil || strings.TrimSpace(text) == "" {
		return nil, false
	}
	t := strings.ToLower(text)
	for i := range city.Areas {
		area := &city.Areas[i]
		if textmatch.ContainsWord(t, strings.ToLower(area.Name)) {
			return area, true
		}
		for _, alias := range area.Aliases {
			if textmatch.ContainsWord(t, strings.ToLower(alias)) {
				return area, true
			}
		}
	}
	return nil, false
}

// ResolveLocationReference maps free text to gazetteer coordinates, falling back
// to the city center. It returns nil only when city is nil.
func ResolveLocationReference(text string, city *types.CityConfig) *ResolvedLocation {
	if city == nil {
		return nil
	}
	if area, ok := MatchArea(text, city); ok {
		return &ResolvedLocation{Name: area.Name, Coordinates: area.Coordinates, Precision: PrecisionArea}
	}
	return &ResolvedLocation{Name: city.Name, Coordinates: city.Center, Precision: PrecisionCenter}
}

// ResolveWithPrevious is ResolveLocationReference with "nearby" bound to previous.
func ResolveWithPrevious(text string, city *types.CityConfig, previous *ResolvedLocation) *ResolvedLocation {
	if previous != nil && IsNearbyReference(text) {
		if _, explicit := MatchArea(text, city); !explicit {
			return &ResolvedLocation{Name: previous.Name, Coordinates: previous.Coordinates, Precision: PrecisionPrevious}
		}
	}
	return ResolveLocationReference(text, city)
}

// IsKnownLocation is true for gazetteer areas and nearby phrases.
func IsKnownLocation(text string, city *types.CityConfig) bool {
	if IsNearbyReference(text) {
		return true
	}
	_, ok := MatchArea(text, city)
	return ok
}

// NearestArea returns the named area closest to c, or nil for a city without areas.
func NearestArea(c types.Coordinates, city *types.CityConfig) *types.NamedArea {
	if city == nil {
		return nil
	}
	var best *types.NamedArea
	bestKm := 0.0
	for i := range city.Areas {
		d := DistanceKm(c, city.Areas[i].Coordinates)
		if best == nil || d < bestKm {
			best, bestKm = &city.Areas[i], d
		}
	}
	return best
}
