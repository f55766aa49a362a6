package types

import "time"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether the coordinates were never set.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// NamedArea is a neighbourhood or district inside a city, e.g. "Shoreditch".
type NamedArea struct {
	Name        string      `json:"name"`
	Aliases     []string    `json:"aliases,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// CityConfig is the static gazetteer entry for a supported city.
// Loaded once at startup and shared read-only between requests.
type CityConfig struct {
	Slug     string      `json:"slug"`
	Name     string      `json:"name"`
	Country  string      `json:"country"`
	Timezone string      `json:"timezone"`
	Center   Coordinates `json:"center"`
	// Areas are matched in order, so more specific names come first.
	Areas []NamedArea `json:"areas"`
	// CategoryVocabulary maps a generic category to the terms locals search with.
	CategoryVocabulary map[VenueCategory][]string `json:"-"`
	// AddressAliases are substrings that an in-city formatted address contains.
	AddressAliases []string `json:"-"`
	// TravelEstimates holds door-to-door minutes between named areas.
	TravelEstimates map[string]map[string]int `json:"-"`

	Location *time.Location `json:"-"`
}

// VocabularyTerm returns the preferred local term for a category, falling back to the category itself.
func (c *CityConfig) VocabularyTerm(category VenueCategory) string {
	if c != nil {
		if terms, ok := c.CategoryVocabulary[category]; ok && len(terms) > 0 {
			return terms[0]
		}
	}
	return string(category)
}

// HasTravelEstimates reports whether area-to-area travel times are known for this city.
func (c *CityConfig) HasTravelEstimates() bool {
	return c != nil && len(c.TravelEstimates) > 0
}

// CitySummary is what GET /cities returns.
type CitySummary struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	Timezone string   `json:"timezone"`
	Areas    []string `json:"areas"`
}
