package types

import "github.com/google/uuid"

// DayTime is a point in the week. Day follows time.Weekday (0 = Sunday).
type DayTime struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// OpeningPeriod is one open span. A nil Close means open around the clock.
type OpeningPeriod struct {
	Open  DayTime  `json:"open"`
	Close *DayTime `json:"close,omitempty"`
}

type OpeningHours struct {
	Periods     []OpeningPeriod `json:"periods,omitempty"`
	WeekdayText []string        `json:"weekday_text,omitempty"`
}

type Venue struct {
	ID              uuid.UUID     `json:"id,omitempty"`
	ExternalID      string        `json:"external_id"`
	Name            string        `json:"name"`
	Address         string        `json:"address,omitempty"`
	Coordinates     Coordinates   `json:"coordinates"`
	Categories      []string      `json:"categories,omitempty"`
	Rating          float64       `json:"rating,omitempty"`
	UserRatingCount int           `json:"user_rating_count,omitempty"`
	OpeningHours    *OpeningHours `json:"opening_hours,omitempty"`
	IsOutdoor       bool          `json:"is_outdoor"`
	// IsPlaceholder is set for slots that need no real venue, e.g. a meeting.
	IsPlaceholder bool `json:"is_placeholder,omitempty"`
}

// SearchResult is the outcome of one venue search. Primary is nil when nothing matched.
type SearchResult struct {
	Primary      *Venue      `json:"primary,omitempty"`
	Alternatives []Venue     `json:"alternatives,omitempty"`
	Bias         Coordinates `json:"bias"`
	RadiusMeters float64     `json:"radius_meters"`
	FromCache    bool        `json:"-"`
}
