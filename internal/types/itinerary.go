package types

import "time"

// Substitution explains why the scheduled venue differs from the first search hit.
type Substitution struct {
	Reason        string `json:"reason"`
	Detail        string `json:"detail,omitempty"`
	ReplacedVenue string `json:"replaced_venue"`
}

type ItineraryEntry struct {
	Position                int           `json:"position"`
	Activity                string        `json:"activity"`
	Category                VenueCategory `json:"category"`
	Venue                   Venue         `json:"venue"`
	ScheduledTime           time.Time     `json:"scheduled_time"`
	DisplayTime             string        `json:"display_time"`
	DurationMinutes         int           `json:"duration_minutes"`
	TravelTimeToNextMinutes *int          `json:"travel_time_to_next_minutes"`
	IsFixed                 bool          `json:"is_fixed"`
	Substitution            *Substitution `json:"substitution,omitempty"`
	Caveats                 []string      `json:"caveats,omitempty"`
	// Nearby entries were searched around the previous stop.
	Nearby                  bool          `json:"-"`
}

// Itinerary is built once per request and never mutated afterwards.
type Itinerary struct {
	ID                     int64            `json:"id"`
	Title                  string           `json:"title"`
	Description            string           `json:"description"`
	Query                  string           `json:"query"`
	Date                   string           `json:"date"`
	CitySlug               string           `json:"city"`
	Timezone               string           `json:"timezone"`
	Entries                []ItineraryEntry `json:"entries"`
	TotalTravelTimeMinutes int              `json:"total_travel_time_minutes"`
	CreatedAt              time.Time        `json:"created_at"`
}

// PlanRequest is the input to plan creation.
type PlanRequest struct {
	Query             string `json:"query" validate:"required,min=3,max=1000"`
	Date              string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime         string `json:"start_time,omitempty" validate:"omitempty,max=32"`
	CitySlug          string `json:"city,omitempty" validate:"omitempty,max=64"`
	TripDurationHours int    `json:"trip_duration_hours,omitempty" validate:"omitempty,min=1,max=24"`
}
