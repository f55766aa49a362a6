package types

import "strings"

type VenueCategory string

const (
	CategoryRestaurant VenueCategory = "restaurant"
	CategoryCafe       VenueCategory = "cafe"
	CategoryBar        VenueCategory = "bar"
	CategoryMuseum     VenueCategory = "museum"
	CategoryPark       VenueCategory = "park"
	CategoryShopping   VenueCategory = "shopping"
	CategoryAttraction VenueCategory = "attraction"
	CategoryGeneral    VenueCategory = "general"
	// CategorySkip marks activities that need no venue lookup (meetings, appointments).
	CategorySkip VenueCategory = "skip"
)

var categoryDescriptions = map[VenueCategory]string{
	CategoryRestaurant: "Dining",
	CategoryCafe:       "Coffee",
	CategoryBar:        "Drinks",
	CategoryMuseum:     "Culture",
	CategoryPark:       "Outdoors",
	CategoryShopping:   "Shopping",
	CategoryAttraction: "Sightseeing",
	CategoryGeneral:    "Exploring",
	CategorySkip:       "Appointments",
}

// Description is the human label used in itinerary titles.
func (c VenueCategory) Description() string {
	if d, ok := categoryDescriptions[c]; ok {
		return d
	}
	return "Exploring"
}

// ParseCategory maps free text to a known category. ok is false for unknown values.
func ParseCategory(s string) (VenueCategory, bool) {
	c := VenueCategory(strings.ToLower(strings.TrimSpace(s)))
	_, ok := categoryDescriptions[c]
	return c, ok
}

// SlotSource records which extraction bucket produced a slot. Higher values win on dedup collisions.
type SlotSource int

const (
	SourceFlexible SlotSource = iota
	SourceFixedTime
	SourceFixedAppointment
	SourceTimeBlock
)

func (s SlotSource) String() string {
	switch s {
	case SourceTimeBlock:
		return "time_block"
	case SourceFixedAppointment:
		return "fixed_appointment"
	case SourceFixedTime:
		return "fixed_time"
	default:
		return "flexible"
	}
}

// ActivitySlot is one thing the user wants to do. Time is "HH:MM" (24h) or empty.
type ActivitySlot struct {
	Activity        string        `json:"activity"`
	Location        string        `json:"location,omitempty"`
	Time            string        `json:"time,omitempty"`
	EndTime         string        `json:"end_time,omitempty"`
	TimeLabel       string        `json:"time_label,omitempty"`
	TimeAmbiguous   bool          `json:"time_ambiguous,omitempty"`
	Category        VenueCategory `json:"category"`
	VenuePreference string        `json:"venue_preference,omitempty"`
	Keywords        []string      `json:"keywords,omitempty"`
	MinRating       float64       `json:"min_rating,omitempty"`
	DurationMinutes int           `json:"duration_minutes,omitempty"`
	Source          SlotSource    `json:"source"`
	Order           int           `json:"order"`
	Nearby          bool          `json:"nearby,omitempty"`
}

// IsFixed reports whether the user pinned this slot to a time.
func (s ActivitySlot) IsFixed() bool {
	return s.Source != SourceFlexible && s.Time != ""
}

// DedupKey identifies slots that describe the same activity.
func (s ActivitySlot) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(s.Location)) + "|" + string(s.Category) + "|" + s.Time
}

// ScheduledSlot is a slot with an assigned start time and duration.
type ScheduledSlot struct {
	Slot            ActivitySlot
	Clock           string
	DurationMinutes int
}
