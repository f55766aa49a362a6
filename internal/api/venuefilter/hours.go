package venuefilter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay
)

// HoursCheck is the outcome of an opening-hours lookup. Without reliable data
// Open is true: a venue is never excluded for lack of information.
type HoursCheck struct {
	Open       bool       `json:"open"`
	Confidence Confidence `json:"confidence"`
}

// Definite reports whether the check is trustworthy enough to act on.
func (h HoursCheck) Definite() bool {
	return h.Confidence == ConfidenceHigh || h.Confidence == ConfidenceMedium
}

// IsOpenAt evaluates the venue's hours at t, read as wall time in loc.
func IsOpenAt(v types.Venue, t time.Time, loc *time.Location) HoursCheck {
	if loc != nil {
		t = t.In(loc)
	}
	hours := v.OpeningHours
	if hours == nil || (len(hours.Periods) == 0 && len(hours.WeekdayText) == 0) {
		return HoursCheck{Open: true, Confidence: ConfidenceUnknown}
	}
	now := int(t.Weekday())*minutesPerDay + t.Hour()*60 + t.Minute()

	if len(hours.Periods) > 0 {
		for _, p := range hours.Periods {
			if p.Close == nil {
				return HoursCheck{Open: true, Confidence: ConfidenceHigh}
			}
			start := weekMinute(p.Open)
			end := weekMinute(*p.Close)
			if end <= start && p.Close.Day == p.Open.Day {
				// close-hour before open-hour on the same day closes after midnight
				end += minutesPerDay
			}
			if end <= start {
				end += minutesPerWeek
			}
			if within(now, start, end) {
				return HoursCheck{Open: true, Confidence: ConfidenceHigh}
			}
		}
		return HoursCheck{Open: false, Confidence: ConfidenceHigh}
	}

	spans, ok := parseWeekdayText(hours.WeekdayText)
	if !ok {
		return HoursCheck{Open: true, Confidence: ConfidenceLow}
	}
	for _, s := range spans {
		if within(now, s.start, s.end) {
			return HoursCheck{Open: true, Confidence: ConfidenceMedium}
		}
	}
	return HoursCheck{Open: false, Confidence: ConfidenceMedium}
}

func weekMinute(d types.DayTime) int {
	return d.Day*minutesPerDay + d.Hour*60 + d.Minute
}

// within handles spans that wrap past the end of the week.
func within(now, start, end int) bool {
	return (now >= start && now < end) || (now+minutesPerWeek >= start && now+minutesPerWeek < end)
}

type span struct {
	start, end int
}

var weekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4, "friday": 5, "saturday": 6,
}

var reClockText = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// parseWeekdayText reads lines like "Monday: 9:00 AM – 5:00 PM, 6:00 – 11:00 PM".
// It fails unless every line parses.
func parseWeekdayText(lines []string) ([]span, bool) {
	var spans []span
	for _, line := range lines {
		line = strings.NewReplacer("\u202f", " ", "\u00a0", " ", "\u2009", " ").Replace(line)
		name, rest, found := strings.Cut(line, ":")
		if !found {
			return nil, false
		}
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, false
		}
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(rest) {
		case "closed":
			continue
		case "open 24 hours":
			spans = append(spans, span{day * minutesPerDay, (day + 1) * minutesPerDay})
			continue
		}
		for _, part := range strings.Split(rest, ",") {
			from, to, ok := parseRangeText(part)
			if !ok {
				return nil, false
			}
			if to <= from {
				to += minutesPerDay
			}
			spans = append(spans, span{day*minutesPerDay + from, day*minutesPerDay + to})
		}
	}
	return spans, len(lines) > 0
}

func parseRangeText(text string) (int, int, bool) {
	text = strings.NewReplacer("\u2013", "-", "\u2014", "-", " to ", "-").Replace(text)
	a, b, found := strings.Cut(text, "-")
	if !found {
		return 0, 0, false
	}
	fromH, fromM, fromMer, ok := parseClockText(a)
	if !ok {
		return 0, 0, false
	}
	toH, toM, toMer, ok := parseClockText(b)
	if !ok {
		return 0, 0, false
	}
	// "6:00 – 11:00 PM": the start borrows the end's meridiem when that keeps it earlier
	if fromMer == "" && toMer != "" {
		if withMeridiem(fromH, toMer)*60+fromM <= withMeridiem(toH, toMer)*60+toM {
			fromMer = toMer
		}
	}
	from := withMeridiem(fromH, fromMer)*60 + fromM
	to := withMeridiem(toH, toMer)*60 + toM
	return from, to, true
}

func parseClockText(s string) (hour, minute int, meridiem string, ok bool) {
	m := reClockText.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, "", false
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return 0, 0, "", false
	}
	return hour, minute, strings.ToLower(m[3]), true
}

func withMeridiem(h int, mer string) int {
	switch {
	case mer == "pm" && h < 12:
		return h + 12
	case mer == "am" && h == 12:
		return 0
	default:
		return h
	}
}
