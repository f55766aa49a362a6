package timeparser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FACorreiaa/go-day-planner/internal/textmatch"
)

const (
	ClockLayout   = "15:04"
	DateLayout    = "2006-01-02"
	DisplayLayout = "3:04 PM"
)

var ErrNoTime = errors.New("no time expression found")

// Result is a normalized clock time. Ambiguous is set when the meridiem was guessed.
type Result struct {
	Clock     string
	Ambiguous bool
	Matched   string
	Rule      string
}

var (
	reClock    = regexp.MustCompile(`(?i)\b([01]?\d|2[0-3])([:.])([0-5]\d)\s*(a\.?m\.?|p\.?m\.?)?`)
	reMeridiem = regexp.MustCompile(`(?i)\b(1[0-2]|0?[1-9])\s*(a\.?m\.?|p\.?m\.?)(?:\W|$)`)
	reBareHour = regexp.MustCompile(`(?i)(?:\b(?:at|around|about|approx(?:imately)?|by|from|til|until)\s+|~\s*|^\s*)(\d{1,2})(?:\s*-?\s*ish)?\b`)
	reRange    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*(?:-|–|to|until|till)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	reNotHour  = regexp.MustCompile(`(?i)^\s*(?:km|kms|mi|miles?|min|mins|minutes?|hours?|hrs?|people|persons?|guests?|stars?|%|/|\.\d)`)
)

type period struct {
	word  string
	clock string
}

// Named periods are checked in order; word boundaries keep "noon" out of "afternoon".
var periods = []period{
	{"midnight", "00:00"},
	{"midday", "12:00"},
	{"noon", "12:00"},
	{"lunchtime", "12:00"},
	{"breakfast time", "08:00"},
	{"morning", "09:00"},
	{"afternoon", "14:00"},
	{"evening", "18:00"},
	{"tonight", "20:00"},
	{"night", "20:00"},
}

var eveningContext = []string{
	"drink", "drinks", "dinner", "supper", "bar", "bars", "pub", "pubs", "cocktail", "cocktails",
	"evening", "night", "tonight", "club", "gig", "show", "theatre", "theater", "wine",
}

var morningContext = []string{
	"breakfast", "morning", "gym", "run", "jog", "brunch",
}

// Normalize finds the first time expression in text and returns it as "HH:MM".
// Rules in order: "HH:MM", "Xpm", qualified or bare hours, then named periods.
// context is extra text (typically the activity) used to pick AM or PM for bare hours.
func Normalize(text, context string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrNoTime
	}
	hint := strings.ToLower(text + " " + context)

	if m := findClock(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[3])
		res := Result{Matched: m[0], Rule: "clock"}
		switch {
		case m[4] != "":
			h = applyMeridiem(h, m[4])
		case h >= 1 && h <= 11 && hasAny(hint, eveningContext):
			h += 12
			res.Ambiguous = true
		}
		res.Clock = formatClock(h, mins)
		return res, nil
	}

	if m := reMeridiem.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		return Result{Clock: formatClock(applyMeridiem(h, m[2]), 0), Matched: strings.TrimSpace(m[0]), Rule: "meridiem"}, nil
	}

	for _, loc := range reBareHour.FindAllStringSubmatchIndex(text, -1) {
		rest := text[loc[1]:]
		if reNotHour.MatchString(rest) {
			continue
		}
		// an unqualified leading number followed by a word is an address or a count, not an hour
		if strings.TrimSpace(text[loc[0]:loc[2]]) == "" && startsWithWord(rest) {
			continue
		}
		h, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || h > 23 {
			continue
		}
		res := Result{Matched: strings.TrimSpace(text[loc[0]:loc[1]]), Rule: "bare_hour"}
		if h == 0 || h > 12 {
			res.Clock = formatClock(h, 0)
			return res, nil
		}
		res.Ambiguous = true
		res.Clock = formatClock(guessMeridiem(h, hint), 0)
		return res, nil
	}

	// Periods only anchor when no hour was given; "at 7 tonight" is 19:00, not 20:00.
	lower := strings.ToLower(text)
	for _, p := range periods {
		if textmatch.ContainsWord(lower, p.word) {
			return Result{Clock: p.clock, Matched: p.word, Rule: "period"}, nil
		}
	}

	return Result{}, ErrNoTime
}

// NormalizeTime is Normalize without context, returning only the clock.
func NormalizeTime(text string) (string, error) {
	r, err := Normalize(text, "")
	if err != nil {
		return "", err
	}
	return r.Clock, nil
}

// ParseRange finds "2-4pm", "from 10am to 1pm" style spans.
// A start without am/pm borrows the end's when that keeps start before end.
func ParseRange(text, context string) (start, end Result, ok bool) {
	m := reRange.FindStringSubmatch(text)
	if m == nil {
		return Result{}, Result{}, false
	}
	sh, _ := strconv.Atoi(m[1])
	eh, _ := strconv.Atoi(m[4])
	sm, em := atoiOr(m[2]), atoiOr(m[5])
	if sh > 23 || eh > 23 || sm > 59 || em > 59 {
		return Result{}, Result{}, false
	}
	startMer, endMer := m[3], m[6]
	if startMer == "" && endMer != "" && sh <= 12 {
		candidate := applyMeridiem(sh, endMer)
		if candidate*60+sm <= applyMeridiem(eh, endMer)*60+em {
			startMer = endMer
		}
	}
	hint := strings.ToLower(text + " " + context)
	resolve := func(h, mins int, mer string) Result {
		switch {
		case mer != "":
			return Result{Clock: formatClock(applyMeridiem(h, mer), mins), Rule: "range"}
		case h == 0 || h > 12:
			return Result{Clock: formatClock(h, mins), Rule: "range"}
		default:
			return Result{Clock: formatClock(guessMeridiem(h, hint), mins), Ambiguous: true, Rule: "range"}
		}
	}
	start, end = resolve(sh, sm, startMer), resolve(eh, em, endMer)
	start.Matched, end.Matched = m[0], m[0]
	if ClockMinutesOrZero(end.Clock) <= ClockMinutesOrZero(start.Clock) {
		return Result{}, Result{}, false
	}
	return start, end, true
}

// findClock returns the first "H:MM" or "H.MM" match. Dotted forms are
// skipped when they read as prices, dates or measurements.
func findClock(text string) []string {
	for _, loc := range reClock.FindAllStringSubmatchIndex(text, -1) {
		if text[loc[4]:loc[5]] == "." {
			if prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]]); strings.ContainsRune("£$€.,", prev) {
				continue
			}
			rest := text[loc[1]:]
			if strings.HasPrefix(rest, ".") || reNotHour.MatchString(rest) {
				continue
			}
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		return m
	}
	return nil
}

func startsWithWord(rest string) bool {
	rest = strings.ToLower(strings.TrimLeft(rest, " \t"))
	if rest == "" || strings.HasPrefix(rest, "o'clock") || strings.HasPrefix(rest, "oclock") {
		return false
	}
	c := rest[0]
	return c >= 'a' && c <= 'z'
}

func guessMeridiem(h int, hint string) int {
	switch {
	case hasAny(hint, eveningContext):
		if h < 12 {
			return h + 12
		}
		return h
	case hasAny(hint, morningContext):
		return h
	case h >= 1 && h <= 7:
		return h + 12
	default:
		return h
	}
}

func applyMeridiem(h int, mer string) int {
	pm := strings.HasPrefix(strings.ToLower(mer), "p")
	switch {
	case pm && h < 12:
		return h + 12
	case !pm && h == 12:
		return 0
	default:
		return h
	}
}

func formatClock(h, m int) string {
	return fmt.Sprintf("%02d:%02d", h, m)
}

func atoiOr(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ClockMinutes converts "HH:MM" into minutes after midnight.
func ClockMinutes(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func ClockMinutesOrZero(clock string) int {
	m, err := ClockMinutes(clock)
	if err != nil {
		return 0
	}
	return m
}

// MinutesToClock renders minutes after midnight, wrapping past 24h.
func MinutesToClock(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	return formatClock(minutes/60, minutes%60)
}

// ToZonedTimestamp interprets clock as wall time on date in loc.
func ToZonedTimestamp(clock, date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, errors.New("nil location")
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	mins, err := ClockMinutes(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), mins/60, mins%60, 0, 0, loc), nil
}

// FormatClock renders t as "3:00 PM" in loc, independent of the host time zone.
func FormatClock(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayLayout)
}

// Today returns the current date in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}

func hasAny(text string, words []string) bool {
	return textmatch.ContainsAny(text, words)
}
