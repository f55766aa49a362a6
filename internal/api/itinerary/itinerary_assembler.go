package itinerary

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	"github.com/FACorreiaa/go-day-planner/internal/api/timeparser"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const (
	defaultStartClock       = "09:00"
	defaultFlexibleMinutes  = 120
	maxOptimizedRun         = 6
	walkingSpeedKmh         = 5.0
	transitSpeedKmh         = 20.0
	transitOverheadMinutes  = 5
	walkingThresholdKm      = 1.5
	lastScheduleableMinutes = 24 * 60
)

// Assembler turns scheduled slots and their venues into an itinerary.
// It is a greedy single pass: no backtracking beyond the short-run route pass.
type Assembler struct {
	flexibleMinutes int
	optimizeRoutes  bool
}

func NewAssembler(flexibleMinutes int, optimizeRoutes bool) *Assembler {
	if flexibleMinutes <= 0 {
		flexibleMinutes = defaultFlexibleMinutes
	}
	return &Assembler{flexibleMinutes: flexibleMinutes, optimizeRoutes: optimizeRoutes}
}

// Schedule assigns a start clock to every slot. Fixed slots keep their time;
// flexible ones follow a cursor that starts at start and moves to the end of each slot.
// Flexible slots that fall outside the trip window or past midnight are dropped.
func (a *Assembler) Schedule(slots []types.ActivitySlot, start string, tripHours int) []types.ScheduledSlot {
	if start == "" {
		start = defaultStartClock
	}
	startMinutes, err := timeparser.ClockMinutes(start)
	if err != nil {
		startMinutes = timeparser.ClockMinutesOrZero(defaultStartClock)
	}
	windowEnd := lastScheduleableMinutes
	if tripHours > 0 && startMinutes+tripHours*60 < windowEnd {
		windowEnd = startMinutes + tripHours*60
	}

	cursor := startMinutes
	out := make([]types.ScheduledSlot, 0, len(slots))
	for _, s := range slots {
		duration := s.DurationMinutes
		if duration <= 0 {
			duration = a.flexibleMinutes
		}
		if s.IsFixed() {
			at, err := timeparser.ClockMinutes(s.Time)
			if err == nil {
				out = append(out, types.ScheduledSlot{Slot: s, Clock: s.Time, DurationMinutes: duration})
				cursor = at + duration
				continue
			}
		}
		if cursor >= windowEnd {
			continue
		}
		out = append(out, types.ScheduledSlot{Slot: s, Clock: timeparser.MinutesToClock(cursor), DurationMinutes: duration})
		cursor += duration
	}
	return out
}

// Assemble orders entries, optionally improves the route, and fills in travel
// times, the title and the description. Entries must already carry their venue.
func (a *Assembler) Assemble(cfg *types.CityConfig, query, date string, entries []types.ItineraryEntry) *types.Itinerary {
	ordered := append([]types.ItineraryEntry(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].ScheduledTime, ordered[j].ScheduledTime
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ordered[i].IsFixed && !ordered[j].IsFixed
	})

	if a.optimizeRoutes && cfg.HasTravelEstimates() {
		ordered = optimizeRoute(ordered, cfg)
	}

	total := 0
	for i := range ordered {
		ordered[i].Position = i + 1
		if i == len(ordered)-1 {
			ordered[i].TravelTimeToNextMinutes = nil
			continue
		}
		m := TravelMinutes(ordered[i].Venue, ordered[i+1].Venue, cfg)
		ordered[i].TravelTimeToNextMinutes = &m
		total += m
	}

	it := &types.Itinerary{
		Title:                  Title(ordered, cfg),
		Description:            describe(ordered, cfg, date),
		Query:                  query,
		Date:                   date,
		Entries:                ordered,
		TotalTravelTimeMinutes: total,
	}
	if cfg != nil {
		it.CitySlug = cfg.Slug
		it.Timezone = cfg.Timezone
	}
	return it
}

// TravelMinutes prefers the city's area matrix and otherwise estimates from
// straight-line distance: walking under 1.5 km, transit above.
func TravelMinutes(from, to types.Venue, cfg *types.CityConfig) int {
	if from.Coordinates.IsZero() || to.Coordinates.IsZero() {
		return 0
	}
	if m, ok := city.TravelEstimateMinutes(from.Coordinates, to.Coordinates, cfg); ok {
		return m
	}
	km := city.DistanceKm(from.Coordinates, to.Coordinates)
	if km < walkingThresholdKm {
		return int(math.Ceil(km / walkingSpeedKmh * 60))
	}
	return int(math.Ceil(km/transitSpeedKmh*60)) + transitOverheadMinutes
}

// optimizeRoute permutes each run of consecutive flexible entries between
// fixed anchors. Slot times stay where they are; only the activities move.
// A nearby entry and the stop it was searched around never move.
func optimizeRoute(entries []types.ItineraryEntry, cfg *types.CityConfig) []types.ItineraryEntry {
	for i := 0; i < len(entries); {
		if pinned(entries, i) {
			i++
			continue
		}
		j := i
		for j < len(entries) && !pinned(entries, j) {
			j++
		}
		if n := j - i; n >= 2 && n <= maxOptimizedRun {
			reorderRun(entries, i, j, cfg)
		}
		i = j
	}
	return entries
}

func pinned(entries []types.ItineraryEntry, i int) bool {
	e := entries[i]
	if e.IsFixed || e.Venue.IsPlaceholder || e.Nearby {
		return true
	}
	return i+1 < len(entries) && entries[i+1].Nearby
}

func reorderRun(entries []types.ItineraryEntry, from, to int, cfg *types.CityConfig) {
	run := append([]types.ItineraryEntry(nil), entries[from:to]...)
	var before, after *types.Venue
	if from > 0 {
		before = &entries[from-1].Venue
	}
	if to < len(entries) {
		after = &entries[to].Venue
	}

	cost := func(perm []int) int {
		total := 0
		if before != nil {
			total += TravelMinutes(*before, run[perm[0]].Venue, cfg)
		}
		for k := 0; k+1 < len(perm); k++ {
			total += TravelMinutes(run[perm[k]].Venue, run[perm[k+1]].Venue, cfg)
		}
		if after != nil {
			total += TravelMinutes(run[perm[len(perm)-1]].Venue, *after, cfg)
		}
		return total
	}

	identity := make([]int, len(run))
	for k := range identity {
		identity[k] = k
	}
	best := append([]int(nil), identity...)
	bestCost := cost(identity)
	permute(identity, 0, func(p []int) {
		if c := cost(p); c < bestCost {
			bestCost = c
			best = append(best[:0], p...)
		}
	})

	for k, idx := range best {
		slot := entries[from+k]
		moved := run[idx]
		moved.ScheduledTime = slot.ScheduledTime
		moved.DisplayTime = slot.DisplayTime
		moved.DurationMinutes = slot.DurationMinutes
		entries[from+k] = moved
	}
}

// permute calls visit with every ordering of p[k:].
func permute(p []int, k int, visit func([]int)) {
	if k == len(p) {
		visit(p)
		return
	}
	for i := k; i < len(p); i++ {
		p[k], p[i] = p[i], p[k]
		permute(p, k+1, visit)
		p[k], p[i] = p[i], p[k]
	}
}

// Title joins the distinct category descriptions in visiting order,
// e.g. "Dining, Coffee & Drinks in London".
func Title(entries []types.ItineraryEntry, cfg *types.CityConfig) string {
	seen := make(map[string]bool)
	var labels []string
	for _, e := range entries {
		d := e.Category.Description()
		if seen[d] {
			continue
		}
		seen[d] = true
		labels = append(labels, d)
	}

	var title string
	switch len(labels) {
	case 0:
		title = "Day Plan"
	case 1:
		title = labels[0]
	default:
		title = strings.Join(labels[:len(labels)-1], ", ") + " & " + labels[len(labels)-1]
	}
	if cfg != nil && cfg.Name != "" {
		title += " in " + cfg.Name
	}
	return title
}

func describe(entries []types.ItineraryEntry, cfg *types.CityConfig, date string) string {
	if len(entries) == 0 {
		return "No stops could be planned."
	}
	day := date
	if d, err := time.Parse(timeparser.DateLayout, date); err == nil {
		day = d.Format("Monday 2 January")
	}
	stops := make([]string, 0, len(entries))
	for _, e := range entries {
		stops = append(stops, fmt.Sprintf("%s at %s", e.Venue.Name, e.DisplayTime))
	}
	where := ""
	if cfg != nil && cfg.Name != "" {
		where = " in " + cfg.Name
	}
	noun := "stops"
	if len(entries) == 1 {
		noun = "stop"
	}
	return fmt.Sprintf("%d %s%s on %s: %s.", len(entries), noun, where, day, strings.Join(stops, ", "))
}
