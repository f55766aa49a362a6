package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	"github.com/FACorreiaa/go-day-planner/internal/api/timeparser"
	"github.com/FACorreiaa/go-day-planner/internal/textmatch"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type categoryRule struct {
	category types.VenueCategory
	words    []string
}

// categoryRules are evaluated top to bottom; the first rule with a matching word wins.
var categoryRules = []categoryRule{
	{types.CategoryRestaurant, []string{
		"lunch", "dinner", "breakfast", "brunch", "supper", "restaurant", "restaurants", "food", "eat",
		"eating", "meal", "bistro", "pizza", "sushi", "burger", "burgers", "ramen", "tapas", "curry", "steak",
	}},
	{types.CategoryCafe, []string{"coffee", "cafe", "café", "cafes", "espresso", "work", "working", "laptop", "study", "tea"}},
	{types.CategoryBar, []string{"bar", "bars", "drinks", "drink", "cocktail", "cocktails", "pub", "pubs", "beer", "pint", "wine"}},
	{types.CategoryMuseum, []string{"museum", "museums", "gallery", "galleries", "exhibition", "art"}},
	{types.CategoryPark, []string{"park", "parks", "garden", "gardens", "walk", "stroll", "picnic", "hike"}},
	{types.CategoryShopping, []string{"shop", "shops", "shopping", "store", "stores", "boutique", "market", "mall"}},
	{types.CategoryAttraction, []string{"sightseeing", "landmark", "landmarks", "tour", "monument", "viewpoint"}},
	{types.CategorySkip, []string{"meeting", "meetings", "appointment", "call", "interview", "dentist", "doctor"}},
}

// InferCategory maps free text to a venue category using the ordered rule table.
func InferCategory(text string) types.VenueCategory {
	t := strings.ToLower(text)
	for _, rule := range categoryRules {
		if textmatch.ContainsAny(t, rule.words) {
			return rule.category
		}
	}
	return types.CategoryGeneral
}

// resolveCategory prefers an explicit known venue type over inference.
func resolveCategory(venueType string, text ...string) types.VenueCategory {
	if c, ok := types.ParseCategory(venueType); ok && c != types.CategorySkip && c != types.CategoryGeneral {
		return c
	}
	return InferCategory(strings.Join(append([]string{venueType}, text...), " "))
}

var clauseSplitter = regexp.MustCompile(`(?i)\s*(?:[,;]|\band then\b|\bthen\b|\bafter that\b|\bfollowed by\b|\bafterwards\b|\band finally\b|\bfinally\b)\s*`)

var andSplitter = regexp.MustCompile(`(?i)\s+and\s+`)

// splitClauses splits on sequencing words, then on "and" when every part
// carries a category, a time or an area of its own ("fish and chips" stays whole).
func splitClauses(query string, c *types.CityConfig) []string {
	var out []string
	for _, clause := range clauseSplitter.Split(query, -1) {
		parts := andSplitter.Split(clause, -1)
		if len(parts) > 1 && allStandalone(parts, c) {
			out = append(out, parts...)
			continue
		}
		out = append(out, clause)
	}
	return out
}

func allStandalone(parts []string, c *types.CityConfig) bool {
	for _, p := range parts {
		if InferCategory(p) != types.CategoryGeneral {
			continue
		}
		if _, err := timeparser.Normalize(p, ""); err == nil {
			continue
		}
		if _, ok := city.MatchArea(p, c); ok {
			continue
		}
		return false
	}
	return true
}

// keywordSlots is the no-LLM fallback: split the query into clauses and read
// a category, time and area out of each one.
func keywordSlots(req Request) []types.ActivitySlot {
	clauses := splitClauses(req.Query, req.City)
	var slots []types.ActivitySlot
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		slot := types.ActivitySlot{
			Activity: clause,
			Category: InferCategory(clause),
			Order:    len(slots) + 1,
			Source:   types.SourceFlexible,
		}
		if area, ok := city.MatchArea(clause, req.City); ok {
			slot.Location = area.Name
		} else if city.IsNearbyReference(clause) {
			slot.Location = "nearby"
			slot.Nearby = true
		}

		if start, end, ok := timeparser.ParseRange(clause, ""); ok {
			slot.Time, slot.EndTime = start.Clock, end.Clock
			slot.TimeLabel = start.Matched
			slot.TimeAmbiguous = start.Ambiguous
			slot.Source = types.SourceTimeBlock
		} else if res, err := timeparser.Normalize(clause, ""); err == nil {
			slot.Time = res.Clock
			slot.TimeLabel = res.Matched
			slot.TimeAmbiguous = res.Ambiguous
			slot.Source = types.SourceFixedTime
			if slot.Category == types.CategorySkip {
				slot.Source = types.SourceFixedAppointment
			}
		}

		if slot.Category == types.CategoryGeneral && slot.Time == "" && slot.Location == "" {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}

// rawQuerySlot is the last resort: the whole query becomes one slot.
func rawQuerySlot(req Request) types.ActivitySlot {
	slot := types.ActivitySlot{
		Activity: strings.TrimSpace(req.Query),
		Category: InferCategory(req.Query),
		Source:   types.SourceFlexible,
		Order:    1,
	}
	if slot.Category == types.CategorySkip {
		slot.Category = types.CategoryGeneral
	}
	switch {
	case req.StartLocation != "":
		slot.Location = req.StartLocation
	default:
		if area, ok := city.MatchArea(req.Query, req.City); ok {
			slot.Location = area.Name
		}
	}
	if req.StartTime != "" {
		if res, err := timeparser.Normalize(req.StartTime, req.Query); err == nil {
			slot.Time = res.Clock
			slot.TimeLabel = req.StartTime
			slot.Source = types.SourceFixedTime
		}
	}
	return slot
}

// Dedupe collapses slots sharing a location|category|time key. The higher
// SlotSource wins; on a tie the first one seen is kept.
func Dedupe(slots []types.ActivitySlot) []types.ActivitySlot {
	index := make(map[string]int, len(slots))
	out := make([]types.ActivitySlot, 0, len(slots))
	for _, s := range slots {
		key := s.DedupKey()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, s)
			continue
		}
		if s.Source > out[i].Source {
			if out[i].Order < s.Order {
				s.Order = out[i].Order
			}
			out[i] = s
		}
	}
	return out
}

// Order sorts timed slots chronologically and places each untimed slot right
// after the timed slot that precedes it in mention order.
func Order(slots []types.ActivitySlot) []types.ActivitySlot {
	var timed, flexible []types.ActivitySlot
	for _, s := range slots {
		if s.Time != "" {
			timed = append(timed, s)
		} else {
			flexible = append(flexible, s)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		ci, cj := timeparser.ClockMinutesOrZero(timed[i].Time), timeparser.ClockMinutesOrZero(timed[j].Time)
		if ci != cj {
			return ci < cj
		}
		return timed[i].Order < timed[j].Order
	})
	sort.SliceStable(flexible, func(i, j int) bool { return flexible[i].Order < flexible[j].Order })

	leading := []types.ActivitySlot{}
	after := make(map[int][]types.ActivitySlot)
	for _, f := range flexible {
		anchor := -1
		for i, t := range timed {
			if t.Order < f.Order && (anchor < 0 || t.Order > timed[anchor].Order) {
				anchor = i
			}
		}
		if anchor < 0 {
			leading = append(leading, f)
			continue
		}
		after[anchor] = append(after[anchor], f)
	}

	out := make([]types.ActivitySlot, 0, len(slots))
	out = append(out, leading...)
	for i, t := range timed {
		out = append(out, t)
		out = append(out, after[i]...)
	}
	return out
}
