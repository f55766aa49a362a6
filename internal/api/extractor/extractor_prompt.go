package extractor

import (
	"fmt"
	"strings"
)

func generateActivityExtractionPrompt(req Request) string {
	areas := make([]string, 0, len(req.City.Areas))
	for _, a := range req.City.Areas {
		areas = append(areas, a.Name)
	}
	startPart := ""
	if req.StartTime != "" {
		startPart = fmt.Sprintf("\n        The day starts at %s local time.", req.StartTime)
	}
	if req.StartLocation != "" {
		startPart += fmt.Sprintf("\n        The user starts from %s.", req.StartLocation)
	}

	return fmt.Sprintf(`
        You are extracting a day plan in %s on %s from this request:
        "%s"%s
        Known neighbourhoods: [%s].
        Split the request into activities and sort each one into exactly one list:
        - fixed_time_activities: the user gave a clock time ("at 3pm", "around 7").
        - time_blocks: the user gave a start and an end ("work from 10-3").
        - fixed_appointments: meetings, calls or appointments that need no venue.
        - flexible_activities: no time given.
        Only use a location the user actually wrote, or "nearby" when they refer to the previous place. Never invent one.
        Copy time expressions as written; do not convert them.
        venue_type must be one of: restaurant, cafe, bar, museum, park, shopping, attraction, general.
        mention_order is the 1-based position of the activity in the request.
        Return the response STRICTLY as a JSON object with:
        {
        "fixed_time_activities": [
            {"activity": "drinks", "location": "Chelsea", "time": "7", "venue_type": "bar", "venue_preference": "cocktail bar", "keywords": ["cocktails"], "min_rating": 4.0, "mention_order": 3}
        ],
        "time_blocks": [
            {"activity": "work", "location": "Shoreditch", "start_time": "10", "end_time": "3", "venue_type": "cafe", "venue_preference": "quiet workspace", "keywords": ["wifi"], "mention_order": 1}
        ],
        "fixed_appointments": [
            {"activity": "client meeting", "location": "", "time": "2pm", "duration_minutes": 60, "mention_order": 2}
        ],
        "flexible_activities": [
            {"activity": "lunch", "location": "Mayfair", "venue_type": "restaurant", "venue_preference": "", "keywords": [], "mention_order": 1}
        ]
        }`, req.City.Name, req.Date, sanitizeQuery(req.Query), startPart, strings.Join(areas, ", "))
}

// sanitizeQuery keeps the request from closing the quoted block in the prompt.
func sanitizeQuery(q string) string {
	q = strings.ReplaceAll(q, `"`, `'`)
	return strings.Join(strings.Fields(q), " ")
}
