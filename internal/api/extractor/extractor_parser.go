package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var ErrUnusableResponse = errors.New("llm response contained no usable activities")

type llmActivity struct {
	Activity        string   `json:"activity" validate:"required,max=200"`
	Location        string   `json:"location" validate:"max=120"`
	Time            string   `json:"time" validate:"max=40"`
	StartTime       string   `json:"start_time" validate:"max=40"`
	EndTime         string   `json:"end_time" validate:"max=40"`
	VenueType       string   `json:"venue_type" validate:"max=60"`
	VenuePreference string   `json:"venue_preference" validate:"max=200"`
	Keywords        []string `json:"keywords" validate:"max=10,dive,max=60"`
	MinRating       float64  `json:"min_rating" validate:"gte=0,lte=5"`
	DurationMinutes int      `json:"duration_minutes" validate:"gte=0,lte=720"`
	MentionOrder    int      `json:"mention_order" validate:"gte=0,lte=100"`
}

type llmExtraction struct {
	FixedTimeActivities []llmActivity `json:"fixed_time_activities"`
	TimeBlocks          []llmActivity `json:"time_blocks"`
	FixedAppointments   []llmActivity `json:"fixed_appointments"`
	FlexibleActivities  []llmActivity `json:"flexible_activities"`
}

func (e *llmExtraction) count() int {
	return len(e.FixedTimeActivities) + len(e.TimeBlocks) + len(e.FixedAppointments) + len(e.FlexibleActivities)
}

// parseExtraction decodes the model output and drops items that fail validation.
// It errors when the payload is not JSON or nothing valid remains.
func parseExtraction(raw string, validate *validator.Validate) (*llmExtraction, int, error) {
	cleaned := cleanJSONResponse(raw)
	var out llmExtraction
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, 0, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}

	dropped := 0
	keep := func(items []llmActivity) []llmActivity {
		valid := items[:0]
		for _, item := range items {
			item.Activity = strings.TrimSpace(item.Activity)
			if err := validate.Struct(item); err != nil {
				dropped++
				continue
			}
			valid = append(valid, item)
		}
		return valid
	}
	out.FixedTimeActivities = keep(out.FixedTimeActivities)
	out.TimeBlocks = keep(out.TimeBlocks)
	out.FixedAppointments = keep(out.FixedAppointments)
	out.FlexibleActivities = keep(out.FlexibleActivities)

	if out.count() == 0 {
		return nil, dropped, ErrUnusableResponse
	}
	return &out, dropped, nil
}

func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	// Models sometimes wrap the object in prose.
	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}
	lastBrace := strings.LastIndex(response, "}")
	if lastBrace == -1 || lastBrace <= firstBrace {
		return response
	}
	return strings.TrimSpace(response[firstBrace : lastBrace+1])
}
