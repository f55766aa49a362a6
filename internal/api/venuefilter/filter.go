package venuefilter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-day-planner/internal/api/timeparser"
	"github.com/FACorreiaa/go-day-planner/internal/api/weather"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const (
	ReasonClosed  = "closed"
	ReasonWeather = "weather"
)

// WeatherChoice is the venue to use after the weather check.
type WeatherChoice struct {
	Venue           types.Venue
	WeatherSuitable bool
	Substituted     bool
	Reason          string
}

// Outcome is the venue a slot should use plus anything the user should know.
type Outcome struct {
	Venue        types.Venue
	Hours        HoursCheck
	Substitution *types.Substitution
	Caveats      []string
}

// Filter applies the opening-hours and weather checks. Both are advisory: a
// failing venue is swapped when a substitute exists and kept with a caveat otherwise.
type Filter struct {
	logger  *slog.Logger
	weather weather.Service
}

func NewFilter(weatherService weather.Service, logger *slog.Logger) *Filter {
	return &Filter{logger: logger, weather: weatherService}
}

// ChooseWeatherAwareVenue only looks at outdoor venues. When the forecast is
// unsuitable the first indoor alternative replaces the primary, or the first
// alternative of any kind when none is indoor.
func (f *Filter) ChooseWeatherAwareVenue(ctx context.Context, primary types.Venue, alternatives []types.Venue, t time.Time) WeatherChoice {
	if !primary.IsOutdoor || primary.IsPlaceholder || f.weather == nil {
		return WeatherChoice{Venue: primary, WeatherSuitable: true}
	}
	assessment, err := f.weather.Assess(ctx, primary.Coordinates, t)
	if err != nil {
		f.logger.WarnContext(ctx, "Weather check failed, assuming acceptable",
			slog.String("venue", primary.Name), slog.Any("error", err))
		return WeatherChoice{Venue: primary, WeatherSuitable: true}
	}
	if assessment.Suitable {
		return WeatherChoice{Venue: primary, WeatherSuitable: true}
	}
	for _, alt := range alternatives {
		if alt.IsOutdoor {
			continue
		}
		return WeatherChoice{Venue: alt, WeatherSuitable: false, Substituted: true, Reason: assessment.Reason}
	}
	if len(alternatives) > 0 {
		return WeatherChoice{Venue: alternatives[0], WeatherSuitable: false, Substituted: true, Reason: assessment.Reason}
	}
	return WeatherChoice{Venue: primary, WeatherSuitable: false, Reason: assessment.Reason}
}

// Apply runs the hours check and then the weather check on a search result.
func (f *Filter) Apply(ctx context.Context, result *types.SearchResult, t time.Time, loc *time.Location) Outcome {
	ctx, span := otel.Tracer("VenueFilter").Start(ctx, "Apply", trace.WithAttributes(
		attribute.String("venue.name", result.Primary.Name),
	))
	defer span.End()

	primary := *result.Primary
	if primary.IsPlaceholder {
		span.SetStatus(codes.Ok, "Placeholder")
		return Outcome{Venue: primary, Hours: HoursCheck{Open: true, Confidence: ConfidenceUnknown}}
	}

	out := Outcome{Venue: primary}
	display := timeparser.FormatClock(t, loc)

	out.Hours = IsOpenAt(primary, t, loc)
	remaining := result.Alternatives
	if out.Hours.Definite() && !out.Hours.Open {
		if i, alt, ok := firstOpen(result.Alternatives, t, loc); ok {
			out.Venue = alt
			out.Hours = IsOpenAt(alt, t, loc)
			out.Substitution = &types.Substitution{Reason: ReasonClosed, Detail: "closed at " + display, ReplacedVenue: primary.Name}
			remaining = without(result.Alternatives, i)
		} else {
			out.Caveats = append(out.Caveats, fmt.Sprintf("%s may be closed at %s", primary.Name, display))
		}
	} else if out.Hours.Confidence == ConfidenceLow {
		out.Caveats = append(out.Caveats, fmt.Sprintf("Opening hours for %s could not be verified", primary.Name))
	}

	openAlternatives := make([]types.Venue, 0, len(remaining))
	for _, alt := range remaining {
		if h := IsOpenAt(alt, t, loc); h.Open || !h.Definite() {
			openAlternatives = append(openAlternatives, alt)
		}
	}
	choice := f.ChooseWeatherAwareVenue(ctx, out.Venue, openAlternatives, t)
	switch {
	case choice.Substituted:
		replaced := out.Venue.Name
		if out.Substitution != nil {
			replaced = out.Substitution.ReplacedVenue
		}
		out.Venue = choice.Venue
		out.Hours = IsOpenAt(choice.Venue, t, loc)
		out.Substitution = &types.Substitution{Reason: ReasonWeather, Detail: choice.Reason, ReplacedVenue: replaced}
	case !choice.WeatherSuitable:
		out.Caveats = append(out.Caveats, fmt.Sprintf("Weather at %s: %s", display, choice.Reason))
	}

	span.SetAttributes(
		attribute.String("hours.confidence", string(out.Hours.Confidence)),
		attribute.Bool("substituted", out.Substitution != nil),
	)
	span.SetStatus(codes.Ok, "Venue filtered")
	return out
}

func firstOpen(venues []types.Venue, t time.Time, loc *time.Location) (int, types.Venue, bool) {
	for i, v := range venues {
		if IsOpenAt(v, t, loc).Open {
			return i, v, true
		}
	}
	return -1, types.Venue{}, false
}

func without(venues []types.Venue, i int) []types.Venue {
	out := make([]types.Venue, 0, len(venues))
	out = append(out, venues[:i]...)
	return append(out, venues[i+1:]...)
}
