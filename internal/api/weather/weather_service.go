package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/internal/cache"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const (
	cacheNamespace = "weather"
	// forecast steps are 3 hours apart; anything further than half a step
	// outside the list is beyond the horizon
	horizonSlack = 90 * time.Minute

	maxPrecipitationProbability = 0.6
	minTemperatureC             = 5.0
	maxTemperatureC             = 35.0
	maxWindSpeedMS              = 12.0
)

var unsuitableConditions = map[string]bool{
	"Rain":         true,
	"Drizzle":      true,
	"Thunderstorm": true,
	"Snow":         true,
}

// Assessment says whether outdoor plans look reasonable at a given time.
// Known is false when the time falls outside the forecast; Suitable is then true.
type Assessment struct {
	Suitable bool
	Known    bool
	Reason   string
	Entry    ForecastEntry
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Assess(ctx context.Context, at types.Coordinates, when time.Time) (Assessment, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	client Client
	cache  cache.Cache[[]ForecastEntry]
}

func NewServiceImpl(client Client, c cache.Cache[[]ForecastEntry], logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, client: client, cache: c}
}

func (s *ServiceImpl) Assess(ctx context.Context, at types.Coordinates, when time.Time) (Assessment, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Assess", trace.WithAttributes(
		attribute.Float64("location.lat", at.Latitude),
		attribute.Float64("location.lon", at.Longitude),
		attribute.String("when", when.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	if s.client == nil {
		span.SetStatus(codes.Ok, "Weather disabled")
		return Assessment{Suitable: true}, nil
	}

	entries, err := s.forecast(ctx, at)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Forecast unavailable")
		return Assessment{Suitable: true}, types.NewServiceError(types.KindWeather, "Assess", err)
	}

	entry, ok := Nearest(entries, when)
	if !ok {
		span.SetStatus(codes.Ok, "Outside forecast horizon")
		return Assessment{Suitable: true}, nil
	}
	a := Judge(entry)
	span.SetAttributes(attribute.Bool("weather.suitable", a.Suitable), attribute.String("weather.condition", entry.Condition))
	span.SetStatus(codes.Ok, "Weather assessed")
	return a, nil
}

// forecast caches per ~1 km grid cell; nearby stops share one upstream call.
func (s *ServiceImpl) forecast(ctx context.Context, at types.Coordinates) ([]ForecastEntry, error) {
	key := cache.Key{
		Namespace: cacheNamespace,
		Latitude:  math.Round(at.Latitude*100) / 100,
		Longitude: math.Round(at.Longitude*100) / 100,
	}
	if s.cache != nil {
		if entries, ok := s.cache.Get(key); ok {
			metrics.RecordCacheLookup(ctx, cacheNamespace, true)
			return entries, nil
		}
		metrics.RecordCacheLookup(ctx, cacheNamespace, false)
	}
	entries, err := s.client.Forecast(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(key, entries)
	}
	return entries, nil
}

// Nearest picks the forecast step closest to when. ok is false when when is
// outside the forecast window.
func Nearest(entries []ForecastEntry, when time.Time) (ForecastEntry, bool) {
	if len(entries) == 0 {
		return ForecastEntry{}, false
	}
	best := -1
	var bestDiff time.Duration
	for i, e := range entries {
		diff := e.Time.Sub(when)
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	if bestDiff > horizonSlack {
		return ForecastEntry{}, false
	}
	return entries[best], true
}

// Judge applies the outdoor suitability thresholds to one forecast step.
func Judge(e ForecastEntry) Assessment {
	a := Assessment{Suitable: true, Known: true, Entry: e}
	switch {
	case unsuitableConditions[e.Condition]:
		a.Suitable, a.Reason = false, fmt.Sprintf("%s forecast", describe(e))
	case e.PrecipitationProbability >= maxPrecipitationProbability:
		a.Suitable, a.Reason = false, fmt.Sprintf("%.0f%% chance of rain", e.PrecipitationProbability*100)
	case e.TemperatureC < minTemperatureC:
		a.Suitable, a.Reason = false, fmt.Sprintf("too cold (%.0f°C)", e.TemperatureC)
	case e.TemperatureC > maxTemperatureC:
		a.Suitable, a.Reason = false, fmt.Sprintf("too hot (%.0f°C)", e.TemperatureC)
	case e.WindSpeedMS > maxWindSpeedMS:
		a.Suitable, a.Reason = false, fmt.Sprintf("strong wind (%.0f m/s)", e.WindSpeedMS)
	}
	return a
}

func describe(e ForecastEntry) string {
	if e.Description != "" {
		return e.Description
	}
	return e.Condition
}
