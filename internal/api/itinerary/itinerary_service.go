package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	"github.com/FACorreiaa/go-day-planner/internal/api/extractor"
	"github.com/FACorreiaa/go-day-planner/internal/api/places"
	"github.com/FACorreiaa/go-day-planner/internal/api/timeparser"
	"github.com/FACorreiaa/go-day-planner/internal/api/venuefilter"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreatePlan(ctx context.Context, req types.PlanRequest) (*types.Itinerary, error)
	GetItinerary(ctx context.Context, id int64) (*types.Itinerary, error)
}

type ServiceImpl struct {
	logger       *slog.Logger
	cities       city.Service
	extractor    extractor.Service
	places       places.Service
	filter       *venuefilter.Filter
	assembler    *Assembler
	repo         Repository
	validate     *validator.Validate
	defaultStart string
	now          func() time.Time
}

func NewServiceImpl(
	cities city.Service,
	extractorService extractor.Service,
	placesService places.Service,
	filter *venuefilter.Filter,
	repo Repository,
	cfg config.PlannerConfig,
	logger *slog.Logger,
) *ServiceImpl {
	start := cfg.DefaultStartTime
	if start == "" {
		start = defaultStartClock
	}
	return &ServiceImpl{
		logger:       logger,
		cities:       cities,
		extractor:    extractorService,
		places:       placesService,
		filter:       filter,
		assembler:    NewAssembler(cfg.FlexibleDurationMinutes, cfg.RouteOptimization),
		repo:         repo,
		validate:     validator.New(),
		defaultStart: start,
		now:          time.Now,
	}
}

// CreatePlan runs the whole pipeline for one request: extract slots, schedule
// them, find a venue per slot in order, filter, assemble and persist.
// Slots without a venue are dropped; the plan only fails on invalid input,
// missing infrastructure, or when every venue search failed upstream.
func (s *ServiceImpl) CreatePlan(ctx context.Context, req types.PlanRequest) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "CreatePlan", trace.WithAttributes(
		attribute.String("city.slug", req.CitySlug),
		attribute.Int("query.length", len(req.Query)),
	))
	defer span.End()
	started := s.now()
	l := s.logger.With(slog.String("method", "CreatePlan"))

	it, err := s.createPlan(ctx, l, req)
	outcome := "ok"
	if err != nil {
		outcome = string(types.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Plan creation failed")
	} else {
		span.SetAttributes(attribute.Int64("itinerary.id", it.ID), attribute.Int("itinerary.entries", len(it.Entries)))
		span.SetStatus(codes.Ok, "Plan created")
		metrics.Get().PlanEntriesTotal.Add(ctx, int64(len(it.Entries)))
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.Get().PlanRequestsTotal.Add(ctx, 1, attrs)
	metrics.Get().PlanDurationSeconds.Record(ctx, s.now().Sub(started).Seconds(), attrs)
	return it, err
}

func (s *ServiceImpl) createPlan(ctx context.Context, l *slog.Logger, req types.PlanRequest) (*types.Itinerary, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, types.NewServiceError(types.KindValidation, "CreatePlan", err)
	}
	if s.repo == nil {
		return nil, types.NewServiceError(types.KindInternal, "CreatePlan", errors.New("no itinerary store configured"))
	}

	cfg, err := s.cities.GetCity(ctx, req.CitySlug)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date == "" {
		date = timeparser.Today(s.now(), cfg.Location)
	}
	start := s.defaultStart
	if req.StartTime != "" {
		if clock, err := timeparser.NormalizeTime(req.StartTime); err == nil {
			start = clock
		} else {
			l.WarnContext(ctx, "Unreadable start time, using default",
				slog.String("start_time", req.StartTime), slog.String("default", start))
		}
	}

	slots, err := s.extractor.Extract(ctx, extractor.Request{
		Query:     req.Query,
		City:      cfg,
		Date:      date,
		StartTime: req.StartTime,
	})
	if err != nil {
		return nil, err
	}
	scheduled := s.assembler.Schedule(slots, start, req.TripDurationHours)
	l.DebugContext(ctx, "Slots scheduled", slog.Int("extracted", len(slots)), slog.Int("scheduled", len(scheduled)))

	entries, err := s.resolveVenues(ctx, l, cfg, date, scheduled)
	if err != nil {
		return nil, err
	}

	it := s.assembler.Assemble(cfg, req.Query, date, entries)
	id, err := s.repo.SaveItinerary(ctx, it)
	if err != nil {
		return nil, types.NewServiceError(types.KindDatabase, "CreatePlan", err)
	}
	it.ID = id
	l.InfoContext(ctx, "Plan created",
		slog.Int64("itinerary_id", it.ID),
		slog.String("city", cfg.Slug),
		slog.Int("entries", len(it.Entries)),
		slog.Int("travel_minutes", it.TotalTravelTimeMinutes))
	return it, nil
}

// resolveVenues searches slot by slot so that "nearby" can use the stop before it.
func (s *ServiceImpl) resolveVenues(ctx context.Context, l *slog.Logger, cfg *types.CityConfig, date string, scheduled []types.ScheduledSlot) ([]types.ItineraryEntry, error) {
	var (
		anchor      *city.ResolvedLocation
		upstreamErr error
		entries     = make([]types.ItineraryEntry, 0, len(scheduled))
	)
	for _, sc := range scheduled {
		at, err := timeparser.ToZonedTimestamp(sc.Clock, date, cfg.Location)
		if err != nil {
			l.WarnContext(ctx, "Could not place slot in time, dropping it",
				slog.String("activity", sc.Slot.Activity), slog.Any("error", err))
			continue
		}

		result, err := s.places.Search(ctx, places.SearchRequest{
			Slot:          sc.Slot,
			City:          cfg,
			ScheduledTime: at,
			Anchor:        anchor,
		})
		if err != nil {
			if types.KindOf(err) != types.KindPlaces {
				return nil, err
			}
			l.WarnContext(ctx, "Venue search failed, dropping slot",
				slog.String("activity", sc.Slot.Activity), slog.Any("error", err))
			upstreamErr = err
			continue
		}
		if result.Primary == nil {
			l.InfoContext(ctx, "No venue found, dropping slot", slog.String("activity", sc.Slot.Activity))
			continue
		}

		out := s.filter.Apply(ctx, result, at, cfg.Location)
		entries = append(entries, types.ItineraryEntry{
			Activity:        sc.Slot.Activity,
			Category:        sc.Slot.Category,
			Venue:           out.Venue,
			ScheduledTime:   at,
			DisplayTime:     timeparser.FormatClock(at, cfg.Location),
			DurationMinutes: sc.DurationMinutes,
			IsFixed:         sc.Slot.IsFixed(),
			Substitution:    out.Substitution,
			Caveats:         out.Caveats,
			Nearby:          sc.Slot.Nearby,
		})
		anchor = anchorFor(out.Venue)
	}

	if len(entries) == 0 && upstreamErr != nil {
		return nil, upstreamErr
	}
	return entries, nil
}

func anchorFor(v types.Venue) *city.ResolvedLocation {
	name := v.Address
	if name == "" {
		name = v.Name
	}
	return &city.ResolvedLocation{Name: name, Coordinates: v.Coordinates, Precision: city.PrecisionPrevious}
}

func (s *ServiceImpl) GetItinerary(ctx context.Context, id int64) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetItinerary", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
	))
	defer span.End()

	if id <= 0 {
		span.SetStatus(codes.Error, "Invalid ID")
		return nil, types.NewServiceError(types.KindValidation, "GetItinerary", fmt.Errorf("invalid itinerary id %d", id))
	}
	it, err := s.repo.GetItinerary(ctx, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "Itinerary not found")
			return nil, types.NewServiceError(types.KindNotFound, "GetItinerary", err)
		}
		s.logger.ErrorContext(ctx, "Failed to load itinerary", slog.Int64("id", id), slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return nil, types.NewServiceError(types.KindDatabase, "GetItinerary", err)
	}
	span.SetStatus(codes.Ok, "Itinerary loaded")
	return it, nil
}
