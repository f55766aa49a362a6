package city

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-day-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetCity(ctx context.Context, slug string) (*types.CityConfig, error)
	GetAllCities(ctx context.Context) ([]types.CitySummary, error)
	Resolve(ctx context.Context, slug, text string) (*ResolvedLocation, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	repo        Repository
	defaultCity string
}

func NewServiceImpl(repo Repository, defaultCity string, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		repo:        repo,
		defaultCity: defaultCity,
	}
}

// GetCity returns the gazetteer entry for slug. An empty slug selects the default city.
func (s *ServiceImpl) GetCity(ctx context.Context, slug string) (*types.CityConfig, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetCity", trace.WithAttributes(
		attribute.String("city.slug", slug),
	))
	defer span.End()

	if slug == "" {
		slug = s.defaultCity
	}
	cfg, err := s.repo.FindCityBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown city")
		if errors.Is(err, types.ErrUnknownCity) {
			return nil, types.NewServiceError(types.KindValidation, "GetCity", err)
		}
		return nil, types.NewServiceError(types.KindInternal, "GetCity", err)
	}
	span.SetStatus(codes.Ok, "City found")
	return cfg, nil
}

func (s *ServiceImpl) GetAllCities(ctx context.Context) ([]types.CitySummary, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetAllCities")
	defer span.End()

	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list cities")
		return nil, types.NewServiceError(types.KindInternal, "GetAllCities", err)
	}

	out := make([]types.CitySummary, 0, len(cities))
	for _, c := range cities {
		areas := make([]string, 0, len(c.Areas))
		for _, a := range c.Areas {
			areas = append(areas, a.Name)
		}
		out = append(out, types.CitySummary{
			Slug:     c.Slug,
			Name:     c.Name,
			Country:  c.Country,
			Timezone: c.Timezone,
			Areas:    areas,
		})
	}
	span.SetStatus(codes.Ok, "Cities listed")
	return out, nil
}

func (s *ServiceImpl) Resolve(ctx context.Context, slug, text string) (*ResolvedLocation, error) {
	cfg, err := s.GetCity(ctx, slug)
	if err != nil {
		return nil, err
	}
	return ResolveLocationReference(text, cfg), nil
}
