package city

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // city time zones must resolve regardless of the host's zoneinfo

	"github.com/FACorreiaa/go-day-planner/internal/types"
)

var _ Repository = (*GazetteerRepository)(nil)

type Repository interface {
	FindCityBySlug(ctx context.Context, slug string) (*types.CityConfig, error)
	ListCities(ctx context.Context) ([]*types.CityConfig, error)
}

// GazetteerRepository serves the static city gazetteer. Entries are built once
// and handed out as shared read-only pointers.
type GazetteerRepository struct {
	logger *slog.Logger
	cities map[string]*types.CityConfig
	order  []string
}

func NewGazetteerRepository(logger *slog.Logger) (*GazetteerRepository, error) {
	return newGazetteerRepository(logger, londonConfig(), newYorkConfig(), parisConfig())
}

func newGazetteerRepository(logger *slog.Logger, configs ...types.CityConfig) (*GazetteerRepository, error) {
	r := &GazetteerRepository{
		logger: logger,
		cities: make(map[string]*types.CityConfig, len(configs)),
	}
	for i := range configs {
		cfg := configs[i]
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load time zone %q for %s: %w", cfg.Timezone, cfg.Slug, err)
		}
		cfg.Location = loc
		r.cities[cfg.Slug] = &cfg
		r.order = append(r.order, cfg.Slug)
	}
	logger.Debug("Gazetteer loaded", slog.Int("cities", len(r.order)))
	return r, nil
}

func (r *GazetteerRepository) FindCityBySlug(_ context.Context, slug string) (*types.CityConfig, error) {
	cfg, ok := r.cities[normalizeSlug(slug)]
	if !ok {
		return nil, fmt.Errorf("city %q: %w", slug, types.ErrUnknownCity)
	}
	return cfg, nil
}

func (r *GazetteerRepository) ListCities(_ context.Context) ([]*types.CityConfig, error) {
	out := make([]*types.CityConfig, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.cities[slug])
	}
	return out, nil
}

// normalizeSlug accepts "New York", "new_york" and "NEW-YORK" alike.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Join(strings.Fields(s), "-")
}
