package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/go-day-planner/app/breaker"
	database "github.com/FACorreiaa/go-day-planner/app/db"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	"github.com/FACorreiaa/go-day-planner/internal/api/extractor"
	generativeAI "github.com/FACorreiaa/go-day-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-day-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-day-planner/internal/api/places"
	"github.com/FACorreiaa/go-day-planner/internal/api/venuefilter"
	"github.com/FACorreiaa/go-day-planner/internal/api/weather"
	"github.com/FACorreiaa/go-day-planner/internal/cache"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	ConnectionURL    string
	CityHandler      *city.Handler
	ItineraryHandler *itinerary.HandlerImpl
	ItineraryService itinerary.Service
}

// NewContainer wires the planner. The Places key is required; the LLM and
// weather keys are optional and their features degrade when absent.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, err
	}

	cityRepo, err := city.NewGazetteerRepository(logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to load gazetteer: %w", err)
	}
	cityService := city.NewServiceImpl(cityRepo, cfg.Planner.DefaultCity, logger)

	var generator generativeAI.Generator
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.LLM)
	switch {
	case err == nil:
		generator = aiClient
	case errors.Is(err, types.ErrMissingAPIKey):
		logger.Warn("LLM disabled, using rule-based extraction only", slog.Any("reason", err))
	default:
		pool.Close()
		return nil, err
	}
	extractorService := extractor.NewServiceImpl(generator,
		breaker.New[string]("gemini", cfg.Breaker, logger), cfg.LLM, logger)

	placesClient, err := places.NewGoogleClient(cfg.Places,
		breaker.New[[]types.Venue]("google_places", cfg.Breaker, logger), logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("venue search unavailable: %w", err)
	}
	venueCache, err := cache.New[[]types.Venue](cfg.Cache)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create venue cache: %w", err)
	}
	placesService := places.NewServiceImpl(placesClient, venueCache, cfg.Places.MaxAlternatives, logger)

	var weatherClient weather.Client
	owClient, err := weather.NewOpenWeatherClient(cfg.Weather,
		breaker.New[[]weather.ForecastEntry]("openweather", cfg.Breaker, logger), logger)
	if err != nil {
		logger.Warn("Weather checks disabled", slog.Any("reason", err))
	} else {
		weatherClient = owClient
	}
	forecastCache, err := cache.New[[]weather.ForecastEntry](cfg.Cache)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create forecast cache: %w", err)
	}
	weatherService := weather.NewServiceImpl(weatherClient, forecastCache, logger)
	filter := venuefilter.NewFilter(weatherService, logger)

	itineraryRepo := itinerary.NewRepository(pool, logger)
	itineraryService := itinerary.NewServiceImpl(cityService, extractorService, placesService,
		filter, itineraryRepo, cfg.Planner, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		ConnectionURL:    dbConfig.ConnectionURL,
		CityHandler:      city.NewCityHandler(cityService, logger),
		ItineraryHandler: itinerary.NewHandler(itineraryService, logger),
		ItineraryService: itineraryService,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.ConnectionURL, c.Logger)
}
