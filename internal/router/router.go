package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/FACorreiaa/go-day-planner/docs"
	"github.com/FACorreiaa/go-day-planner/internal/api"
	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	"github.com/FACorreiaa/go-day-planner/internal/api/itinerary"
)

const (
	defaultPlanRequests = 20
	defaultWindow       = time.Minute
)

// Config contains the handlers mounted under /api/v1.
type Config struct {
	ItineraryHandler *itinerary.HandlerImpl
	CityHandler      *city.Handler
	AllowedOrigins   []string
	PlanRequests     int
	PlanWindow       time.Duration
}

// SetupRouter builds the API router. Server-wide middleware (request id,
// logging, recoverer) is applied by the caller before mounting it.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	limit := cfg.PlanRequests
	if limit <= 0 {
		limit = defaultPlanRequests
	}
	window := cfg.PlanWindow
	if window <= 0 {
		window = defaultWindow
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(limit, window,
				httprate.WithKeyFuncs(httprate.KeyByRealIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many plan requests, try again later")
				}),
			))
			r.Post("/plans", cfg.ItineraryHandler.CreatePlan)
		})

		r.Get("/itineraries/{id}", cfg.ItineraryHandler.GetItinerary)
		r.Get("/cities", cfg.CityHandler.GetAllCities)
		r.Get("/cities/{slug}/resolve", cfg.CityHandler.ResolveLocation)
	})

	return r
}
