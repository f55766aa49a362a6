package city

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-day-planner/internal/api"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewCityHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// GetAllCities godoc
// @Summary      List supported cities
// @Tags         cities
// @Produce      json
// @Success      200 {array} types.CitySummary
// @Router       /cities [get]
func (h *Handler) GetAllCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "GetAllCities")
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetAllCities"))

	cities, err := h.service.GetAllCities(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve cities")
		return
	}

	l.InfoContext(ctx, "Successfully returned cities", slog.Int("count", len(cities)))
	span.SetStatus(codes.Ok, "Cities returned successfully")
	api.WriteJSONResponse(w, r, http.StatusOK, cities)
}

// ResolveLocation godoc
// @Summary      Resolve a free-text place against a city's gazetteer
// @Tags         cities
// @Produce      json
// @Param        slug path string true "City slug"
// @Param        q query string true "Location text"
// @Success      200 {object} ResolvedLocation
// @Failure      400 {object} api.Response
// @Router       /cities/{slug}/resolve [get]
func (h *Handler) ResolveLocation(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "ResolveLocation")
	defer span.End()

	slug := chi.URLParam(r, "slug")
	text := r.URL.Query().Get("q")
	l := h.logger.With(slog.String("handler", "ResolveLocation"), slog.String("city", slug))

	resolved, err := h.service.Resolve(ctx, slug, text)
	if err != nil {
		l.WarnContext(ctx, "Failed to resolve location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Resolve failed")
		if types.KindOf(err) == types.KindValidation {
			api.ErrorResponse(w, r, http.StatusNotFound, "Unknown city")
			return
		}
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to resolve location")
		return
	}

	span.SetStatus(codes.Ok, "Location resolved")
	api.WriteJSONResponse(w, r, http.StatusOK, resolved)
}
