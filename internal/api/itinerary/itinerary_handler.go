package itinerary

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-day-planner/internal/api"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// CreatePlan godoc
// @Summary      Plan a day from a free-text request
// @Description  Extracts activities, finds venues, checks hours and weather, and returns an ordered itinerary.
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body types.PlanRequest true "Plan request"
// @Success      201 {object} api.PlanResponse
// @Failure      400 {object} api.Response
// @Failure      429 {object} api.Response
// @Failure      502 {object} api.Response
// @Failure      500 {object} api.Response
// @Router       /plans [post]
func (h *HandlerImpl) CreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "CreatePlan")
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreatePlan"))

	var req types.PlanRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	span.SetAttributes(attribute.String("city.slug", req.CitySlug))

	it, err := h.service.CreatePlan(ctx, req)
	if err != nil {
		status, msg := api.StatusForError(err)
		if status >= http.StatusInternalServerError {
			l.ErrorContext(ctx, "Failed to create plan", slog.Any("error", err))
		} else {
			l.WarnContext(ctx, "Plan request rejected", slog.Any("error", err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, status, msg)
		return
	}

	l.InfoContext(ctx, "Plan created", slog.Int64("itinerary_id", it.ID), slog.Int("entries", len(it.Entries)))
	span.SetStatus(codes.Ok, "Plan created")
	api.WriteJSONResponse(w, r, http.StatusCreated, api.PlanResponse{Success: true, Itinerary: it})
}

// GetItinerary godoc
// @Summary      Fetch a stored itinerary
// @Tags         plans
// @Produce      json
// @Param        id path int true "Itinerary ID"
// @Success      200 {object} api.PlanResponse
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Router       /itineraries/{id} [get]
func (h *HandlerImpl) GetItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetItinerary")
	defer span.End()

	idStr := chi.URLParam(r, "id")
	l := h.logger.With(slog.String("handler", "GetItinerary"), slog.String("id", idStr))

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		l.WarnContext(ctx, "Invalid itinerary ID")
		span.SetStatus(codes.Error, "Invalid itinerary ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID")
		return
	}

	it, err := h.service.GetItinerary(ctx, id)
	if err != nil {
		status, msg := api.StatusForError(err)
		l.WarnContext(ctx, "Failed to get itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, status, msg)
		return
	}

	span.SetStatus(codes.Ok, "Itinerary returned")
	api.WriteJSONResponse(w, r, http.StatusOK, api.PlanResponse{Success: true, Itinerary: it})
}
