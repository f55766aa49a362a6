package places

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-day-planner/app/breaker"
	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const (
	defaultBaseURL  = "https://places.googleapis.com/v1"
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 10
	maxBiasRadius   = 50_000.0

	fieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.types," +
		"places.rating,places.userRatingCount,places.regularOpeningHours"
)

// TextSearchRequest is one places text search with a circular location bias.
type TextSearchRequest struct {
	Query        string
	Bias         types.Coordinates
	RadiusMeters float64
	MinRating    float64
}

// Client searches an external places provider. Results keep the provider's ranking.
type Client interface {
	SearchText(ctx context.Context, req TextSearchRequest) ([]types.Venue, error)
}

var _ Client = (*GoogleClient)(nil)

// GoogleClient talks to the Places API (New) searchText endpoint.
type GoogleClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	limiter    *rate.Limiter
	breaker    *breaker.Breaker[[]types.Venue]
}

func NewGoogleClient(cfg config.PlacesConfig, cb *breaker.Breaker[[]types.Venue], logger *slog.Logger) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_PLACES_API_KEY: %w", types.ErrMissingAPIKey)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &GoogleClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    cb,
	}, nil
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type searchTextRequest struct {
	TextQuery    string        `json:"textQuery"`
	PageSize     int           `json:"pageSize,omitempty"`
	MinRating    float64       `json:"minRating,omitempty"`
	LanguageCode string        `json:"languageCode,omitempty"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type localizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type dayPoint struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type hoursPeriod struct {
	Open  dayPoint  `json:"open"`
	Close *dayPoint `json:"close,omitempty"`
}

type openingHours struct {
	Periods             []hoursPeriod `json:"periods"`
	WeekdayDescriptions []string      `json:"weekdayDescriptions"`
}

type place struct {
	ID                  string        `json:"id"`
	DisplayName         localizedText `json:"displayName"`
	FormattedAddress    string        `json:"formattedAddress"`
	Location            latLng        `json:"location"`
	Types               []string      `json:"types"`
	Rating              float64       `json:"rating"`
	UserRatingCount     int           `json:"userRatingCount"`
	RegularOpeningHours *openingHours `json:"regularOpeningHours"`
}

type searchTextResponse struct {
	Places []place `json:"places"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GoogleClient) SearchText(ctx context.Context, req TextSearchRequest) ([]types.Venue, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("places rate limiter: %w", err)
	}
	call := func() ([]types.Venue, error) {
		return c.searchText(ctx, req)
	}
	if c.breaker == nil {
		return call()
	}
	return c.breaker.Execute(call)
}

func (c *GoogleClient) searchText(ctx context.Context, req TextSearchRequest) ([]types.Venue, error) {
	body := searchTextRequest{
		TextQuery:    req.Query,
		PageSize:     c.pageSize,
		LanguageCode: "en",
		// the API only accepts ratings in 0.5 steps
		MinRating: math.Floor(req.MinRating*2) / 2,
	}
	if !req.Bias.IsZero() {
		body.LocationBias = &locationBias{Circle: circle{
			Center: latLng{Latitude: req.Bias.Latitude, Longitude: req.Bias.Longitude},
			Radius: math.Min(req.RadiusMeters, maxBiasRadius),
		}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", fieldMask)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordUpstream(ctx, "places", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordUpstream(ctx, "places", "error", time.Since(start).Seconds())
		return nil, decodeAPIError(resp)
	}

	var out searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.RecordUpstream(ctx, "places", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}
	metrics.RecordUpstream(ctx, "places", "ok", time.Since(start).Seconds())

	venues := make([]types.Venue, 0, len(out.Places))
	for _, p := range out.Places {
		venues = append(venues, p.toVenue())
	}
	c.logger.DebugContext(ctx, "Places search completed", slog.String("query", req.Query), slog.Int("results", len(venues)))
	return venues, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("places API %d %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
	}
	if len(raw) == 0 {
		return errors.New("places API " + resp.Status)
	}
	return fmt.Errorf("places API %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

func (p place) toVenue() types.Venue {
	v := types.Venue{
		ExternalID:      p.ID,
		Name:            p.DisplayName.Text,
		Address:         p.FormattedAddress,
		Coordinates:     types.Coordinates{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude},
		Categories:      p.Types,
		Rating:          p.Rating,
		UserRatingCount: p.UserRatingCount,
	}
	if p.RegularOpeningHours != nil {
		hours := &types.OpeningHours{WeekdayText: p.RegularOpeningHours.WeekdayDescriptions}
		for _, period := range p.RegularOpeningHours.Periods {
			op := types.OpeningPeriod{Open: types.DayTime{Day: period.Open.Day, Hour: period.Open.Hour, Minute: period.Open.Minute}}
			if period.Close != nil {
				op.Close = &types.DayTime{Day: period.Close.Day, Hour: period.Close.Hour, Minute: period.Close.Minute}
			}
			hours.Periods = append(hours.Periods, op)
		}
		v.OpeningHours = hours
	}
	v.IsOutdoor = IsOutdoor(v)
	return v
}
