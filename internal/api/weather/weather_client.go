package weather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
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
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultTimeout = 5 * time.Second
)

// ForecastEntry is one 3-hour step of a forecast.
type ForecastEntry struct {
	Time                     time.Time
	Condition                string
	Description              string
	TemperatureC             float64
	WindSpeedMS              float64
	PrecipitationProbability float64
}

type Client interface {
	Forecast(ctx context.Context, at types.Coordinates) ([]ForecastEntry, error)
}

var _ Client = (*OpenWeatherClient)(nil)

// OpenWeatherClient reads the OpenWeatherMap 5 day / 3 hour forecast.
type OpenWeatherClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	breaker    *breaker.Breaker[[]ForecastEntry]
}

func NewOpenWeatherClient(cfg config.WeatherConfig, cb *breaker.Breaker[[]ForecastEntry], logger *slog.Logger) (*OpenWeatherClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY: %w", types.ErrMissingAPIKey)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &OpenWeatherClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    cb,
	}, nil
}

type forecastResponse struct {
	Cod     string `json:"cod"`
	Message any    `json:"message"`
	List    []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			ID          int    `json:"id"`
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

func (c *OpenWeatherClient) Forecast(ctx context.Context, at types.Coordinates) ([]ForecastEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("weather rate limiter: %w", err)
	}
	call := func() ([]ForecastEntry, error) {
		return c.forecast(ctx, at)
	}
	if c.breaker == nil {
		return call()
	}
	return c.breaker.Execute(call)
}

func (c *OpenWeatherClient) forecast(ctx context.Context, at types.Coordinates) ([]ForecastEntry, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(at.Latitude, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(at.Longitude, 'f', 4, 64))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(ctx, "weather", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordUpstream(ctx, "weather", "error", time.Since(start).Seconds())
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("weather request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.RecordUpstream(ctx, "weather", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	metrics.RecordUpstream(ctx, "weather", "ok", time.Since(start).Seconds())

	entries := make([]ForecastEntry, 0, len(out.List))
	for _, item := range out.List {
		e := ForecastEntry{
			Time:                     time.Unix(item.Dt, 0).UTC(),
			TemperatureC:             item.Main.Temp,
			WindSpeedMS:              item.Wind.Speed,
			PrecipitationProbability: item.Pop,
		}
		if len(item.Weather) > 0 {
			e.Condition = item.Weather[0].Main
			e.Description = item.Weather[0].Description
		}
		entries = append(entries, e)
	}
	return entries, nil
}
