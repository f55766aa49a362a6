package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-day-planner/app/breaker"
	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	generativeAI "github.com/FACorreiaa/go-day-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-day-planner/internal/api/timeparser"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const (
	defaultAppointmentMinutes = 60
	maxKeywords               = 5
	retryDelay                = 250 * time.Millisecond
)

// Request is the input to extraction. StartTime may be free text ("9am").
type Request struct {
	Query         string
	City          *types.CityConfig
	Date          string
	StartTime     string
	StartLocation string
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Extract(ctx context.Context, req Request) ([]types.ActivitySlot, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	generator generativeAI.Generator
	breaker   *breaker.Breaker[string]
	validate  *validator.Validate
	retries   uint64
	genConfig *genai.GenerateContentConfig
}

// NewServiceImpl wires the extractor. A nil generator disables the LLM and
// every request goes straight to the keyword fallback.
func NewServiceImpl(generator generativeAI.Generator, cb *breaker.Breaker[string], cfg config.LLMConfig, logger *slog.Logger) *ServiceImpl {
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	return &ServiceImpl{
		logger:    logger,
		generator: generator,
		breaker:   cb,
		validate:  validator.New(),
		retries:   cfg.Retries,
		genConfig: &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](temperature),
			ResponseMIMEType: "application/json",
		},
	}
}

// Extract turns a free-text request into ordered activity slots. It only fails
// on an empty query; LLM trouble degrades to keyword detection and finally to
// a single slot built from the raw query.
func (s *ServiceImpl) Extract(ctx context.Context, req Request) ([]types.ActivitySlot, error) {
	ctx, span := otel.Tracer("ExtractorService").Start(ctx, "Extract", trace.WithAttributes(
		attribute.String("city.slug", citySlug(req.City)),
		attribute.Int("query.length", len(req.Query)),
	))
	defer span.End()

	if strings.TrimSpace(req.Query) == "" {
		err := types.NewServiceError(types.KindValidation, "Extract", errors.New("query must not be empty"))
		span.SetStatus(codes.Error, "Empty query")
		return nil, err
	}
	if req.City == nil {
		err := types.NewServiceError(types.KindValidation, "Extract", types.ErrUnknownCity)
		span.SetStatus(codes.Error, "Missing city")
		return nil, err
	}

	stage := "llm"
	slots, err := s.extractWithLLM(ctx, req)
	if err != nil || len(slots) == 0 {
		s.logger.WarnContext(ctx, "LLM extraction unusable, using keyword fallback", slog.Any("error", err))
		span.RecordError(fmt.Errorf("llm extraction: %w", err))
		stage = "keyword"
		slots = keywordSlots(req)
	}
	if len(slots) == 0 {
		stage = "raw_query"
		slots = []types.ActivitySlot{rawQuerySlot(req)}
	}
	if stage != "llm" {
		metrics.Get().ExtractionFallbackTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}

	slots = Order(Dedupe(slots))
	span.SetAttributes(attribute.String("extraction.stage", stage), attribute.Int("slots.count", len(slots)))
	span.SetStatus(codes.Ok, "Activities extracted")
	s.logger.InfoContext(ctx, "Activities extracted", slog.String("stage", stage), slog.Int("slots", len(slots)))
	return slots, nil
}

func (s *ServiceImpl) extractWithLLM(ctx context.Context, req Request) ([]types.ActivitySlot, error) {
	if s.generator == nil {
		return nil, errors.New("llm disabled")
	}
	prompt := generateActivityExtractionPrompt(req)

	op := func() (*llmExtraction, error) {
		raw, err := s.generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, breaker.ErrOpen) || errors.Is(err, context.Canceled) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		parsed, dropped, err := parseExtraction(raw, s.validate)
		if dropped > 0 {
			s.logger.WarnContext(ctx, "Dropped invalid LLM activities", slog.Int("dropped", dropped))
		}
		return parsed, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), s.retries), ctx)
	parsed, err := backoff.RetryWithData(op, policy)
	if err != nil {
		return nil, types.NewServiceError(types.KindLLM, "extractWithLLM", err)
	}
	return s.toSlots(parsed, req), nil
}

func (s *ServiceImpl) generate(ctx context.Context, prompt string) (string, error) {
	call := func() (string, error) {
		return s.generator.GenerateContent(ctx, prompt, s.genConfig)
	}
	if s.breaker == nil {
		return call()
	}
	return s.breaker.Execute(call)
}

// toSlots normalizes the four LLM buckets into slots. Buckets are processed in
// a fixed order so that dedup ties resolve deterministically.
func (s *ServiceImpl) toSlots(e *llmExtraction, req Request) []types.ActivitySlot {
	useLLMOrder := true
	for _, bucket := range [][]llmActivity{e.FixedTimeActivities, e.TimeBlocks, e.FixedAppointments, e.FlexibleActivities} {
		for _, item := range bucket {
			if item.MentionOrder <= 0 {
				useLLMOrder = false
			}
		}
	}

	var slots []types.ActivitySlot
	seq := 0
	add := func(items []llmActivity, source types.SlotSource) {
		for _, item := range items {
			seq++
			slot := s.toSlot(item, source, req)
			if useLLMOrder {
				slot.Order = item.MentionOrder
			} else {
				slot.Order = mentionPosition(req.Query, item, seq)
			}
			slots = append(slots, slot)
		}
	}
	add(e.FixedTimeActivities, types.SourceFixedTime)
	add(e.TimeBlocks, types.SourceTimeBlock)
	add(e.FixedAppointments, types.SourceFixedAppointment)
	add(e.FlexibleActivities, types.SourceFlexible)
	return slots
}

func (s *ServiceImpl) toSlot(item llmActivity, source types.SlotSource, req Request) types.ActivitySlot {
	slot := types.ActivitySlot{
		Activity:        item.Activity,
		VenuePreference: strings.TrimSpace(item.VenuePreference),
		Keywords:        normalizeKeywords(item.Keywords),
		MinRating:       item.MinRating,
		DurationMinutes: item.DurationMinutes,
		Source:          source,
	}

	slot.Location = s.groundLocation(item.Location, req)
	slot.Nearby = city.IsNearbyReference(item.Location) || (slot.Location == "" && city.IsNearbyReference(item.Activity))
	if slot.Nearby && slot.Location == "" {
		slot.Location = "nearby"
	}

	if source == types.SourceFixedAppointment {
		slot.Category = types.CategorySkip
		if slot.DurationMinutes == 0 {
			slot.DurationMinutes = defaultAppointmentMinutes
		}
	} else {
		slot.Category = resolveCategory(item.VenueType, item.Activity, item.VenuePreference, strings.Join(item.Keywords, " "))
	}

	switch source {
	case types.SourceTimeBlock:
		s.applyTimeBlock(&slot, item)
	case types.SourceFixedTime, types.SourceFixedAppointment:
		label := firstNonEmpty(item.Time, item.StartTime)
		if res, err := timeparser.Normalize(label, item.Activity); err == nil {
			slot.Time, slot.TimeLabel, slot.TimeAmbiguous = res.Clock, label, res.Ambiguous
		} else if res, err := timeparser.Normalize(item.Activity, ""); err == nil {
			slot.Time, slot.TimeLabel, slot.TimeAmbiguous = res.Clock, res.Matched, res.Ambiguous
		} else {
			slot.Source = types.SourceFlexible
		}
	}
	return slot
}

func (s *ServiceImpl) applyTimeBlock(slot *types.ActivitySlot, item llmActivity) {
	if item.StartTime != "" && item.EndTime != "" {
		if start, end, ok := timeparser.ParseRange(item.StartTime+"-"+item.EndTime, item.Activity); ok {
			slot.Time, slot.EndTime = start.Clock, end.Clock
			slot.TimeLabel = item.StartTime + "-" + item.EndTime
			slot.TimeAmbiguous = start.Ambiguous || end.Ambiguous
			slot.DurationMinutes = timeparser.ClockMinutesOrZero(end.Clock) - timeparser.ClockMinutesOrZero(start.Clock)
			return
		}
	}
	if start, end, ok := timeparser.ParseRange(item.Time, item.Activity); ok {
		slot.Time, slot.EndTime = start.Clock, end.Clock
		slot.TimeLabel = item.Time
		slot.TimeAmbiguous = start.Ambiguous || end.Ambiguous
		slot.DurationMinutes = timeparser.ClockMinutesOrZero(end.Clock) - timeparser.ClockMinutesOrZero(start.Clock)
		return
	}
	// A block with only a usable start degrades to a fixed-time slot.
	if res, err := timeparser.Normalize(firstNonEmpty(item.StartTime, item.Time), item.Activity); err == nil {
		slot.Time, slot.TimeLabel, slot.TimeAmbiguous = res.Clock, res.Matched, res.Ambiguous
		slot.Source = types.SourceFixedTime
		return
	}
	slot.Source = types.SourceFlexible
}

// groundLocation drops locations that are neither in the gazetteer, a nearby
// phrase, nor present in the user's own words.
func (s *ServiceImpl) groundLocation(location string, req Request) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if city.IsNearbyReference(location) {
		return location
	}
	if area, ok := city.MatchArea(location, req.City); ok {
		return area.Name
	}
	if strings.Contains(strings.ToLower(req.Query), strings.ToLower(location)) {
		return location
	}
	s.logger.Debug("Discarding location not grounded in the request", slog.String("location", location))
	return ""
}

// mentionPosition approximates where an item was mentioned when the model did not say.
func mentionPosition(query string, item llmActivity, seq int) int {
	q := strings.ToLower(query)
	best := -1
	for _, needle := range []string{item.Location, item.Activity} {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle == "" {
			continue
		}
		if idx := strings.Index(q, needle); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	if best < 0 {
		return len(q) + seq
	}
	return best + 1
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func citySlug(c *types.CityConfig) string {
	if c == nil {
		return ""
	}
	return c.Slug
}
