package places

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	"github.com/FACorreiaa/go-day-planner/internal/cache"
	"github.com/FACorreiaa/go-day-planner/internal/textmatch"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const (
	NearbyRadiusMeters = 1_500.0
	AreaRadiusMeters   = 5_000.0
	CityRadiusMeters   = 25_000.0

	defaultMaxAlternatives = 3
	cacheNamespace         = "places"
)

var outdoorWords = []string{
	"park", "garden", "gardens", "beach", "zoo", "campground", "hiking", "trail", "viewpoint",
	"playground", "picnic", "outdoor", "rooftop", "beer garden", "heath",
}

// IsOutdoor classifies a venue by keywords in its types and name.
func IsOutdoor(v types.Venue) bool {
	text := strings.ToLower(v.Name + " " + strings.ReplaceAll(strings.Join(v.Categories, " "), "_", " "))
	return textmatch.ContainsAny(text, outdoorWords)
}

// SearchRequest is one venue lookup. Anchor is the previous stop and is only
// used when the slot refers to "nearby".
type SearchRequest struct {
	Slot          types.ActivitySlot
	City          *types.CityConfig
	ScheduledTime time.Time
	Anchor        *city.ResolvedLocation
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Search(ctx context.Context, req SearchRequest) (*types.SearchResult, error)
}

type ServiceImpl struct {
	logger          *slog.Logger
	client          Client
	cache           cache.Cache[[]types.Venue]
	group           singleflight.Group
	maxAlternatives int
	callTimeout     time.Duration
}

func NewServiceImpl(client Client, c cache.Cache[[]types.Venue], maxAlternatives int, logger *slog.Logger) *ServiceImpl {
	if maxAlternatives <= 0 {
		maxAlternatives = defaultMaxAlternatives
	}
	return &ServiceImpl{
		logger:          logger,
		client:          client,
		cache:           c,
		maxAlternatives: maxAlternatives,
		callTimeout:     defaultTimeout,
	}
}

// Search resolves a slot to a primary venue plus alternatives. An empty result
// (Primary == nil) means nothing in the city matched and is not an error.
func (s *ServiceImpl) Search(ctx context.Context, req SearchRequest) (*types.SearchResult, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("slot.activity", req.Slot.Activity),
		attribute.String("slot.category", string(req.Slot.Category)),
	))
	defer span.End()

	if req.City == nil {
		span.SetStatus(codes.Error, "Missing city")
		return nil, types.NewServiceError(types.KindValidation, "Search", types.ErrUnknownCity)
	}

	bias, radius := ResolveBias(req.Slot, req.City, req.Anchor)
	span.SetAttributes(
		attribute.String("bias.name", bias.Name),
		attribute.String("bias.precision", string(bias.Precision)),
		attribute.Float64("bias.radius_m", radius),
	)

	if req.Slot.Category == types.CategorySkip {
		v := placeholderVenue(req.Slot, bias)
		span.SetStatus(codes.Ok, "Placeholder venue")
		return &types.SearchResult{Primary: &v, Bias: bias.Coordinates, RadiusMeters: radius}, nil
	}

	if s.client == nil {
		err := types.NewServiceError(types.KindInternal, "Search", fmt.Errorf("places client: %w", types.ErrMissingAPIKey))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Places client not configured")
		return nil, err
	}

	query := BuildQuery(req.Slot, req.City, bias)
	key := cache.Key{
		Namespace:    cacheNamespace,
		Query:        query,
		Latitude:     bias.Coordinates.Latitude,
		Longitude:    bias.Coordinates.Longitude,
		RadiusMeters: radius,
		Filters: map[string]string{
			"city":       req.City.Slug,
			"min_rating": strconv.FormatFloat(req.Slot.MinRating, 'f', 1, 64),
		},
	}

	venues, fromCache, err := s.lookup(ctx, key, TextSearchRequest{
		Query:        query,
		Bias:         bias.Coordinates,
		RadiusMeters: radius,
		MinRating:    req.Slot.MinRating,
	}, req.City, req.Slot.MinRating)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Places search failed")
		s.logger.ErrorContext(ctx, "Places search failed", slog.String("query", query), slog.Any("error", err))
		return nil, types.NewServiceError(types.KindPlaces, "Search", err)
	}

	result := &types.SearchResult{Bias: bias.Coordinates, RadiusMeters: radius, FromCache: fromCache}
	if len(venues) > 0 {
		primary := venues[0]
		result.Primary = &primary
		rest := venues[1:]
		if len(rest) > s.maxAlternatives {
			rest = rest[:s.maxAlternatives]
		}
		result.Alternatives = append([]types.Venue(nil), rest...)
	}

	span.SetAttributes(attribute.Int("results.count", len(venues)), attribute.Bool("cache.hit", fromCache))
	span.SetStatus(codes.Ok, "Venue search completed")
	return result, nil
}

// lookup is a read-through cache in front of the client. Concurrent misses for
// the same key share one upstream call.
func (s *ServiceImpl) lookup(ctx context.Context, key cache.Key, req TextSearchRequest, c *types.CityConfig, minRating float64) ([]types.Venue, bool, error) {
	if s.cache != nil {
		if venues, ok := s.cache.Get(key); ok {
			metrics.RecordCacheLookup(ctx, cacheNamespace, true)
			return venues, true, nil
		}
		metrics.RecordCacheLookup(ctx, cacheNamespace, false)
	}

	// the shared call outlives any single caller, so it runs detached with its own deadline
	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
		defer cancel()
		raw, err := s.client.SearchText(callCtx, req)
		if err != nil {
			return nil, err
		}
		filtered := FilterResults(raw, c, minRating)
		if s.cache != nil {
			s.cache.Set(key, filtered)
		}
		return filtered, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]types.Venue), false, nil
	case <-ctx.Done():
		return nil, false, fmt.Errorf("waiting for venue search: %w", ctx.Err())
	}
}

// ResolveBias picks the search center and radius: the previous stop for
// "nearby", a named area when one matches, otherwise the city center.
func ResolveBias(slot types.ActivitySlot, c *types.CityConfig, anchor *city.ResolvedLocation) (*city.ResolvedLocation, float64) {
	if slot.Nearby && anchor != nil {
		if _, explicit := city.MatchArea(slot.Location, c); !explicit {
			return &city.ResolvedLocation{Name: anchor.Name, Coordinates: anchor.Coordinates, Precision: city.PrecisionPrevious}, NearbyRadiusMeters
		}
	}
	resolved := city.ResolveLocationReference(slot.Location, c)
	if resolved.Precision == city.PrecisionArea {
		return resolved, AreaRadiusMeters
	}
	return resolved, CityRadiusMeters
}

// BuildQuery assembles the text query from preference, the local category term,
// keywords and the area name. Slots without a category search on their own words.
func BuildQuery(slot types.ActivitySlot, c *types.CityConfig, bias *city.ResolvedLocation) string {
	var parts []string
	has := func(term string) bool {
		joined := strings.ToLower(strings.Join(parts, " "))
		return textmatch.ContainsWord(joined, strings.ToLower(term))
	}
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term != "" && !has(term) {
			parts = append(parts, term)
		}
	}

	add(slot.VenuePreference)
	switch slot.Category {
	case types.CategoryGeneral, "":
		if slot.VenuePreference == "" {
			add(slot.Activity)
		}
	default:
		if !mentionsCategory(slot.VenuePreference, c, slot.Category) {
			add(c.VocabularyTerm(slot.Category))
		}
	}
	for _, k := range slot.Keywords {
		add(k)
	}
	if len(parts) == 0 {
		add(slot.Activity)
	}
	if bias != nil && bias.Precision == city.PrecisionArea && !has(bias.Name) {
		parts = append(parts, "in "+bias.Name)
	}
	return strings.Join(parts, " ")
}

func mentionsCategory(text string, c *types.CityConfig, category types.VenueCategory) bool {
	t := strings.ToLower(text)
	if textmatch.ContainsWord(t, string(category)) {
		return true
	}
	return textmatch.ContainsAny(t, c.CategoryVocabulary[category])
}

// FilterResults drops out-of-city results, venues below minRating and repeats.
func FilterResults(venues []types.Venue, c *types.CityConfig, minRating float64) []types.Venue {
	aliases := c.AddressAliases
	if len(aliases) == 0 {
		aliases = []string{c.Name}
	}
	seen := make(map[string]bool, len(venues))
	out := make([]types.Venue, 0, len(venues))
	for _, v := range venues {
		if seen[v.ExternalID] {
			continue
		}
		if !addressInCity(v.Address, aliases) {
			continue
		}
		if minRating > 0 && v.Rating < minRating {
			continue
		}
		seen[v.ExternalID] = true
		out = append(out, v)
	}
	return out
}

func addressInCity(address string, aliases []string) bool {
	a := strings.ToLower(address)
	for _, alias := range aliases {
		if strings.Contains(a, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

func placeholderVenue(slot types.ActivitySlot, bias *city.ResolvedLocation) types.Venue {
	name := strings.TrimSpace(slot.Activity)
	if name == "" {
		name = "Appointment"
	}
	return types.Venue{
		ExternalID:    "placeholder:" + strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		Name:          name,
		Address:       bias.Name,
		Coordinates:   bias.Coordinates,
		IsPlaceholder: true,
	}
}
