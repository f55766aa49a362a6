package places

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-day-planner/app/breaker"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	"github.com/FACorreiaa/go-day-planner/internal/cache"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) SearchText(ctx context.Context, req TextSearchRequest) ([]types.Venue, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Venue), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func london(t *testing.T) *types.CityConfig {
	t.Helper()
	repo, err := city.NewGazetteerRepository(testLogger())
	require.NoError(t, err)
	c, err := repo.FindCityBySlug(context.Background(), "london")
	require.NoError(t, err)
	return c
}

func setupPlacesServiceTest() (*ServiceImpl, *MockClient) {
	client := new(MockClient)
	return NewServiceImpl(client, cache.NewMemoryCache[[]types.Venue](time.Minute, time.Minute), 3, testLogger()), client
}

func venue(id, name, address string, rating float64) types.Venue {
	return types.Venue{ExternalID: id, Name: name, Address: address, Rating: rating,
		Coordinates: types.Coordinates{Latitude: 51.51, Longitude: -0.14}}
}

func TestPlacesService_Search(t *testing.T) {
	ctx := context.Background()
	c := london(t)

	t.Run("area slot biases to the area and filters out-of-city results", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		slot := types.ActivitySlot{Activity: "lunch", Location: "Mayfair", Category: types.CategoryRestaurant}
		mayfair, _ := city.MatchArea("Mayfair", c)

		client.On("SearchText", mock.Anything, mock.MatchedBy(func(r TextSearchRequest) bool {
			return r.Query == "restaurant in Mayfair" && r.Bias == mayfair.Coordinates && r.RadiusMeters == AreaRadiusMeters
		})).Return([]types.Venue{
			venue("a", "Manchester Grill", "1 Deansgate, Manchester, UK", 4.6),
			venue("b", "Mayfair Kitchen", "12 Mount St, London W1K, UK", 4.4),
			venue("c", "Little Mayfair", "3 Shepherd Market, London, UK", 4.2),
		}, nil).Once()

		result, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.NoError(t, err)
		require.NotNil(t, result.Primary)
		assert.Equal(t, "b", result.Primary.ExternalID)
		require.Len(t, result.Alternatives, 1)
		assert.Equal(t, "c", result.Alternatives[0].ExternalID)
		assert.Equal(t, mayfair.Coordinates, result.Bias)
		client.AssertExpectations(t)
	})

	t.Run("identical searches are served from cache", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		slot := types.ActivitySlot{Activity: "coffee", Location: "Soho", Category: types.CategoryCafe}
		client.On("SearchText", mock.Anything, mock.Anything).
			Return([]types.Venue{venue("x", "Bar Italia", "22 Frith St, London", 4.5)}, nil).Once()

		first, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.NoError(t, err)
		second, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.NoError(t, err)

		assert.False(t, first.FromCache)
		assert.True(t, second.FromCache)
		assert.Equal(t, first.Primary.ExternalID, second.Primary.ExternalID)
		client.AssertNumberOfCalls(t, "SearchText", 1)
	})

	t.Run("nearby slot biases to the previous stop", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		anchor := &city.ResolvedLocation{Name: "12 Mount St", Coordinates: types.Coordinates{Latitude: 51.5101, Longitude: -0.1502}, Precision: city.PrecisionArea}
		slot := types.ActivitySlot{Activity: "coffee", Location: "nearby", Nearby: true, Category: types.CategoryCafe}
		client.On("SearchText", mock.Anything, mock.MatchedBy(func(r TextSearchRequest) bool {
			return r.Bias == anchor.Coordinates && r.RadiusMeters == NearbyRadiusMeters && r.Query == "cafe"
		})).Return([]types.Venue{venue("k", "Kiosk", "Mount St, London", 4.1)}, nil).Once()

		result, err := service.Search(ctx, SearchRequest{Slot: slot, City: c, Anchor: anchor})
		require.NoError(t, err)
		assert.Equal(t, anchor.Coordinates, result.Bias)
		assert.Equal(t, NearbyRadiusMeters, result.RadiusMeters)
		client.AssertExpectations(t)
	})

	t.Run("no area falls back to the city center with a wide radius", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		slot := types.ActivitySlot{Activity: "surprise me", Category: types.CategoryGeneral}
		client.On("SearchText", mock.Anything, mock.MatchedBy(func(r TextSearchRequest) bool {
			return r.Query == "surprise me" && r.Bias == c.Center && r.RadiusMeters == CityRadiusMeters
		})).Return([]types.Venue{}, nil).Once()

		result, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.NoError(t, err)
		assert.Nil(t, result.Primary)
		assert.Empty(t, result.Alternatives)
		client.AssertExpectations(t)
	})

	t.Run("skip category returns a placeholder without calling the API", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		slot := types.ActivitySlot{Activity: "client meeting", Category: types.CategorySkip, Time: "14:00"}

		result, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.NoError(t, err)
		require.NotNil(t, result.Primary)
		assert.True(t, result.Primary.IsPlaceholder)
		assert.Equal(t, "client meeting", result.Primary.Name)
		client.AssertNotCalled(t, "SearchText", mock.Anything, mock.Anything)
	})

	t.Run("upstream failure is a places error", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		slot := types.ActivitySlot{Activity: "drinks", Location: "Chelsea", Category: types.CategoryBar}
		client.On("SearchText", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

		_, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.Error(t, err)
		assert.Equal(t, types.KindPlaces, types.KindOf(err))
	})

	t.Run("min rating drops weaker venues", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		slot := types.ActivitySlot{Activity: "dinner", Location: "Soho", Category: types.CategoryRestaurant, MinRating: 4.5}
		client.On("SearchText", mock.Anything, mock.Anything).Return([]types.Venue{
			venue("low", "Meh Diner", "Soho, London", 3.9),
			venue("high", "Great Place", "Soho, London", 4.7),
		}, nil).Once()

		result, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.NoError(t, err)
		require.NotNil(t, result.Primary)
		assert.Equal(t, "high", result.Primary.ExternalID)
		assert.Empty(t, result.Alternatives)
	})

	t.Run("a cancelled caller leaves the shared search running", func(t *testing.T) {
		service, client := setupPlacesServiceTest()
		slot := types.ActivitySlot{Activity: "brunch", Location: "Soho", Category: types.CategoryRestaurant}
		started := make(chan struct{})
		release := make(chan struct{})
		var upstreamCancelled atomic.Bool
		client.On("SearchText", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			upstream := args.Get(0).(context.Context)
			close(started)
			<-release
			upstreamCancelled.Store(upstream.Err() != nil)
		}).Return([]types.Venue{venue("d", "Dishoom", "22 Kingly St, London", 4.7)}, nil).Once()

		callerCtx, cancel := context.WithCancel(ctx)
		errs := make(chan error, 1)
		go func() {
			_, err := service.Search(callerCtx, SearchRequest{Slot: slot, City: c})
			errs <- err
		}()

		<-started
		cancel()
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("cancelled caller kept waiting on the shared search")
		}

		close(release)
		assert.Eventually(t, func() bool {
			result, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
			return err == nil && result.FromCache && result.Primary.ExternalID == "d"
		}, time.Second, 10*time.Millisecond)
		assert.False(t, upstreamCancelled.Load())
		client.AssertNumberOfCalls(t, "SearchText", 1)
	})

	t.Run("missing client is an internal error", func(t *testing.T) {
		service := NewServiceImpl(nil, nil, 0, testLogger())
		slot := types.ActivitySlot{Activity: "coffee", Category: types.CategoryCafe}

		_, err := service.Search(ctx, SearchRequest{Slot: slot, City: c})
		require.Error(t, err)
		assert.Equal(t, types.KindInternal, types.KindOf(err))
		assert.ErrorIs(t, err, types.ErrMissingAPIKey)
	})
}

func TestBuildQuery(t *testing.T) {
	c := london(t)
	soho := &city.ResolvedLocation{Name: "Soho", Precision: city.PrecisionArea}
	center := &city.ResolvedLocation{Name: "London", Precision: city.PrecisionCenter}

	tests := []struct {
		name string
		slot types.ActivitySlot
		bias *city.ResolvedLocation
		want string
	}{
		{"preference covers the category term", types.ActivitySlot{VenuePreference: "cocktail bar", Category: types.CategoryBar, Keywords: []string{"rooftop"}}, soho, "cocktail bar rooftop in Soho"},
		{"category term from vocabulary", types.ActivitySlot{Category: types.CategoryCafe, Keywords: []string{"wifi"}}, center, "cafe wifi"},
		{"general category uses the activity", types.ActivitySlot{Activity: "surprise me", Category: types.CategoryGeneral}, center, "surprise me"},
		{"duplicate keywords are skipped", types.ActivitySlot{Category: types.CategoryMuseum, Keywords: []string{"museum", "modern art"}}, soho, "museum modern art in Soho"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.slot, c, tt.bias))
		})
	}
}

func TestIsOutdoor(t *testing.T) {
	assert.True(t, IsOutdoor(types.Venue{Name: "Hyde Park"}))
	assert.True(t, IsOutdoor(types.Venue{Name: "Kew", Categories: []string{"botanical_garden"}}))
	assert.False(t, IsOutdoor(types.Venue{Name: "NCP", Categories: []string{"parking"}}))
	assert.False(t, IsOutdoor(types.Venue{Name: "Tate Modern", Categories: []string{"museum"}}))
}

func TestGoogleClient_SearchText(t *testing.T) {
	ctx := context.Background()

	t.Run("sends bias and field mask and decodes places", func(t *testing.T) {
		var got searchTextRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/places:searchText", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
			assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.regularOpeningHours")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"places": [{
				"id": "ChIJ123",
				"displayName": {"text": "Battersea Park", "languageCode": "en"},
				"formattedAddress": "London SW11 4NJ, UK",
				"location": {"latitude": 51.4791, "longitude": -0.1566},
				"types": ["park", "tourist_attraction"],
				"rating": 4.7,
				"userRatingCount": 21000,
				"regularOpeningHours": {
					"periods": [{"open": {"day": 1, "hour": 22, "minute": 0}, "close": {"day": 2, "hour": 2, "minute": 0}}],
					"weekdayDescriptions": ["Monday: 10:00 PM – 2:00 AM"]
				}
			}]}`))
		}))
		defer server.Close()

		client, err := NewGoogleClient(config.PlacesConfig{APIKey: "test-key", BaseURL: server.URL}, nil, testLogger())
		require.NoError(t, err)

		venues, err := client.SearchText(ctx, TextSearchRequest{
			Query:        "park",
			Bias:         types.Coordinates{Latitude: 51.5, Longitude: -0.12},
			RadiusMeters: 80_000,
			MinRating:    4.3,
		})
		require.NoError(t, err)

		assert.Equal(t, "park", got.TextQuery)
		require.NotNil(t, got.LocationBias)
		assert.Equal(t, 51.5, got.LocationBias.Circle.Center.Latitude)
		assert.Equal(t, maxBiasRadius, got.LocationBias.Circle.Radius)
		assert.Equal(t, 4.0, got.MinRating)

		require.Len(t, venues, 1)
		v := venues[0]
		assert.Equal(t, "ChIJ123", v.ExternalID)
		assert.Equal(t, "Battersea Park", v.Name)
		assert.True(t, v.IsOutdoor)
		require.NotNil(t, v.OpeningHours)
		require.Len(t, v.OpeningHours.Periods, 1)
		assert.Equal(t, 22, v.OpeningHours.Periods[0].Open.Hour)
		require.NotNil(t, v.OpeningHours.Periods[0].Close)
		assert.Equal(t, 2, v.OpeningHours.Periods[0].Close.Day)
	})

	t.Run("API errors carry the upstream message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`))
		}))
		defer server.Close()

		client, err := NewGoogleClient(config.PlacesConfig{APIKey: "bad", BaseURL: server.URL}, nil, testLogger())
		require.NoError(t, err)

		_, err = client.SearchText(ctx, TextSearchRequest{Query: "cafe"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key not valid")
	})

	t.Run("breaker opens after repeated failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cb := breaker.New[[]types.Venue]("places", config.BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute}, testLogger())
		client, err := NewGoogleClient(config.PlacesConfig{APIKey: "k", BaseURL: server.URL}, cb, testLogger())
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err = client.SearchText(ctx, TextSearchRequest{Query: "cafe"})
			require.Error(t, err)
		}
		_, err = client.SearchText(ctx, TextSearchRequest{Query: "cafe"})
		assert.ErrorIs(t, err, breaker.ErrOpen)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("missing key fails at construction", func(t *testing.T) {
		_, err := NewGoogleClient(config.PlacesConfig{}, nil, testLogger())
		assert.ErrorIs(t, err, types.ErrMissingAPIKey)
	})
}
