package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-day-planner/app/breaker"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/api/city"
	generativeAI "github.com/FACorreiaa/go-day-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateContent(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	args := m.Called(ctx, prompt, cfg)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func london(t *testing.T) *types.CityConfig {
	t.Helper()
	repo, err := city.NewGazetteerRepository(testLogger())
	require.NoError(t, err)
	c, err := repo.FindCityBySlug(context.Background(), "london")
	require.NoError(t, err)
	return c
}

func setupExtractorServiceTest(gen *MockGenerator, retries uint64) *ServiceImpl {
	var g generativeAI.Generator
	if gen != nil {
		g = gen
	}
	return NewServiceImpl(g, nil, config.LLMConfig{Retries: retries}, testLogger())
}

const plannedDay = `{
  "fixed_time_activities": [
    {"activity": "drinks", "location": "Chelsea", "time": "7", "venue_type": "bar", "venue_preference": "cocktail bar", "mention_order": 3}
  ],
  "time_blocks": [
    {"activity": "work", "location": "Shoreditch", "start_time": "10", "end_time": "3", "venue_type": "cafe", "keywords": ["WiFi", "wifi", "quiet"], "mention_order": 1}
  ],
  "fixed_appointments": [],
  "flexible_activities": [
    {"activity": "lunch", "location": "nearby", "venue_type": "restaurant", "mention_order": 2}
  ]
}`

func TestExtractorService_Extract(t *testing.T) {
	ctx := context.Background()
	c := london(t)

	t.Run("LLM output is normalized and ordered", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 1)
		gen.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(plannedDay, nil).Once()

		slots, err := service.Extract(ctx, Request{
			Query: "work from 10-3 in Shoreditch, lunch nearby, drinks in Chelsea around 7",
			City:  c,
			Date:  "2025-06-14",
		})
		require.NoError(t, err)
		require.Len(t, slots, 3)

		assert.Equal(t, "work", slots[0].Activity)
		assert.Equal(t, types.SourceTimeBlock, slots[0].Source)
		assert.Equal(t, "10:00", slots[0].Time)
		assert.Equal(t, "15:00", slots[0].EndTime)
		assert.Equal(t, 300, slots[0].DurationMinutes)
		assert.Equal(t, types.CategoryCafe, slots[0].Category)
		assert.Equal(t, []string{"wifi", "quiet"}, slots[0].Keywords)

		assert.Equal(t, "lunch", slots[1].Activity)
		assert.True(t, slots[1].Nearby)
		assert.Empty(t, slots[1].Time)
		assert.Equal(t, types.CategoryRestaurant, slots[1].Category)

		assert.Equal(t, "drinks", slots[2].Activity)
		assert.Equal(t, "19:00", slots[2].Time)
		assert.True(t, slots[2].TimeAmbiguous)
		assert.Equal(t, "Chelsea", slots[2].Location)
		gen.AssertExpectations(t)
	})

	t.Run("fenced JSON is accepted", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 0)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
			Return("Here you go:\n```json\n"+plannedDay+"\n```", nil).Once()

		slots, err := service.Extract(ctx, Request{Query: "work, lunch, drinks", City: c})
		require.NoError(t, err)
		assert.Len(t, slots, 3)
		gen.AssertExpectations(t)
	})

	t.Run("LLM failure falls back to keyword detection after one retry", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 1)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("quota exceeded")).Twice()

		slots, err := service.Extract(ctx, Request{Query: "lunch in Soho then drinks at 7", City: c})
		require.NoError(t, err)
		require.Len(t, slots, 2)

		assert.Equal(t, types.CategoryRestaurant, slots[0].Category)
		assert.Equal(t, "Soho", slots[0].Location)
		assert.Empty(t, slots[0].Time)

		assert.Equal(t, types.CategoryBar, slots[1].Category)
		assert.Equal(t, "19:00", slots[1].Time)
		assert.Equal(t, types.SourceFixedTime, slots[1].Source)
		gen.AssertExpectations(t)
	})

	t.Run("unusable response degrades to the raw query", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 1)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return("I cannot help with that", nil).Twice()

		slots, err := service.Extract(ctx, Request{Query: "something fun please", City: c, StartLocation: "Camden"})
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "something fun please", slots[0].Activity)
		assert.Equal(t, types.CategoryGeneral, slots[0].Category)
		assert.Equal(t, "Camden", slots[0].Location)
		gen.AssertExpectations(t)
	})

	t.Run("nil generator uses keywords directly", func(t *testing.T) {
		service := setupExtractorServiceTest(nil, 1)

		slots, err := service.Extract(ctx, Request{Query: "museum in South Kensington", City: c})
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, types.CategoryMuseum, slots[0].Category)
		assert.Equal(t, "South Kensington", slots[0].Location)
	})

	t.Run("empty query is a validation error", func(t *testing.T) {
		service := setupExtractorServiceTest(nil, 0)

		_, err := service.Extract(ctx, Request{Query: "   ", City: c})
		require.Error(t, err)
		assert.Equal(t, types.KindValidation, types.KindOf(err))
	})

	t.Run("open breaker skips the LLM", func(t *testing.T) {
		gen := new(MockGenerator)
		cb := breaker.New[string]("gemini", config.BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute}, testLogger())
		service := NewServiceImpl(gen, cb, config.LLMConfig{Retries: 3}, testLogger())
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("down")).Once()

		for i := 0; i < 2; i++ {
			slots, err := service.Extract(ctx, Request{Query: "coffee in Soho", City: c})
			require.NoError(t, err)
			require.Len(t, slots, 1)
			assert.Equal(t, types.CategoryCafe, slots[0].Category)
		}
		gen.AssertNumberOfCalls(t, "GenerateContent", 1)
	})
}

func TestExtractorService_LLMNormalization(t *testing.T) {
	ctx := context.Background()
	c := london(t)

	t.Run("locations not grounded in the request are dropped", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 0)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(`{
			"flexible_activities": [
				{"activity": "brunch", "location": "Atlantis", "venue_type": "restaurant", "mention_order": 1},
				{"activity": "browse stalls", "location": "Borough Market", "venue_type": "shopping", "mention_order": 2},
				{"activity": "walk", "location": "south ken", "venue_type": "park", "mention_order": 3}
			]
		}`, nil).Once()

		slots, err := service.Extract(ctx, Request{Query: "brunch, browse stalls at Borough Market, then a walk in south ken", City: c})
		require.NoError(t, err)
		require.Len(t, slots, 3)
		assert.Empty(t, slots[0].Location)
		assert.Equal(t, "Borough Market", slots[1].Location)
		assert.Equal(t, "South Kensington", slots[2].Location)
	})

	t.Run("time block with higher priority wins a collision", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 0)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(`{
			"fixed_time_activities": [
				{"activity": "coffee", "location": "Soho", "time": "10am", "venue_type": "cafe", "mention_order": 1}
			],
			"time_blocks": [
				{"activity": "coffee and emails", "location": "Soho", "start_time": "10am", "end_time": "12pm", "venue_type": "cafe", "mention_order": 2}
			]
		}`, nil).Once()

		slots, err := service.Extract(ctx, Request{Query: "coffee and emails in Soho 10am-12pm", City: c})
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, types.SourceTimeBlock, slots[0].Source)
		assert.Equal(t, "coffee and emails", slots[0].Activity)
		assert.Equal(t, "12:00", slots[0].EndTime)
		assert.Equal(t, 1, slots[0].Order)
	})

	t.Run("appointments are skipped and unparseable times become flexible", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 0)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(`{
			"fixed_time_activities": [
				{"activity": "coffee", "time": "whenever", "venue_type": "cafe", "mention_order": 1}
			],
			"fixed_appointments": [
				{"activity": "client meeting", "time": "2pm", "mention_order": 2}
			]
		}`, nil).Once()

		slots, err := service.Extract(ctx, Request{Query: "coffee whenever, client meeting at 2pm", City: c})
		require.NoError(t, err)
		require.Len(t, slots, 2)

		assert.Equal(t, "coffee", slots[0].Activity)
		assert.Equal(t, types.SourceFlexible, slots[0].Source)
		assert.Empty(t, slots[0].Time)

		assert.Equal(t, types.CategorySkip, slots[1].Category)
		assert.Equal(t, "14:00", slots[1].Time)
		assert.Equal(t, defaultAppointmentMinutes, slots[1].DurationMinutes)
	})

	t.Run("missing mention order falls back to position in the text", func(t *testing.T) {
		gen := new(MockGenerator)
		service := setupExtractorServiceTest(gen, 0)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(`{
			"flexible_activities": [
				{"activity": "museum", "venue_type": "museum"},
				{"activity": "lunch", "venue_type": "restaurant"}
			]
		}`, nil).Once()

		slots, err := service.Extract(ctx, Request{Query: "lunch first and then a museum", City: c})
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, "lunch", slots[0].Activity)
		assert.Equal(t, "museum", slots[1].Activity)
	})
}

func TestParseExtraction_DropsInvalidItems(t *testing.T) {
	parsed, dropped, err := parseExtraction(`{
		"flexible_activities": [
			{"activity": ""},
			{"activity": "dinner", "min_rating": 7},
			{"activity": "dinner", "min_rating": 4.5}
		]
	}`, validator.New())
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, parsed.FlexibleActivities, 1)
	assert.Equal(t, 4.5, parsed.FlexibleActivities[0].MinRating)

	_, _, err = parseExtraction(`{"flexible_activities": [{"activity": ""}]}`, validator.New())
	assert.ErrorIs(t, err, ErrUnusableResponse)

	_, _, err = parseExtraction(`not json`, validator.New())
	assert.Error(t, err)
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		text string
		want types.VenueCategory
	}{
		{"grab lunch", types.CategoryRestaurant},
		{"coffee and a croissant", types.CategoryCafe},
		{"work on my laptop", types.CategoryCafe},
		{"cocktails with friends", types.CategoryBar},
		{"see an exhibition", types.CategoryMuseum},
		{"stroll by the river", types.CategoryPark},
		{"shopping for shoes", types.CategoryShopping},
		{"sightseeing", types.CategoryAttraction},
		{"dentist", types.CategorySkip},
		{"something else", types.CategoryGeneral},
		{"barber", types.CategoryGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCategory(tt.text))
		})
	}
}

func TestResolveCategory(t *testing.T) {
	assert.Equal(t, types.CategoryBar, resolveCategory("bar", "lunch"))
	assert.Equal(t, types.CategoryRestaurant, resolveCategory("general", "lunch"))
	assert.Equal(t, types.CategoryCafe, resolveCategory("coworking", "work"))
}

func TestKeywordSlots(t *testing.T) {
	c := london(t)
	slots := keywordSlots(Request{
		Query: "work from 10-3 in Shoreditch, client meeting at 2pm, dinner nearby",
		City:  c,
	})
	require.Len(t, slots, 3)

	assert.Equal(t, types.SourceTimeBlock, slots[0].Source)
	assert.Equal(t, "10:00", slots[0].Time)
	assert.Equal(t, "15:00", slots[0].EndTime)
	assert.Equal(t, "Shoreditch", slots[0].Location)

	assert.Equal(t, types.SourceFixedAppointment, slots[1].Source)
	assert.Equal(t, types.CategorySkip, slots[1].Category)
	assert.Equal(t, "14:00", slots[1].Time)

	assert.True(t, slots[2].Nearby)
	assert.Equal(t, types.CategoryRestaurant, slots[2].Category)
}

func TestKeywordSlots_And(t *testing.T) {
	c := london(t)

	t.Run("and between two activities splits them", func(t *testing.T) {
		slots := keywordSlots(Request{Query: "lunch in Soho and drinks in Chelsea at 7", City: c})
		require.Len(t, slots, 2)

		assert.Equal(t, "lunch in Soho", slots[0].Activity)
		assert.Equal(t, types.CategoryRestaurant, slots[0].Category)
		assert.Equal(t, "Soho", slots[0].Location)
		assert.Empty(t, slots[0].Time)

		assert.Equal(t, types.CategoryBar, slots[1].Category)
		assert.Equal(t, "Chelsea", slots[1].Location)
		assert.Equal(t, "19:00", slots[1].Time)
	})

	t.Run("and inside one activity stays whole", func(t *testing.T) {
		slots := keywordSlots(Request{Query: "fish and chips in Soho", City: c})
		require.Len(t, slots, 1)
		assert.Equal(t, "fish and chips in Soho", slots[0].Activity)
	})
}

func TestDedupe(t *testing.T) {
	slots := []types.ActivitySlot{
		{Activity: "coffee", Location: "Soho", Category: types.CategoryCafe, Time: "10:00", Source: types.SourceFixedTime, Order: 1},
		{Activity: "lunch", Category: types.CategoryRestaurant, Source: types.SourceFlexible, Order: 2},
		{Activity: "coffee block", Location: "soho", Category: types.CategoryCafe, Time: "10:00", Source: types.SourceTimeBlock, Order: 3},
		{Activity: "lunch again", Category: types.CategoryRestaurant, Source: types.SourceFlexible, Order: 4},
	}

	out := Dedupe(slots)
	require.Len(t, out, 2)
	assert.Equal(t, "coffee block", out[0].Activity)
	assert.Equal(t, 1, out[0].Order)
	assert.Equal(t, "lunch", out[1].Activity, "ties keep the first slot")
}

func TestOrder(t *testing.T) {
	slots := []types.ActivitySlot{
		{Activity: "breakfast", Category: types.CategoryRestaurant, Order: 1},
		{Activity: "drinks", Category: types.CategoryBar, Time: "19:00", Source: types.SourceFixedTime, Order: 2},
		{Activity: "museum", Category: types.CategoryMuseum, Time: "11:00", Source: types.SourceFixedTime, Order: 3},
		{Activity: "walk", Category: types.CategoryPark, Order: 4},
		{Activity: "shopping", Category: types.CategoryShopping, Order: 5},
	}

	out := Order(slots)
	got := make([]string, 0, len(out))
	for _, s := range out {
		got = append(got, s.Activity)
	}
	assert.Equal(t, []string{"breakfast", "museum", "walk", "shopping", "drinks"}, got)
}
