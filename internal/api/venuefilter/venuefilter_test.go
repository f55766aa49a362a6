package venuefilter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-day-planner/internal/api/weather"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

type MockWeatherService struct {
	mock.Mock
}

func (m *MockWeatherService) Assess(ctx context.Context, at types.Coordinates, when time.Time) (weather.Assessment, error) {
	args := m.Called(ctx, at, when)
	return args.Get(0).(weather.Assessment), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustLondon(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

// 2025-06-16 is a Monday.
func at(loc *time.Location, day, hour, minute int) time.Time {
	return time.Date(2025, 6, 16+day-1, hour, minute, 0, 0, loc)
}

func nightclub() types.Venue {
	return types.Venue{Name: "Fabric", OpeningHours: &types.OpeningHours{Periods: []types.OpeningPeriod{
		{Open: types.DayTime{Day: 1, Hour: 22}, Close: &types.DayTime{Day: 2, Hour: 2}},
	}}}
}

func TestIsOpenAt_Periods(t *testing.T) {
	loc := mustLondon(t)
	v := nightclub()

	assert.Equal(t, HoursCheck{Open: true, Confidence: ConfidenceHigh}, IsOpenAt(v, at(loc, 1, 23, 30), loc))
	assert.True(t, IsOpenAt(v, at(loc, 2, 1, 0), loc).Open)
	assert.False(t, IsOpenAt(v, at(loc, 1, 10, 0), loc).Open)
	assert.False(t, IsOpenAt(v, at(loc, 2, 2, 0), loc).Open, "close time is exclusive")

	t.Run("same-day close before open means after midnight", func(t *testing.T) {
		bar := types.Venue{OpeningHours: &types.OpeningHours{Periods: []types.OpeningPeriod{
			{Open: types.DayTime{Day: 1, Hour: 22}, Close: &types.DayTime{Day: 1, Hour: 2}},
		}}}
		assert.True(t, IsOpenAt(bar, at(loc, 1, 23, 30), loc).Open)
		assert.True(t, IsOpenAt(bar, at(loc, 2, 1, 0), loc).Open)
		assert.False(t, IsOpenAt(bar, at(loc, 1, 10, 0), loc).Open)
	})

	t.Run("saturday night into sunday wraps the week", func(t *testing.T) {
		club := types.Venue{OpeningHours: &types.OpeningHours{Periods: []types.OpeningPeriod{
			{Open: types.DayTime{Day: 6, Hour: 22}, Close: &types.DayTime{Day: 0, Hour: 4}},
		}}}
		// 2025-06-22 is the following Sunday
		sunday := time.Date(2025, 6, 22, 3, 0, 0, 0, loc)
		assert.True(t, IsOpenAt(club, sunday, loc).Open)
		assert.False(t, IsOpenAt(club, sunday.Add(2*time.Hour), loc).Open)
	})

	t.Run("no close means always open", func(t *testing.T) {
		shop := types.Venue{OpeningHours: &types.OpeningHours{Periods: []types.OpeningPeriod{{Open: types.DayTime{Day: 0}}}}}
		assert.Equal(t, HoursCheck{Open: true, Confidence: ConfidenceHigh}, IsOpenAt(shop, at(loc, 3, 4, 0), loc))
	})

	t.Run("evaluated in the city zone, not the instant's zone", func(t *testing.T) {
		// 22:30 UTC in June is 23:30 in London
		utc := time.Date(2025, 6, 16, 22, 30, 0, 0, time.UTC)
		assert.True(t, IsOpenAt(v, utc, loc).Open)
	})
}

func TestIsOpenAt_WeekdayText(t *testing.T) {
	loc := mustLondon(t)
	v := types.Venue{OpeningHours: &types.OpeningHours{WeekdayText: []string{
		"Monday: 9:00 AM – 5:00 PM",
		"Tuesday: 6:00 – 11:00 PM",
		"Wednesday: Closed",
		"Thursday: Open 24 hours",
		"Friday: 12:00 PM – 2:00 AM",
	}}}

	assert.Equal(t, HoursCheck{Open: true, Confidence: ConfidenceMedium}, IsOpenAt(v, at(loc, 1, 10, 0), loc))
	assert.False(t, IsOpenAt(v, at(loc, 1, 18, 0), loc).Open)
	assert.True(t, IsOpenAt(v, at(loc, 2, 19, 0), loc).Open)
	assert.False(t, IsOpenAt(v, at(loc, 2, 7, 0), loc).Open)
	assert.False(t, IsOpenAt(v, at(loc, 3, 12, 0), loc).Open)
	assert.True(t, IsOpenAt(v, at(loc, 4, 3, 0), loc).Open)
	assert.True(t, IsOpenAt(v, at(loc, 6, 1, 0), loc).Open, "friday hours run past midnight")

	t.Run("unparseable text is low confidence and assumed open", func(t *testing.T) {
		odd := types.Venue{OpeningHours: &types.OpeningHours{WeekdayText: []string{"Call ahead for hours"}}}
		assert.Equal(t, HoursCheck{Open: true, Confidence: ConfidenceLow}, IsOpenAt(odd, at(loc, 1, 10, 0), loc))
	})

	t.Run("no data is unknown and assumed open", func(t *testing.T) {
		assert.Equal(t, HoursCheck{Open: true, Confidence: ConfidenceUnknown}, IsOpenAt(types.Venue{}, at(loc, 1, 10, 0), loc))
	})
}

func park(name string) types.Venue {
	return types.Venue{Name: name, IsOutdoor: true, Coordinates: types.Coordinates{Latitude: 51.5073, Longitude: -0.1657}}
}

func TestFilter_ChooseWeatherAwareVenue(t *testing.T) {
	ctx := context.Background()
	when := time.Date(2025, 6, 16, 14, 0, 0, 0, time.UTC)
	museum := types.Venue{Name: "V&A"}

	t.Run("indoor venues skip the forecast", func(t *testing.T) {
		svc := new(MockWeatherService)
		f := NewFilter(svc, testLogger())
		choice := f.ChooseWeatherAwareVenue(ctx, museum, nil, when)
		assert.Equal(t, "V&A", choice.Venue.Name)
		assert.True(t, choice.WeatherSuitable)
		svc.AssertNotCalled(t, "Assess", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rain swaps in the first indoor alternative", func(t *testing.T) {
		svc := new(MockWeatherService)
		f := NewFilter(svc, testLogger())
		svc.On("Assess", mock.Anything, mock.Anything, when).
			Return(weather.Assessment{Suitable: false, Known: true, Reason: "light rain forecast"}, nil).Once()

		choice := f.ChooseWeatherAwareVenue(ctx, park("Hyde Park"), []types.Venue{park("Green Park"), museum}, when)
		assert.True(t, choice.Substituted)
		assert.False(t, choice.WeatherSuitable)
		assert.Equal(t, "V&A", choice.Venue.Name)
		assert.Equal(t, "light rain forecast", choice.Reason)
	})

	t.Run("rain with only outdoor alternatives takes the first one", func(t *testing.T) {
		svc := new(MockWeatherService)
		f := NewFilter(svc, testLogger())
		svc.On("Assess", mock.Anything, mock.Anything, when).
			Return(weather.Assessment{Suitable: false, Known: true, Reason: "heavy rain forecast"}, nil).Once()

		choice := f.ChooseWeatherAwareVenue(ctx, park("Hyde Park"), []types.Venue{park("Green Park"), park("St James's Park")}, when)
		assert.True(t, choice.Substituted)
		assert.False(t, choice.WeatherSuitable)
		assert.Equal(t, "Green Park", choice.Venue.Name)
		assert.Equal(t, "heavy rain forecast", choice.Reason)
		svc.AssertNumberOfCalls(t, "Assess", 1)
	})

	t.Run("forecast errors are treated as acceptable", func(t *testing.T) {
		svc := new(MockWeatherService)
		f := NewFilter(svc, testLogger())
		svc.On("Assess", mock.Anything, mock.Anything, when).Return(weather.Assessment{Suitable: true}, errors.New("down")).Once()

		choice := f.ChooseWeatherAwareVenue(ctx, park("Hyde Park"), []types.Venue{museum}, when)
		assert.False(t, choice.Substituted)
		assert.True(t, choice.WeatherSuitable)
	})
}

func TestFilter_Apply(t *testing.T) {
	ctx := context.Background()
	loc := mustLondon(t)
	morning := at(loc, 1, 10, 0)

	t.Run("closed primary is replaced by an open alternative", func(t *testing.T) {
		f := NewFilter(nil, testLogger())
		open := types.Venue{Name: "Open Cafe", OpeningHours: &types.OpeningHours{Periods: []types.OpeningPeriod{
			{Open: types.DayTime{Day: 1, Hour: 8}, Close: &types.DayTime{Day: 1, Hour: 18}},
		}}}
		primary := nightclub()

		out := f.Apply(ctx, &types.SearchResult{Primary: &primary, Alternatives: []types.Venue{open}}, morning, loc)
		assert.Equal(t, "Open Cafe", out.Venue.Name)
		require.NotNil(t, out.Substitution)
		assert.Equal(t, ReasonClosed, out.Substitution.Reason)
		assert.Equal(t, "Fabric", out.Substitution.ReplacedVenue)
	})

	t.Run("closed primary without substitutes is kept with a caveat", func(t *testing.T) {
		f := NewFilter(nil, testLogger())
		primary := nightclub()

		out := f.Apply(ctx, &types.SearchResult{Primary: &primary}, morning, loc)
		assert.Equal(t, "Fabric", out.Venue.Name)
		assert.Nil(t, out.Substitution)
		require.Len(t, out.Caveats, 1)
		assert.Contains(t, out.Caveats[0], "10:00 AM")
	})

	t.Run("weather substitution is tagged", func(t *testing.T) {
		svc := new(MockWeatherService)
		f := NewFilter(svc, testLogger())
		svc.On("Assess", mock.Anything, mock.Anything, mock.Anything).
			Return(weather.Assessment{Suitable: false, Known: true, Reason: "Thunderstorm forecast"}, nil).Once()
		primary := park("Regent's Park")
		gallery := types.Venue{Name: "Wallace Collection"}

		out := f.Apply(ctx, &types.SearchResult{Primary: &primary, Alternatives: []types.Venue{gallery}}, morning, loc)
		assert.Equal(t, "Wallace Collection", out.Venue.Name)
		require.NotNil(t, out.Substitution)
		assert.Equal(t, ReasonWeather, out.Substitution.Reason)
		assert.Equal(t, "Regent's Park", out.Substitution.ReplacedVenue)
		assert.Equal(t, "Thunderstorm forecast", out.Substitution.Detail)
	})

	t.Run("bad weather without alternatives adds a caveat", func(t *testing.T) {
		svc := new(MockWeatherService)
		f := NewFilter(svc, testLogger())
		svc.On("Assess", mock.Anything, mock.Anything, mock.Anything).
			Return(weather.Assessment{Suitable: false, Known: true, Reason: "too cold (2°C)"}, nil).Once()
		primary := park("Hampstead Heath")

		out := f.Apply(ctx, &types.SearchResult{Primary: &primary}, morning, loc)
		assert.Equal(t, "Hampstead Heath", out.Venue.Name)
		assert.Nil(t, out.Substitution)
		require.Len(t, out.Caveats, 1)
		assert.Contains(t, out.Caveats[0], "too cold")
	})

	t.Run("placeholders pass through untouched", func(t *testing.T) {
		svc := new(MockWeatherService)
		f := NewFilter(svc, testLogger())
		primary := types.Venue{Name: "client meeting", IsPlaceholder: true, IsOutdoor: true}

		out := f.Apply(ctx, &types.SearchResult{Primary: &primary}, morning, loc)
		assert.Equal(t, "client meeting", out.Venue.Name)
		assert.Empty(t, out.Caveats)
		svc.AssertNotCalled(t, "Assess", mock.Anything, mock.Anything, mock.Anything)
	})
}
