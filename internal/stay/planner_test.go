package stay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/stay"
)

// ---- mocks ----

type mockGeocoder struct {
	resolveFn func(ctx context.Context, text, fallback string) (stay.Coordinates, error)
}

func (m *mockGeocoder) Resolve(ctx context.Context, text, fallback string) (stay.Coordinates, error) {
	return m.resolveFn(ctx, text, fallback)
}

type mockInventory struct {
	searchFn func(ctx context.Context, lat, lon float64, radius int) ([]stay.HotelCandidate, error)
}

func (m *mockInventory) SearchHotels(ctx context.Context, lat, lon float64, radius int) ([]stay.HotelCandidate, error) {
	return m.searchFn(ctx, lat, lon, radius)
}

type mockPricer struct {
	priceFn func(ctx context.Context, ids []string, w stay.StayWindow) (stay.Pricing, error)
}

func (m *mockPricer) PriceHotels(ctx context.Context, ids []string, w stay.StayWindow) (stay.Pricing, error) {
	return m.priceFn(ctx, ids, w)
}

func fixedClock() time.Time { return time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC) }

func okGeocoder() *mockGeocoder {
	return &mockGeocoder{resolveFn: func(context.Context, string, string) (stay.Coordinates, error) {
		return stay.Coordinates{Lat: 51.5, Lon: -0.12}, nil
	}}
}

func twoHotelInventory() *mockInventory {
	return &mockInventory{searchFn: func(context.Context, float64, float64, int) ([]stay.HotelCandidate, error) {
		return []stay.HotelCandidate{{ID: "h1", Name: "One"}, {ID: "h2", Name: "Two"}}, nil
	}}
}

var event = stay.EventDetails{Title: "Gig", Date: "Saturday, October 4", Location: "O2 Arena, London"}

// ---- tests ----

func TestPlanner_FullPipeline(t *testing.T) {
	var gotRadius int
	var gotWindow stay.StayWindow
	inv := &mockInventory{searchFn: func(_ context.Context, lat, lon float64, radius int) ([]stay.HotelCandidate, error) {
		gotRadius = radius
		return []stay.HotelCandidate{{ID: "h1"}, {ID: "h2"}, {ID: "h3"}}, nil
	}}
	pricer := &mockPricer{priceFn: func(_ context.Context, ids []string, w stay.StayWindow) (stay.Pricing, error) {
		gotWindow = w
		assert.Equal(t, []string{"h1", "h2", "h3"}, ids)
		return stay.Pricing{Window: w, Offers: map[string][]stay.RateOffer{
			"h1": {offer("h1", "a", 150)},
			"h3": {offer("h3", "b", 90), offer("h3", "c", 70)},
		}}, nil
	}}

	p := stay.NewPlanner(okGeocoder(), inv, pricer, stay.NewAdvisor(nil, nil), nil).WithClock(fixedClock)
	plan, err := p.Plan(context.Background(), stay.PlanRequest{Event: event})

	require.NoError(t, err)
	assert.Equal(t, stay.DefaultRadiusMeters, gotRadius)
	assert.Equal(t, "2025-10-03", gotWindow.CheckinDate())
	assert.Equal(t, "2025-10-03", plan.Checkin)
	assert.Equal(t, "2025-10-05", plan.Checkout)
	assert.Equal(t, 3, plan.Candidates)
	require.Len(t, plan.Hotels, 2)
	assert.Equal(t, 70.0, plan.Hotels[1].Pricing.Amount)
	require.NotNil(t, plan.Recommendations)
	assert.Equal(t, stay.SourceHeuristic, plan.RecommendationSource)
	assert.Equal(t, 1, plan.Recommendations.BestBudget.Index)
}

func TestPlanner_PricingFailureYieldsEmptyList(t *testing.T) {
	pricer := &mockPricer{priceFn: func(context.Context, []string, stay.StayWindow) (stay.Pricing, error) {
		return stay.Pricing{}, errors.New("rates: 503")
	}}

	p := stay.NewPlanner(okGeocoder(), twoHotelInventory(), pricer, stay.NewAdvisor(nil, nil), nil).WithClock(fixedClock)
	plan, err := p.Plan(context.Background(), stay.PlanRequest{Event: event, Radius: 2000})

	require.NoError(t, err)
	assert.Empty(t, plan.Hotels)
	assert.Nil(t, plan.Recommendations)
}

func TestPlanner_GeocodeNotFoundPropagates(t *testing.T) {
	geo := &mockGeocoder{resolveFn: func(context.Context, string, string) (stay.Coordinates, error) {
		return stay.Coordinates{}, apperr.NotFound("geocoding results")
	}}
	p := stay.NewPlanner(geo, twoHotelInventory(), nil, nil, nil).WithClock(fixedClock)

	_, err := p.Plan(context.Background(), stay.PlanRequest{Event: event})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestPlanner_RejectsMissingInputs(t *testing.T) {
	p := stay.NewPlanner(okGeocoder(), twoHotelInventory(), nil, nil, nil).WithClock(fixedClock)

	_, err := p.Plan(context.Background(), stay.PlanRequest{Event: stay.EventDetails{Date: "October 4"}})
	assert.True(t, apperr.IsValidation(err))

	_, err = p.Plan(context.Background(), stay.PlanRequest{Event: stay.EventDetails{Location: "London", Date: "whenever"}})
	assert.True(t, apperr.IsValidation(err))
}

func TestPlanner_NoCandidatesSkipsPricing(t *testing.T) {
	inv := &mockInventory{searchFn: func(context.Context, float64, float64, int) ([]stay.HotelCandidate, error) {
		return nil, nil
	}}
	p := stay.NewPlanner(okGeocoder(), inv, nil, nil, nil).WithClock(fixedClock)

	plan, err := p.Plan(context.Background(), stay.PlanRequest{Event: event})
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Candidates)
	assert.NotNil(t, plan.Hotels)
}
