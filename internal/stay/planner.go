package stay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neexbeast/gumdrop/internal/apperr"
)

// DefaultRadiusMeters is the hotel search radius when none is supplied.
const DefaultRadiusMeters = 5000

// Geocoder resolves a free-text location to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, text, fallbackAddress string) (Coordinates, error)
}

// Inventory lists hotels around a point.
type Inventory interface {
	SearchHotels(ctx context.Context, lat, lon float64, radiusMeters int) ([]HotelCandidate, error)
}

// Pricer looks up offers for a set of hotels over a stay window.
type Pricer interface {
	PriceHotels(ctx context.Context, hotelIDs []string, window StayWindow) (Pricing, error)
}

// PlanRequest is the input to Planner.Plan.
type PlanRequest struct {
	Event  EventDetails `json:"event"`
	Radius int          `json:"radius"`
}

// Plan is the outcome of the full pipeline for one event.
type Plan struct {
	Event                EventDetails     `json:"event"`
	Location             Coordinates      `json:"location"`
	Checkin              string           `json:"checkin"`
	Checkout             string           `json:"checkout"`
	Candidates           int              `json:"candidates"`
	Hotels               []PricedHotel    `json:"hotels"`
	Recommendations      *Recommendations `json:"recommendations,omitempty"`
	RecommendationSource string           `json:"recommendationSource,omitempty"`
}

// Planner runs geocode, inventory, pricing, reconciliation and
// recommendation in order.
type Planner struct {
	geo     Geocoder
	inv     Inventory
	pricer  Pricer
	advisor *Advisor
	log     *slog.Logger
	now     func() time.Time
}

// NewPlanner wires a Planner.
func NewPlanner(geo Geocoder, inv Inventory, pricer Pricer, advisor *Advisor, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{geo: geo, inv: inv, pricer: pricer, advisor: advisor, log: log, now: time.Now}
}

// WithClock overrides the clock used to infer the event year.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// Plan executes the pipeline. A pricing failure yields an empty hotel list
// rather than an error.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	if req.Event.Location == "" {
		return nil, apperr.Invalid("event location is required", "event.location")
	}
	radius := req.Radius
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}

	window, err := WindowForEvent(req.Event.Date, p.now())
	if err != nil {
		return nil, err
	}

	coords, err := p.geo.Resolve(ctx, req.Event.Location, req.Event.Address)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", req.Event.Location, err)
	}

	candidates, err := p.inv.SearchHotels(ctx, coords.Lat, coords.Lon, radius)
	if err != nil {
		return nil, fmt.Errorf("searching hotels: %w", err)
	}

	plan := &Plan{
		Event:      req.Event,
		Location:   coords,
		Checkin:    window.CheckinDate(),
		Checkout:   window.CheckoutDate(),
		Candidates: len(candidates),
		Hotels:     []PricedHotel{},
	}
	if len(candidates) == 0 {
		return plan, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	pricing, err := p.pricer.PriceHotels(ctx, ids, window)
	if err != nil {
		p.log.Warn("pricing failed", "hotels", len(ids), "err", err)
		return plan, nil
	}

	plan.Hotels = Reconcile(candidates, pricing.Offers)
	if len(plan.Hotels) == 0 || p.advisor == nil {
		return plan, nil
	}

	recs, err := p.advisor.Recommend(ctx, plan.Hotels, req.Event)
	if err != nil {
		p.log.Warn("recommendation failed", "err", err)
		return plan, nil
	}
	plan.Recommendations = &recs
	plan.RecommendationSource = recs.Source
	return plan, nil
}
