package api

import (
	"context"

	"github.com/neexbeast/gumdrop/internal/booking"
	"github.com/neexbeast/gumdrop/internal/session"
	"github.com/neexbeast/gumdrop/internal/stay"
	"github.com/neexbeast/gumdrop/internal/storage"
)

// Geocoder resolves a location (with optional fallback address) to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, text, fallbackAddress string) (stay.Coordinates, error)
}

// HotelProvider is the inventory and pricing side of the hotel provider.
type HotelProvider interface {
	SearchHotels(ctx context.Context, lat, lon float64, radiusMeters int) ([]stay.HotelCandidate, error)
	PriceHotels(ctx context.Context, hotelIDs []string, window stay.StayWindow) (stay.Pricing, error)
}

// Booker places prebook holds and bookings.
type Booker interface {
	Prebook(ctx context.Context, offerID string) (booking.Hold, error)
	Book(ctx context.Context, req booking.BookRequest) (*booking.Confirmation, error)
}

// Recommender picks budget, luxury and overall hotels from a priced list.
type Recommender interface {
	Recommend(ctx context.Context, hotels []stay.PricedHotel, event stay.EventDetails) (stay.Recommendations, error)
}

// Concierge answers free-form travel questions.
type Concierge interface {
	Concierge(ctx context.Context, prompt string) (string, error)
}

// StayPlanner runs the whole search-price-recommend pipeline.
type StayPlanner interface {
	Plan(ctx context.Context, req stay.PlanRequest) (*stay.Plan, error)
}

// EventScraper extracts event details from an event page.
type EventScraper interface {
	Scrape(ctx context.Context, url string) (stay.EventDetails, error)
}

// BookingRepo defines the booking record operations needed by handlers.
type BookingRepo interface {
	SaveBooking(ctx context.Context, rec *booking.Record) error
	GetBooking(ctx context.Context, id string) (*booking.Record, error)
	ListBookings(ctx context.Context, status booking.Status) ([]*booking.Record, error)
	UpdateBookingStatus(ctx context.Context, id string, status booking.Status) (bool, error)
	DeleteBooking(ctx context.Context, id string) (bool, error)
}

// ProfileRepo defines the profile operations needed by handlers.
type ProfileRepo interface {
	GetProfile(ctx context.Context) (*storage.Profile, error)
	UpsertProfile(ctx context.Context, p storage.Profile) error
}

// SessionStore is the payment handoff store.
type SessionStore = session.Store
