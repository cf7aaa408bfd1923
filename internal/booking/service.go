package booking

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RecordStore persists confirmed bookings.
type RecordStore interface {
	SaveBooking(ctx context.Context, r *Record) error
}

// BookRequest is the inbound book call.
type BookRequest struct {
	Holder       *Holder         `json:"holder"`
	Payment      Payment         `json:"payment"`
	Guests       []Guest         `json:"guests"`
	PrebookID    string          `json:"prebookId"`
	GuestPayment json.RawMessage `json:"guestPayment,omitempty"`
	Hotel        json.RawMessage `json:"hotel,omitempty"`
	Pricing      json.RawMessage `json:"pricing,omitempty"`
	Event        json.RawMessage `json:"event,omitempty"`
}

// Service runs prebook and book requests against the provider.
type Service struct {
	provider Provider
	records  RecordStore
	log      *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. records may be nil, in which case
// bookings are not persisted.
func NewService(provider Provider, records RecordStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{provider: provider, records: records, log: log, now: time.Now}
}

// WithClock overrides the clock (for tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Prebook places a hold on an offer.
func (s *Service) Prebook(ctx context.Context, offerID string) (Hold, error) {
	flow := NewFlow(s.provider)
	hold, err := flow.Prebook(ctx, offerID)
	if err != nil {
		s.log.Warn("prebook failed", "offer_id", offerID, "state", flow.State().String(), "err", err)
		return Hold{}, err
	}
	return hold, nil
}

// Book validates req, places the booking and persists a record. Validation
// failures never reach the provider. A record that fails to persist is
// logged; the booking itself still succeeds.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Confirmation, error) {
	form, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	flow := Resume(s.provider, req.PrebookID).WithClock(s.now)
	if len(req.GuestPayment) > 0 {
		flow.WithGuestPayment(req.GuestPayment)
	}
	if err := flow.CollectHolderAndGuests(form); err != nil {
		return nil, err
	}

	conf, err := flow.Book(ctx, req.Payment)
	if err != nil {
		s.log.Error("booking failed", "prebook_id", req.PrebookID, "state", flow.State().String(), "err", err)
		return nil, err
	}

	s.log.Info("booking confirmed", "prebook_id", req.PrebookID, "booking_ref", conf.Meta.GumdropBookingID)

	if s.records == nil {
		return conf, nil
	}

	rec := &Record{
		ID:                uuid.NewString(),
		BookingRef:        conf.Meta.GumdropBookingID,
		ProviderBookingID: conf.ProviderBookingID(),
		PrebookID:         req.PrebookID,
		Status:            StatusConfirmed,
		Holder:            conf.Meta.Holder,
		Guests:            conf.Meta.Guests,
		Hotel:             req.Hotel,
		Pricing:           req.Pricing,
		Event:             req.Event,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.records.SaveBooking(ctx, rec); err != nil {
		s.log.Error("persisting booking record failed", "booking_ref", rec.BookingRef, "err", err)
		return conf, nil
	}
	conf.Record = rec
	return conf, nil
}
