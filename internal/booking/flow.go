package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/neexbeast/gumdrop/internal/apperr"
)

// State is a position in the booking pipeline.
type State int

const (
	Selected State = iota
	Prebooked
	HolderCollected
	Booked
	PrebookFailed
	BookingFailed
)

func (s State) String() string {
	switch s {
	case Selected:
		return "selected"
	case Prebooked:
		return "prebooked"
	case HolderCollected:
		return "holder_collected"
	case Booked:
		return "booked"
	case PrebookFailed:
		return "prebook_failed"
	case BookingFailed:
		return "booking_failed"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// flow's current state.
var ErrInvalidTransition = errors.New("booking: invalid state transition")

// Provider is the upstream that places holds and bookings.
type Provider interface {
	Prebook(ctx context.Context, offerID string) (Hold, error)
	Book(ctx context.Context, payload BookPayload) (map[string]any, error)
}

// Flow drives one selection through prebook, holder collection and booking.
// It issues at most one book call.
type Flow struct {
	mu       sync.Mutex
	provider Provider
	now      func() time.Time

	state        State
	hold         Hold
	form         Form
	guestPayment []byte
	confirmation *Confirmation
}

// NewFlow starts a flow in the Selected state.
func NewFlow(p Provider) *Flow {
	return &Flow{provider: p, now: time.Now, state: Selected}
}

// Resume starts a flow at Prebooked for an existing prebook id.
func Resume(p Provider, prebookID string) *Flow {
	return &Flow{provider: p, now: time.Now, state: Prebooked, hold: Hold{PrebookID: prebookID}}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Prebook places a hold on offerID.
func (f *Flow) Prebook(ctx context.Context, offerID string) (Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Selected {
		return Hold{}, fmt.Errorf("prebook from %s: %w", f.state, ErrInvalidTransition)
	}
	if strings.TrimSpace(offerID) == "" {
		return Hold{}, apperr.Invalid("offerId is required", "offerId")
	}

	hold, err := f.provider.Prebook(ctx, offerID)
	if err != nil {
		f.state = PrebookFailed
		return Hold{}, err
	}
	if hold.OfferID == "" {
		hold.OfferID = offerID
	}
	f.hold = hold
	f.state = Prebooked
	return hold, nil
}

// CollectHolderAndGuests validates and stores the form. On failure the state
// is unchanged. It may be repeated until the booking is placed.
func (f *Flow) CollectHolderAndGuests(form Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Prebooked && f.state != HolderCollected {
		return fmt.Errorf("collect holder from %s: %w", f.state, ErrInvalidTransition)
	}

	clean, err := ValidateForm(form)
	if err != nil {
		return err
	}
	f.form = clean
	f.state = HolderCollected
	return nil
}

// WithClock overrides the clock used for booking references.
func (f *Flow) WithClock(now func() time.Time) *Flow {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
	return f
}

// WithGuestPayment attaches an opaque guest-payment block forwarded to the provider.
func (f *Flow) WithGuestPayment(raw []byte) *Flow {
	f.mu.Lock()
	f.guestPayment = raw
	f.mu.Unlock()
	return f
}

// Book places the booking. Any second call fails with ErrInvalidTransition.
func (f *Flow) Book(ctx context.Context, payment Payment) (*Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != HolderCollected {
		return nil, fmt.Errorf("book from %s: %w", f.state, ErrInvalidTransition)
	}
	if payment.Method == "" {
		payment.Method = PaymentTransactionID
	}

	resp, err := f.provider.Book(ctx, BookPayload{
		Holder:       f.form.Holder,
		Payment:      payment,
		Guests:       f.form.Guests,
		PrebookID:    f.hold.PrebookID,
		GuestPayment: f.guestPayment,
	})
	if err != nil {
		f.state = BookingFailed
		return nil, err
	}

	f.confirmation = &Confirmation{
		Provider: resp,
		Meta: Meta{
			Holder:           f.form.Holder,
			Guests:           f.form.Guests,
			Payment:          payment,
			GumdropBookingID: NewBookingRef(f.now()),
		},
	}
	f.state = Booked
	return f.confirmation, nil
}

// NewBookingRef returns "GD" followed by the upper-case base-36 millisecond timestamp.
func NewBookingRef(t time.Time) string {
	return "GD" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}
