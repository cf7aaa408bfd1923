package booking

import (
	"encoding/json"
	"strings"
	"time"
)

// PaymentTransactionID is the payment method for pre-authorised transactions.
const PaymentTransactionID = "TRANSACTION_ID"

// Holder is the primary contact and payer.
type Holder struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (h Holder) complete() bool {
	return h.FirstName != "" && h.LastName != "" && h.Email != "" && h.Phone != ""
}

func (h Holder) trimmed() Holder {
	return Holder{
		FirstName: strings.TrimSpace(h.FirstName),
		LastName:  strings.TrimSpace(h.LastName),
		Email:     strings.TrimSpace(h.Email),
		Phone:     strings.TrimSpace(h.Phone),
	}
}

// Guest is one person staying. OccupancyNumber is 1-based.
type Guest struct {
	OccupancyNumber int    `json:"occupancyNumber"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Remarks         string `json:"remarks,omitempty"`
}

func (g Guest) complete() bool {
	return g.FirstName != "" && g.LastName != "" && g.Email != "" && g.Phone != ""
}

func (g Guest) trimmed() Guest {
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	g.Email = strings.TrimSpace(g.Email)
	g.Phone = strings.TrimSpace(g.Phone)
	g.Remarks = strings.TrimSpace(g.Remarks)
	return g
}

// Payment identifies how the provider should charge.
type Payment struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId,omitempty"`
}

// Form is the holder and guest details collected after a prebook.
type Form struct {
	Holder Holder  `json:"holder"`
	Guests []Guest `json:"guests"`
}

// Hold is a prebook reservation lock on one offer.
type Hold struct {
	PrebookID  string          `json:"prebookId"`
	OfferID    string          `json:"offerId"`
	RoomName   string          `json:"roomName"`
	BoardName  string          `json:"boardName"`
	TotalPrice float64         `json:"totalPrice"`
	Currency   string          `json:"currency"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// BookPayload is what is sent to the provider's book endpoint.
type BookPayload struct {
	Holder       Holder          `json:"holder"`
	Payment      Payment         `json:"payment"`
	Guests       []Guest         `json:"guests"`
	PrebookID    string          `json:"prebookId"`
	GuestPayment json.RawMessage `json:"guestPayment,omitempty"`
}

// Meta is appended to the provider's booking response.
type Meta struct {
	Holder           Holder  `json:"holder"`
	Guests           []Guest `json:"guests"`
	Payment          Payment `json:"payment"`
	GumdropBookingID string  `json:"gumDropBookingId"`
}

// Confirmation is a successful provider booking plus Gumdrop metadata.
type Confirmation struct {
	Provider map[string]any
	Meta     Meta
	Record   *Record
}

// MarshalJSON emits the provider response with "bookingMeta" (and "record"
// when persisted) merged in at the top level.
func (c Confirmation) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Provider)+2)
	for k, v := range c.Provider {
		out[k] = v
	}
	out["bookingMeta"] = c.Meta
	if c.Record != nil {
		out["record"] = c.Record
	}
	return json.Marshal(out)
}

// ProviderBookingID returns the provider's booking id, if the response had one.
func (c Confirmation) ProviderBookingID() string {
	if data, ok := c.Provider["data"].(map[string]any); ok {
		if id, ok := data["bookingId"].(string); ok {
			return id
		}
	}
	id, _ := c.Provider["bookingId"].(string)
	return id
}

// Status is a booking record's lifecycle state.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Record is a persisted booking.
type Record struct {
	ID                string          `json:"id"`
	BookingRef        string          `json:"bookingRef"`
	ProviderBookingID string          `json:"providerBookingId,omitempty"`
	PrebookID         string          `json:"prebookId"`
	Status            Status          `json:"status"`
	Holder            Holder          `json:"holder"`
	Guests            []Guest         `json:"guests"`
	Hotel             json.RawMessage `json:"hotel,omitempty"`
	Pricing           json.RawMessage `json:"pricing,omitempty"`
	Event             json.RawMessage `json:"event,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}
