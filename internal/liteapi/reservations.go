package liteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/booking"
)

var errEmptyBody = errors.New("empty response body")

type prebookRequest struct {
	UsePaymentSdk bool   `json:"usePaymentSdk"`
	OfferID       string `json:"offerId"`
}

type prebookData struct {
	PrebookID string     `json:"prebookId"`
	OfferID   string     `json:"offerId"`
	Price     *float64   `json:"price"`
	Currency  string     `json:"currency"`
	RoomTypes []roomType `json:"roomTypes"`
}

// Prebook places a hold on offerID.
func (c *Client) Prebook(ctx context.Context, offerID string) (booking.Hold, error) {
	r, err := c.do(ctx, http.MethodPost, c.baseURL+"/rates/prebook", "prebook", prebookRequest{UsePaymentSdk: false, OfferID: offerID})
	if err != nil {
		return booking.Hold{}, err
	}
	if !r.ok() {
		return booking.Hold{}, upstreamError(r, "Prebook failed")
	}

	// The hold is usually wrapped in {"data": ...}, but not always.
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := decode(r, "prebook", &env); err != nil {
		return booking.Hold{}, err
	}
	payload := env.Data
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		payload = r.body
	}

	var d prebookData
	if err := json.Unmarshal(payload, &d); err != nil {
		return booking.Hold{}, &apperr.ParseError{Service: service, Status: r.status, Raw: string(r.body), Err: err}
	}
	if d.PrebookID == "" {
		return booking.Hold{}, &apperr.ParseError{Service: service, Status: r.status, Raw: string(r.body), Err: errors.New("prebook: missing prebookId")}
	}

	hold := booking.Hold{
		PrebookID: d.PrebookID,
		OfferID:   d.OfferID,
		RoomName:  "Standard Room",
		BoardName: "Room Only",
		Currency:  d.Currency,
		Raw:       json.RawMessage(payload),
	}
	if len(d.RoomTypes) > 0 {
		rt := d.RoomTypes[0]
		if len(rt.Rates) > 0 {
			if rt.Rates[0].Name != "" {
				hold.RoomName = rt.Rates[0].Name
			}
			if rt.Rates[0].BoardName != "" {
				hold.BoardName = rt.Rates[0].BoardName
			}
		}
		if p, ok := normalizePrice(rt, c.currency); ok {
			hold.TotalPrice = p.amount
			if hold.Currency == "" {
				hold.Currency = p.currency
			}
		}
	}
	if d.Price != nil {
		hold.TotalPrice = *d.Price
	}
	if hold.Currency == "" {
		hold.Currency = c.currency
	}
	return hold, nil
}

// Book places a booking against a prebook hold. The decoded provider
// response is returned as-is.
func (c *Client) Book(ctx context.Context, payload booking.BookPayload) (map[string]any, error) {
	r, err := c.do(ctx, http.MethodPost, c.bookURL+"/rates/book", "book", payload)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil, &apperr.ParseError{Service: service, Status: r.status, Err: errEmptyBody}
	}
	if !r.ok() {
		return nil, upstreamError(r, "Booking failed")
	}

	var out map[string]any
	if err := decode(r, "book", &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &apperr.ParseError{Service: service, Status: r.status, Raw: string(r.body), Err: errEmptyBody}
	}
	return out, nil
}
