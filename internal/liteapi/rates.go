package liteapi

import (
	"context"
	"net/http"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/observability"
	"github.com/neexbeast/gumdrop/internal/stay"
)

type occupancy struct {
	Adults int `json:"adults"`
}

type ratesRequest struct {
	HotelIDs         []string    `json:"hotelIds"`
	Occupancies      []occupancy `json:"occupancies"`
	Currency         string      `json:"currency"`
	GuestNationality string      `json:"guestNationality"`
	Checkin          string      `json:"checkin"`
	Checkout         string      `json:"checkout"`
}

type ratesResponse struct {
	Data []struct {
		HotelID   string     `json:"hotelId"`
		RoomTypes []roomType `json:"roomTypes"`
	} `json:"data"`
}

// PriceHotels fetches offers for every hotel in one request. Room types with
// no recognisable price are skipped.
func (c *Client) PriceHotels(ctx context.Context, hotelIDs []string, window stay.StayWindow) (stay.Pricing, error) {
	if len(hotelIDs) == 0 {
		return stay.Pricing{}, apperr.Invalid("hotelIds are required", "hotelIds")
	}

	checkin, checkout := window.CheckinDate(), window.CheckoutDate()
	r, err := c.do(ctx, http.MethodPost, c.baseURL+"/hotels/rates", "rates", ratesRequest{
		HotelIDs:         hotelIDs,
		Occupancies:      []occupancy{{Adults: 1}},
		Currency:         c.currency,
		GuestNationality: c.nationality,
		Checkin:          checkin,
		Checkout:         checkout,
	})
	if err != nil {
		return stay.Pricing{}, err
	}
	if !r.ok() {
		return stay.Pricing{}, upstreamError(r, "rates lookup failed")
	}

	var raw ratesResponse
	if err := decode(r, "rates", &raw); err != nil {
		return stay.Pricing{}, err
	}

	offers := make(map[string][]stay.RateOffer, len(raw.Data))
	for _, h := range raw.Data {
		for _, rt := range h.RoomTypes {
			p, ok := normalizePrice(rt, c.currency)
			observability.ObservePriceShape(p.shape.String())
			if !ok {
				continue
			}
			o := stay.RateOffer{
				HotelID:  h.HotelID,
				OfferID:  rt.OfferID,
				RoomName: "Standard Room",
				Amount:   p.amount,
				Currency: p.currency,
				Checkin:  checkin,
				Checkout: checkout,
			}
			if len(rt.Rates) > 0 {
				first := rt.Rates[0]
				o.RateID = first.RateID
				o.BoardName = first.BoardName
				if first.Name != "" {
					o.RoomName = first.Name
				}
			}
			offers[h.HotelID] = append(offers[h.HotelID], o)
		}
	}

	return stay.Pricing{Window: window, Offers: offers}, nil
}
