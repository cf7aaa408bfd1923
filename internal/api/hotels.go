package api

import (
	"net/http"
	"strings"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/booking"
	"github.com/neexbeast/gumdrop/internal/stay"
)

const noGeocodeResults = "No geocoding results found for location or address."

type locationRequest struct {
	Location string `json:"location"`
	Address  string `json:"address"`
	Radius   int    `json:"radius"`
}

// Geolocate handles POST /api/v1/geolocate.
func (h *Handlers) Geolocate(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "geolocate", err)
		return
	}

	coords, err := h.Geocoder.Resolve(r.Context(), strings.TrimSpace(req.Location), strings.TrimSpace(req.Address))
	if err != nil {
		if apperr.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": noGeocodeResults})
			return
		}
		h.writeError(w, r, "geolocate", err)
		return
	}

	writeJSON(w, http.StatusOK, coords)
}

// SearchHotels handles POST /api/v1/hotels: geocode, then inventory search.
func (h *Handlers) SearchHotels(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "hotel search", err)
		return
	}
	if req.Radius <= 0 {
		req.Radius = stay.DefaultRadiusMeters
	}

	coords, err := h.Geocoder.Resolve(r.Context(), strings.TrimSpace(req.Location), strings.TrimSpace(req.Address))
	if err != nil {
		if apperr.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": noGeocodeResults})
			return
		}
		h.writeError(w, r, "hotel search", err)
		return
	}

	hotels, err := h.Hotels.SearchHotels(r.Context(), coords.Lat, coords.Lon, req.Radius)
	if err != nil {
		h.writeError(w, r, "hotel search", err)
		return
	}
	if hotels == nil {
		hotels = []stay.HotelCandidate{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":     hotels,
		"location": coords,
	})
}

type pricingRequest struct {
	HotelIDs  []string `json:"hotelIds"`
	EventDate string   `json:"eventDate"`
}

type hotelOffers struct {
	HotelID string           `json:"hotelId"`
	Offers  []stay.RateOffer `json:"offers"`
}

// PriceHotels handles POST /api/v1/hotels/pricing. Check-in and check-out are
// derived from the event date and echoed back.
func (h *Handlers) PriceHotels(w http.ResponseWriter, r *http.Request) {
	var req pricingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "pricing", err)
		return
	}
	if len(req.HotelIDs) == 0 || strings.TrimSpace(req.EventDate) == "" {
		h.writeError(w, r, "pricing", apperr.Invalid("Missing required fields", "hotelIds", "eventDate"))
		return
	}

	window, err := stay.WindowForEvent(req.EventDate, h.now())
	if err != nil {
		h.writeError(w, r, "pricing", err)
		return
	}

	pricing, err := h.Hotels.PriceHotels(r.Context(), req.HotelIDs, window)
	if err != nil {
		h.writeError(w, r, "pricing", err)
		return
	}

	data := make([]hotelOffers, 0, len(pricing.Offers))
	for _, id := range req.HotelIDs {
		if offers, ok := pricing.Offers[id]; ok && len(offers) > 0 {
			data = append(data, hotelOffers{HotelID: id, Offers: offers})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":     data,
		"checkin":  window.CheckinDate(),
		"checkout": window.CheckoutDate(),
	})
}

type prebookRequest struct {
	OfferID string `json:"offerId"`
}

// Prebook handles POST /api/v1/hotels/prebook.
func (h *Handlers) Prebook(w http.ResponseWriter, r *http.Request) {
	var req prebookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "prebook", err)
		return
	}

	hold, err := h.Booker.Prebook(r.Context(), req.OfferID)
	if err != nil {
		h.writeError(w, r, "prebook", err)
		return
	}

	writeJSON(w, http.StatusOK, hold)
}

// Book handles POST /api/v1/hotels/book. Missing fields are rejected before
// the provider is called.
func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	var req booking.BookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, opBook, err)
		return
	}

	conf, err := h.Booker.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, r, opBook, err)
		return
	}

	writeJSON(w, http.StatusOK, conf)
}
