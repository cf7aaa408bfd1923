package liteapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/booking"
	"github.com/neexbeast/gumdrop/internal/liteapi"
	"github.com/neexbeast/gumdrop/internal/observability"
	"github.com/neexbeast/gumdrop/internal/stay"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *liteapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := liteapi.New(liteapi.Options{APIKey: "test-key", BaseURL: srv.URL, BookURL: srv.URL + "/book", MaxHotels: 2, RPS: 100})
	require.NoError(t, err)
	return c
}

func window() stay.StayWindow {
	return stay.StayWindow{
		Checkin:  time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC),
		Checkout: time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := liteapi.New(liteapi.Options{})
	require.Error(t, err)
}

// ---- inventory ----

func TestSearchHotels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/data/hotels", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "51.5", r.URL.Query().Get("latitude"))
		assert.Equal(t, "3000", r.URL.Query().Get("radius"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":"lp1","name":"The Grand","address":"1 Strand","rating":8.6,"main_photo":"https://img/1.jpg","latitude":51.5,"longitude":-0.12},
			{"id":"lp2","name":"Budget Inn","address":"2 Lane","stars":3,"thumbnail":"https://img/2.jpg","distance":1.4},
			{"id":"lp3","name":"Overflow"}
		]}`))
	})

	hotels, err := c.SearchHotels(context.Background(), 51.5, -0.12, 3000)

	require.NoError(t, err)
	require.Len(t, hotels, 2, "capped at MaxHotels")
	assert.Equal(t, "lp1", hotels[0].ID)
	require.NotNil(t, hotels[0].Rating)
	assert.Equal(t, 8.6, *hotels[0].Rating)
	assert.Equal(t, "https://img/1.jpg", hotels[0].ThumbnailURL)
	require.NotNil(t, hotels[0].DistanceKm)
	assert.InDelta(t, 0, *hotels[0].DistanceKm, 1e-9)
	require.NotNil(t, hotels[1].Rating)
	assert.Equal(t, 3.0, *hotels[1].Rating)
	assert.Equal(t, 1.4, *hotels[1].DistanceKm)
}

func TestSearchHotels_Upstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"invalid api key"}}`))
	})

	_, err := c.SearchHotels(context.Background(), 1, 2, 1000)

	var ue *apperr.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.Status)
	assert.Equal(t, "invalid api key", ue.Message)
}

// ---- rates ----

func TestPriceHotels_RequestAndShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hotels/rates", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"hotelIds":["h1","h2"],
			"occupancies":[{"adults":1}],
			"currency":"GBP",
			"guestNationality":"IN",
			"checkin":"2025-10-03",
			"checkout":"2025-10-05"
		}`, string(body))
		_, _ = w.Write([]byte(`{"data":[
			{"hotelId":"h1","roomTypes":[
				{"offerId":"o1","offerRetailRate":{"amount":150.5,"currency":"GBP"},"rates":[{"rateId":"r1","name":"Deluxe King","boardName":"Breakfast"}]},
				{"offerId":"o2","rates":[{"rateId":"r2","name":"Twin","retailRate":{"total":[{"amount":99,"currency":"EUR"}]}}]},
				{"offerId":"o3","suggestedSellingPrice":{"amount":120}},
				{"offerId":"o4","rates":[{"name":"Mystery"}]}
			]},
			{"hotelId":"h2","roomTypes":[]}
		]}`))
	})

	shapeCount := func(shape string) float64 {
		return testutil.ToFloat64(observability.PriceShapes.WithLabelValues(shape))
	}
	before := map[string]float64{}
	for _, s := range []string{"offerRetailRate", "rates.retailRate.total", "suggestedSellingPrice", "none"} {
		before[s] = shapeCount(s)
	}

	pricing, err := c.PriceHotels(context.Background(), []string{"h1", "h2"}, window())

	require.NoError(t, err)
	for s, n := range before {
		assert.Equal(t, n+1, shapeCount(s), s)
	}
	offers := pricing.Offers["h1"]
	require.Len(t, offers, 3, "room type without a price is skipped")
	assert.Equal(t, 150.5, offers[0].Amount)
	assert.Equal(t, "Deluxe King", offers[0].RoomName)
	assert.Equal(t, "Breakfast", offers[0].BoardName)
	assert.Equal(t, "r1", offers[0].RateID)
	assert.Equal(t, 99.0, offers[1].Amount)
	assert.Equal(t, "EUR", offers[1].Currency)
	assert.Equal(t, 120.0, offers[2].Amount)
	assert.Equal(t, "GBP", offers[2].Currency, "missing currency defaults to configured")
	assert.Equal(t, "Standard Room", offers[2].RoomName)
	assert.Equal(t, "2025-10-03", offers[0].Checkin)
	assert.Empty(t, pricing.Offers["h2"])
}

func TestPriceHotels_EmptyIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not be called")
	})
	_, err := c.PriceHotels(context.Background(), nil, window())
	assert.True(t, apperr.IsValidation(err))
}

func TestPriceHotels_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err := c.PriceHotels(context.Background(), []string{"h1"}, window())
	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "<html>", pe.Raw)
}

// ---- prebook ----

func TestPrebook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rates/prebook", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["usePaymentSdk"])
		assert.Equal(t, "offer-1", body["offerId"])
		_, _ = w.Write([]byte(`{"data":{"prebookId":"pb-1","offerId":"offer-1","price":210.4,"currency":"GBP",
			"roomTypes":[{"rates":[{"name":"Queen Room","boardName":"Room Only","retailRate":{"total":[{"amount":210.4,"currency":"GBP"}]}}]}]}}`))
	})

	hold, err := c.Prebook(context.Background(), "offer-1")

	require.NoError(t, err)
	assert.Equal(t, "pb-1", hold.PrebookID)
	assert.Equal(t, "Queen Room", hold.RoomName)
	assert.Equal(t, 210.4, hold.TotalPrice)
	assert.Equal(t, "GBP", hold.Currency)
	assert.Contains(t, string(hold.Raw), "pb-1")
}

func TestPrebook_FailureCarriesProviderMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"offer no longer available"}`))
	})

	_, err := c.Prebook(context.Background(), "offer-1")

	var ue *apperr.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Equal(t, "offer no longer available", ue.Message)
	assert.JSONEq(t, `{"message":"offer no longer available"}`, ue.Body)
}

// ---- book ----

func bookPayload() booking.BookPayload {
	return booking.BookPayload{
		Holder:    booking.Holder{FirstName: "Ada", LastName: "L", Email: "a@x.io", Phone: "1"},
		Payment:   booking.Payment{Method: booking.PaymentTransactionID, TransactionID: "tx-1"},
		Guests:    []booking.Guest{{OccupancyNumber: 1, FirstName: "Ada", LastName: "L", Email: "a@x.io", Phone: "1"}},
		PrebookID: "pb-1",
	}
}

func TestBook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book/rates/book", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pb-1", body["prebookId"])
		assert.NotContains(t, body, "guestPayment")
		_, _ = w.Write([]byte(`{"data":{"bookingId":"LB-1","status":"CONFIRMED"}}`))
	})

	out, err := c.Book(context.Background(), bookPayload())

	require.NoError(t, err)
	data := out["data"].(map[string]any)
	assert.Equal(t, "LB-1", data["bookingId"])
}

func TestBook_EmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	_, err := c.Book(context.Background(), bookPayload())
	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Empty(t, pe.Raw)
	assert.Equal(t, http.StatusOK, pe.Status)
}

func TestBook_NullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})
	out, err := c.Book(context.Background(), bookPayload())
	assert.Nil(t, out)
	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "null", pe.Raw)
	assert.Equal(t, http.StatusOK, pe.Status)
}

func TestBook_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`Service Unavailable`))
	})
	_, err := c.Book(context.Background(), bookPayload())
	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Service Unavailable", pe.Raw)
}

func TestBook_Upstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"message":"prebook already used"}}`))
	})
	_, err := c.Book(context.Background(), bookPayload())
	var ue *apperr.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusConflict, ue.Status)
	assert.Equal(t, "prebook already used", ue.Message)
}
