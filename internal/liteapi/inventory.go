package liteapi

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/neexbeast/gumdrop/internal/stay"
)

type hotelsResponse struct {
	Data []hotelEntry `json:"data"`
}

type hotelEntry struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Rating    *float64 `json:"rating"`
	Stars     *float64 `json:"stars"`
	Distance  *float64 `json:"distance"`
	Thumbnail string   `json:"thumbnail"`
	MainPhoto string   `json:"main_photo"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// SearchHotels lists hotels within radiusMeters of (lat, lon), capped at the
// configured maximum.
func (c *Client) SearchHotels(ctx context.Context, lat, lon float64, radiusMeters int) ([]stay.HotelCandidate, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("limit", strconv.Itoa(c.maxHotels))

	r, err := c.do(ctx, http.MethodGet, c.baseURL+"/data/hotels?"+q.Encode(), "hotels", nil)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, upstreamError(r, "hotel search failed")
	}

	var raw hotelsResponse
	if err := decode(r, "hotels", &raw); err != nil {
		return nil, err
	}

	n := len(raw.Data)
	if n > c.maxHotels {
		n = c.maxHotels
	}
	out := make([]stay.HotelCandidate, 0, n)
	for _, h := range raw.Data[:n] {
		out = append(out, toCandidate(h, lat, lon))
	}
	return out, nil
}

func toCandidate(h hotelEntry, lat, lon float64) stay.HotelCandidate {
	c := stay.HotelCandidate{
		ID:           h.ID,
		Name:         h.Name,
		Address:      h.Address,
		Rating:       h.Rating,
		ThumbnailURL: h.Thumbnail,
		Lat:          h.Latitude,
		Lon:          h.Longitude,
	}
	if c.Rating == nil || *c.Rating <= 0 {
		c.Rating = h.Stars
	}
	if c.ThumbnailURL == "" {
		c.ThumbnailURL = h.MainPhoto
	}
	switch {
	case h.Distance != nil:
		c.DistanceKm = h.Distance
	case h.Latitude != 0 || h.Longitude != 0:
		d := haversineKm(lat, lon, h.Latitude, h.Longitude)
		c.DistanceKm = &d
	}
	return c
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
