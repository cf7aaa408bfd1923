package stay

import "time"

// DateLayout is the calendar-date format used on the wire for check-in and check-out.
const DateLayout = "2006-01-02"

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EventDetails describes the event the stay is planned around.
type EventDetails struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Address  string `json:"address,omitempty"`
	URL      string `json:"url,omitempty"`
}

// HotelCandidate is one hotel returned by the inventory search.
type HotelCandidate struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       *float64 `json:"rating,omitempty"`
	DistanceKm   *float64 `json:"distanceKm,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Lat          float64  `json:"latitude,omitempty"`
	Lon          float64  `json:"longitude,omitempty"`
}

// RateOffer is one bookable room offer for a hotel and stay window.
type RateOffer struct {
	HotelID   string  `json:"hotelId"`
	OfferID   string  `json:"offerId"`
	RateID    string  `json:"rateId,omitempty"`
	RoomName  string  `json:"roomName"`
	BoardName string  `json:"boardName,omitempty"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Checkin   string  `json:"checkin"`
	Checkout  string  `json:"checkout"`
}

// StayWindow is the check-in/check-out pair derived from an event date.
type StayWindow struct {
	Checkin  time.Time
	Checkout time.Time
}

func (w StayWindow) CheckinDate() string  { return w.Checkin.Format(DateLayout) }
func (w StayWindow) CheckoutDate() string { return w.Checkout.Format(DateLayout) }

// Pricing is the result of one rates lookup.
type Pricing struct {
	Window StayWindow
	Offers map[string][]RateOffer
}

// PricedHotel is a candidate joined with its cheapest offer.
type PricedHotel struct {
	HotelCandidate
	Pricing RateOffer `json:"pricing"`
}

// Pick is one recommended hotel, by index into the ranked list.
type Pick struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

const (
	SourceLLM       = "llm"
	SourceHeuristic = "heuristic"
)

// Recommendations holds the three picks over a priced hotel list.
type Recommendations struct {
	BestBudget    Pick   `json:"bestBudget"`
	MostLuxurious Pick   `json:"mostLuxurious"`
	BestOverall   Pick   `json:"bestOverall"`
	Source        string `json:"-"`
}
