package liteapi

// The rates endpoint reports a room type's price in one of several places.
// priceShape names which one a room type used.
type priceShape int

const (
	shapeNone priceShape = iota
	shapeOfferRetailRate
	shapeRateTotal
	shapeSuggestedSelling
)

func (s priceShape) String() string {
	switch s {
	case shapeOfferRetailRate:
		return "offerRetailRate"
	case shapeRateTotal:
		return "rates.retailRate.total"
	case shapeSuggestedSelling:
		return "suggestedSellingPrice"
	default:
		return "none"
	}
}

type money struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`
}

func (m *money) present() bool { return m != nil && m.Amount != nil }

type rateEntry struct {
	RateID     string `json:"rateId"`
	Name       string `json:"name"`
	BoardName  string `json:"boardName"`
	RetailRate struct {
		Total                 []money `json:"total"`
		SuggestedSellingPrice []money `json:"suggestedSellingPrice"`
	} `json:"retailRate"`
}

type roomType struct {
	OfferID               string      `json:"offerId"`
	OfferRetailRate       *money      `json:"offerRetailRate"`
	SuggestedSellingPrice *money      `json:"suggestedSellingPrice"`
	Rates                 []rateEntry `json:"rates"`
}

// price is the normalised price of one room type.
type price struct {
	shape    priceShape
	amount   float64
	currency string
}

// normalizePrice picks the first recognised price shape, in order:
// offerRetailRate, rates[0].retailRate.total[0], suggestedSellingPrice.
func normalizePrice(rt roomType, defaultCurrency string) (price, bool) {
	var p price
	switch {
	case rt.OfferRetailRate.present():
		p = price{shape: shapeOfferRetailRate, amount: *rt.OfferRetailRate.Amount, currency: rt.OfferRetailRate.Currency}
	case len(rt.Rates) > 0 && len(rt.Rates[0].RetailRate.Total) > 0 && rt.Rates[0].RetailRate.Total[0].present():
		t := rt.Rates[0].RetailRate.Total[0]
		p = price{shape: shapeRateTotal, amount: *t.Amount, currency: t.Currency}
	case rt.SuggestedSellingPrice.present():
		p = price{shape: shapeSuggestedSelling, amount: *rt.SuggestedSellingPrice.Amount, currency: rt.SuggestedSellingPrice.Currency}
	case len(rt.Rates) > 0 && len(rt.Rates[0].RetailRate.SuggestedSellingPrice) > 0 && rt.Rates[0].RetailRate.SuggestedSellingPrice[0].present():
		s := rt.Rates[0].RetailRate.SuggestedSellingPrice[0]
		p = price{shape: shapeSuggestedSelling, amount: *s.Amount, currency: s.Currency}
	default:
		return price{}, false
	}
	if p.currency == "" {
		p.currency = defaultCurrency
	}
	return p, true
}
