package stay

// Reconcile joins candidates with their cheapest offer. Candidates without
// offers are dropped; candidate order is preserved.
func Reconcile(candidates []HotelCandidate, offers map[string][]RateOffer) []PricedHotel {
	out := make([]PricedHotel, 0, len(candidates))
	for _, c := range candidates {
		best, ok := Cheapest(offers[c.ID])
		if !ok {
			continue
		}
		out = append(out, PricedHotel{HotelCandidate: c, Pricing: best})
	}
	return out
}

// Cheapest returns the lowest-priced offer. Ties keep the first one seen.
func Cheapest(offers []RateOffer) (RateOffer, bool) {
	if len(offers) == 0 {
		return RateOffer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Amount < best.Amount {
			best = o
		}
	}
	return best, true
}
