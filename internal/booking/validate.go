package booking

import (
	"github.com/neexbeast/gumdrop/internal/apperr"
)

var holderFields = []string{"firstName", "lastName", "email", "phone"}

// ValidateForm checks holder and guest details and returns the normalised
// form. Guests after the first that are incomplete are dropped.
func ValidateForm(form Form) (Form, error) {
	holder := form.Holder.trimmed()
	if !holder.complete() {
		return Form{}, apperr.Invalid("Holder information incomplete", holderFields...)
	}
	if len(form.Guests) == 0 {
		return Form{}, apperr.Invalid("At least one guest is required")
	}

	guests := make([]Guest, 0, len(form.Guests))
	for i, g := range form.Guests {
		g = g.trimmed()
		if !g.complete() {
			if i == 0 {
				return Form{}, apperr.Invalid("Guest 1 (primary) information incomplete", holderFields...)
			}
			continue
		}
		if g.OccupancyNumber <= 0 {
			g.OccupancyNumber = i + 1
		}
		guests = append(guests, g)
	}

	return Form{Holder: holder, Guests: guests}, nil
}

// validateRequest applies the request-level checks that precede any
// provider call.
func validateRequest(req BookRequest) (Form, error) {
	if req.Holder == nil || req.Guests == nil || req.PrebookID == "" {
		return Form{}, apperr.Invalid("Missing required fields", "holder", "guests", "prebookId")
	}
	return ValidateForm(Form{Holder: *req.Holder, Guests: req.Guests})
}
