package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/booking"
	"github.com/neexbeast/gumdrop/internal/storage"
)

func parseStatus(s string) (booking.Status, bool) {
	switch booking.Status(s) {
	case "":
		return "", true
	case booking.StatusConfirmed, booking.StatusCancelled:
		return booking.Status(s), true
	}
	return "", false
}

// bookingID returns the {id} path parameter when it is a valid UUID.
func bookingID(r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func writeBookingNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
}

// ListBookings handles GET /api/v1/bookings[?status=].
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatus(r.URL.Query().Get("status"))
	if !ok {
		h.writeError(w, r, "list bookings", apperr.Invalid("status must be confirmed or cancelled"))
		return
	}

	records, err := h.Bookings.ListBookings(r.Context(), status)
	if err != nil {
		h.writeError(w, r, "list bookings", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}

// CreateBooking handles POST /api/v1/bookings, importing a booking record
// made elsewhere.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var rec booking.Record
	if err := decodeJSON(r, &rec); err != nil {
		h.writeError(w, r, "save booking", err)
		return
	}
	if strings.TrimSpace(rec.BookingRef) == "" || strings.TrimSpace(rec.PrebookID) == "" {
		h.writeError(w, r, "save booking", apperr.Invalid("Missing required fields", "bookingRef", "prebookId"))
		return
	}

	status, ok := parseStatus(string(rec.Status))
	if !ok {
		h.writeError(w, r, "save booking", apperr.Invalid("status must be confirmed or cancelled"))
		return
	}
	if status == "" {
		status = booking.StatusConfirmed
	}
	rec.Status = status

	if id, err := uuid.Parse(rec.ID); err == nil {
		rec.ID = id.String()
	} else {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = h.now().UTC()
	}

	if err := h.Bookings.SaveBooking(r.Context(), &rec); err != nil {
		h.writeError(w, r, "save booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// GetBooking handles GET /api/v1/bookings/{id}.
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(r)
	if !ok {
		writeBookingNotFound(w)
		return
	}

	rec, err := h.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get booking", err)
		return
	}
	if rec == nil {
		writeBookingNotFound(w)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// CancelBooking handles POST /api/v1/bookings/{id}/cancel. Only the local
// record's status changes; the provider reservation is untouched.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(r)
	if !ok {
		writeBookingNotFound(w)
		return
	}

	found, err := h.Bookings.UpdateBookingStatus(r.Context(), id, booking.StatusCancelled)
	if err != nil {
		h.writeError(w, r, "cancel booking", err)
		return
	}
	if !found {
		writeBookingNotFound(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(booking.StatusCancelled)})
}

// DeleteBooking handles DELETE /api/v1/bookings/{id}.
func (h *Handlers) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(r)
	if !ok {
		writeBookingNotFound(w)
		return
	}

	found, err := h.Bookings.DeleteBooking(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "delete booking", err)
		return
	}
	if !found {
		writeBookingNotFound(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /api/v1/profile. An unsaved profile is returned
// empty with both setup flags false.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.GetProfile(r.Context())
	if err != nil {
		h.writeError(w, r, "get profile", err)
		return
	}
	if p == nil {
		p = &storage.Profile{}
	}

	writeJSON(w, http.StatusOK, p)
}

// PutProfile handles PUT /api/v1/profile.
func (h *Handlers) PutProfile(w http.ResponseWriter, r *http.Request) {
	var p storage.Profile
	if err := decodeJSON(r, &p); err != nil {
		h.writeError(w, r, "save profile", err)
		return
	}
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)

	if err := h.Profiles.UpsertProfile(r.Context(), p); err != nil {
		h.writeError(w, r, "save profile", err)
		return
	}

	saved, err := h.Profiles.GetProfile(r.Context())
	if err != nil || saved == nil {
		saved = &p
	}

	writeJSON(w, http.StatusOK, saved)
}
