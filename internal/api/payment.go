package api

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/booking"
	"github.com/neexbeast/gumdrop/internal/session"
)

type paymentDataRequest struct {
	PaymentData json.RawMessage      `json:"paymentData"`
	Booking     *booking.BookRequest `json:"booking,omitempty"`
}

// StorePaymentData handles POST /api/v1/payment-data. The payment payload is
// kept under a fresh id. When a booking form is supplied it is parked under
// the payload's transactionId for the completion redirect.
func (h *Handlers) StorePaymentData(w http.ResponseWriter, r *http.Request) {
	var req paymentDataRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "payment data", err)
		return
	}
	if len(req.PaymentData) == 0 || string(req.PaymentData) == "null" {
		h.writeError(w, r, "payment data", apperr.Invalid("Missing required fields", "paymentData"))
		return
	}

	ctx := r.Context()

	var parked string
	if req.Booking != nil {
		var ref struct {
			TransactionID string `json:"transactionId"`
		}
		_ = json.Unmarshal(req.PaymentData, &ref)
		if ref.TransactionID == "" {
			h.writeError(w, r, "payment data", apperr.Invalid("paymentData.transactionId is required with a booking", "paymentData.transactionId"))
			return
		}
		form, err := json.Marshal(req.Booking)
		if err != nil {
			h.writeError(w, r, "payment data", err)
			return
		}
		parked = session.BookingKey(ref.TransactionID)
		if err := h.Sessions.Put(ctx, parked, form, h.SessionTTL); err != nil {
			h.writeError(w, r, "payment data", err)
			return
		}
	}

	id := session.NewPaymentKey()
	if err := h.Sessions.Put(ctx, id, req.PaymentData, h.SessionTTL); err != nil {
		if parked != "" {
			if derr := h.Sessions.Delete(ctx, parked); derr != nil {
				h.log.Warn("payment data: removing parked booking form failed", "key", parked, "err", derr)
			}
		}
		h.writeError(w, r, "payment data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"dataId": id})
}

func writePaymentNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Payment data not found"})
}

// GetPaymentData handles GET /api/v1/payment-data/{dataId}. The route is
// unauthenticated, so only ids minted by StorePaymentData are readable.
func (h *Handlers) GetPaymentData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataId")
	if !session.IsPaymentKey(id) {
		writePaymentNotFound(w)
		return
	}

	payload, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writePaymentNotFound(w)
			return
		}
		h.writeError(w, r, "payment data", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

var completionPage = template.Must(template.New("complete").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{if .OK}}Booking Confirmed{{else}}Booking Error{{end}}</title></head>
<body style="font-family: system-ui; text-align: center; padding: 2rem;">
{{- if .OK}}
  <h1 style="color: green;">Booking Confirmed!</h1>
  <p>Booking Reference: {{.Reference}}</p>
  {{- if .ProviderID}}<p>Confirmation: {{.ProviderID}}</p>{{end}}
{{- else}}
  <h1 style="color: red;">Booking Failed</h1>
  <p>{{.Message}}</p>
{{- end}}
  <button onclick="window.close()" style="padding: 1rem 2rem; border: none; border-radius: 8px;">Close</button>
</body>
</html>
`))

type completionView struct {
	OK         bool
	Reference  string
	ProviderID string
	Message    string
}

func renderCompletion(w http.ResponseWriter, status int, v completionView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = completionPage.Execute(w, v)
}

// CompletePayment handles GET /api/v1/payment-complete?tid=&pid=, the hosted
// payment widget's return URL. The parked booking form is taken, not read,
// so a reload cannot place a second booking.
func (h *Handlers) CompletePayment(w http.ResponseWriter, r *http.Request) {
	tid := strings.TrimSpace(r.URL.Query().Get("tid"))
	pid := strings.TrimSpace(r.URL.Query().Get("pid"))
	if tid == "" || pid == "" {
		renderCompletion(w, http.StatusBadRequest, completionView{Message: "Missing transaction or prebook id"})
		return
	}

	raw, err := h.Sessions.Take(r.Context(), session.BookingKey(tid))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			renderCompletion(w, http.StatusNotFound, completionView{Message: "Booking data not found"})
			return
		}
		h.log.Error("payment completion: session take failed", "transaction_id", tid, "err", err)
		renderCompletion(w, http.StatusInternalServerError, completionView{Message: "Booking data unavailable"})
		return
	}

	var req booking.BookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.log.Error("payment completion: corrupt booking data", "transaction_id", tid, "err", err)
		renderCompletion(w, http.StatusInternalServerError, completionView{Message: "Booking data is corrupt"})
		return
	}
	req.PrebookID = pid
	req.Payment = booking.Payment{Method: booking.PaymentTransactionID, TransactionID: tid}

	conf, err := h.Booker.Book(r.Context(), req)
	if err != nil {
		h.log.Error("payment completion: booking failed", "transaction_id", tid, "prebook_id", pid, "err", err)
		renderCompletion(w, statusFor(err), completionView{Message: err.Error()})
		return
	}

	renderCompletion(w, http.StatusOK, completionView{
		OK:         true,
		Reference:  conf.Meta.GumdropBookingID,
		ProviderID: conf.ProviderBookingID(),
	})
}
