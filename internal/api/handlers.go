package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/booking"
)

const maxRequestBody = 1 << 20

// Deps are the collaborators behind the HTTP handlers. Concierge may be nil
// when no LLM is configured.
type Deps struct {
	Geocoder    Geocoder
	Hotels      HotelProvider
	Booker      Booker
	Recommender Recommender
	Concierge   Concierge
	Planner     StayPlanner
	Scraper     EventScraper
	Bookings    BookingRepo
	Profiles    ProfileRepo
	Sessions    SessionStore
	SessionTTL  time.Duration
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	Deps
	log *slog.Logger
	now func() time.Time
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(d Deps, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = time.Hour
	}
	return &Handlers{Deps: d, log: log, now: time.Now}
}

// WithClock overrides the clock used to interpret event dates (for tests).
func (h *Handlers) WithClock(now func() time.Time) *Handlers {
	h.now = now
	return h
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return apperr.Invalid("could not read request body")
	}
	if len(body) == 0 {
		return apperr.Invalid("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Invalid(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// details returns body as JSON when it parses, else as a string.
func details(body string) any {
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}

// statusFor maps an error from the domain packages to an HTTP status.
func statusFor(err error) int {
	var ve *apperr.ValidationError
	var nf *apperr.NotFoundError
	var ue *apperr.UpstreamError
	var pe *apperr.ParseError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ue):
		if ue.Status >= 400 && ue.Status <= 599 {
			return ue.Status
		}
		return http.StatusBadGateway
	case errors.As(err, &pe):
		return http.StatusInternalServerError
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

const opBook = "booking"

// invalidJSONMessage is the error text for an unparseable upstream body.
// The extension matches on the book route's wording.
func invalidJSONMessage(op string) string {
	if op == opBook {
		return "Invalid JSON response from API"
	}
	return "Response is not valid JSON"
}

// writeError renders err with the JSON body shape of its category.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	body := map[string]any{}

	var ve *apperr.ValidationError
	var ue *apperr.UpstreamError
	var pe *apperr.ParseError

	switch {
	case errors.As(err, &ve):
		body["error"] = ve.Message
		if len(ve.Required) > 0 {
			body["required"] = ve.Required
		}
	case errors.As(err, &ue):
		msg := ue.Message
		if msg == "" {
			msg = op + " failed"
		}
		body["error"] = msg
		if d := details(ue.Body); d != nil {
			body["details"] = d
		} else if ue.Err != nil {
			body["details"] = ue.Err.Error()
		}
	case errors.As(err, &pe):
		if pe.Raw == "" {
			body["error"] = "Empty response from API"
			if pe.Status != 0 {
				body["status"] = pe.Status
			}
		} else {
			body["error"] = invalidJSONMessage(op)
			body["raw"] = pe.Raw
		}
	case status == http.StatusNotFound, status == http.StatusConflict:
		body["error"] = err.Error()
	default:
		body["error"] = "internal server error"
	}

	if status >= 500 {
		h.log.Error(op+" failed", "status", status, "request_path", r.URL.Path, "err", err)
	} else {
		h.log.Warn(op+" rejected", "status", status, "request_path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, body)
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis
// connectivity concurrently. A nil redis pinger is reported as "disabled".
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "ok"
		redisStatus := "disabled"

		var g errgroup.Group
		g.Go(func() error {
			if err := db.Ping(ctx); err != nil {
				log.Error("health check: db ping failed", "err", err)
				dbStatus = "error"
				return err
			}
			return nil
		})
		if redis != nil {
			redisStatus = "ok"
			g.Go(func() error {
				if err := redis.Ping(ctx); err != nil {
					log.Error("health check: redis ping failed", "err", err)
					redisStatus = "error"
					return err
				}
				return nil
			})
		}

		status, overall := http.StatusOK, "ok"
		if err := g.Wait(); err != nil {
			status, overall = http.StatusServiceUnavailable, "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
