package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterOptions configures NewRouter. Metrics may be nil to omit /metrics.
type RouterOptions struct {
	Token       string
	CORSOrigins []string
	Metrics     http.Handler
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health, metrics and the browser-facing payment routes are unauthenticated;
// everything the extension calls requires bearer auth.
// Rate limiting is applied globally: 60 requests per minute per IP.
func NewRouter(handlers *Handlers, opts RouterOptions, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(60, time.Minute))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(db, redisClient, log))

		r.Get("/payment-data/{dataId}", handlers.GetPaymentData)
		r.Get("/payment-complete", handlers.CompletePayment)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(opts.Token))

			r.Post("/geolocate", handlers.Geolocate)
			r.Post("/hotels", handlers.SearchHotels)
			r.Post("/hotels/pricing", handlers.PriceHotels)
			r.Post("/hotels/prebook", handlers.Prebook)
			r.Post("/hotels/book", handlers.Book)

			r.Post("/ai/recommend", handlers.Recommend)
			r.Post("/ai/concierge", handlers.AskConcierge)
			r.Post("/stays/plan", handlers.PlanStay)
			r.Post("/events/scrape", handlers.ScrapeEvent)

			r.Post("/payment-data", handlers.StorePaymentData)

			r.Get("/bookings", handlers.ListBookings)
			r.Post("/bookings", handlers.CreateBooking)
			r.Get("/bookings/{id}", handlers.GetBooking)
			r.Post("/bookings/{id}/cancel", handlers.CancelBooking)
			r.Delete("/bookings/{id}", handlers.DeleteBooking)

			r.Get("/profile", handlers.GetProfile)
			r.Put("/profile", handlers.PutProfile)
		})
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
