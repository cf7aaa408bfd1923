package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/gumdrop/internal/api"
	"github.com/neexbeast/gumdrop/internal/booking"
	"github.com/neexbeast/gumdrop/internal/cache"
	"github.com/neexbeast/gumdrop/internal/config"
	"github.com/neexbeast/gumdrop/internal/eventpage"
	"github.com/neexbeast/gumdrop/internal/geocode"
	"github.com/neexbeast/gumdrop/internal/liteapi"
	"github.com/neexbeast/gumdrop/internal/llm"
	"github.com/neexbeast/gumdrop/internal/observability"
	"github.com/neexbeast/gumdrop/internal/poll"
	"github.com/neexbeast/gumdrop/internal/session"
	"github.com/neexbeast/gumdrop/internal/stay"
	"github.com/neexbeast/gumdrop/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "count", applied)

	// Geocoding, optionally behind the Redis cache.
	var geo api.Geocoder
	if cfg.GeocodeBaseURL != "" {
		geo = geocode.NewClientWithURL(cfg.GeocodeBaseURL, cfg.GeocodingKey)
	} else {
		geo = geocode.NewClient(cfg.GeocodingKey)
	}

	var sessions session.Store = session.NewMemoryStore()
	var redisHealth *redisPingerAdapter
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		geo = geocode.NewCachedResolver(geo, cache.NewCache(redisClient, cfg.GeocodeCacheTTL), log)
		sessions = session.NewRedisStore(redisClient)
		redisHealth = &redisPingerAdapter{client: redisClient}
	} else {
		log.Warn("REDIS_URL not set: payment sessions are in-memory and geocoding is uncached")
	}

	lite, err := liteapi.New(liteapi.Options{
		APIKey:           cfg.LiteAPIKey,
		BaseURL:          cfg.LiteAPIBaseURL,
		BookURL:          cfg.LiteAPIBookURL,
		Currency:         cfg.PricingCurrency,
		GuestNationality: cfg.GuestNationality,
		MaxHotels:        cfg.MaxHotels,
	})
	if err != nil {
		return fmt.Errorf("configuring liteapi: %w", err)
	}

	// The model is optional; keep the interfaces nil rather than wrapping a nil *llm.Client.
	var model stay.Recommender
	var concierge api.Concierge
	if c := llm.New(llm.Options{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel}); c != nil {
		model, concierge = c, c
	} else {
		log.Warn("OPENAI_KEY not set: recommendations use the price heuristic")
	}
	advisor := stay.NewAdvisor(model, log)

	// Wire dependencies.
	repo := storage.NewRepository(pool)
	handlers := api.NewHandlers(api.Deps{
		Geocoder:    geo,
		Hotels:      lite,
		Booker:      booking.NewService(lite, repo, log),
		Recommender: advisor,
		Concierge:   concierge,
		Planner:     stay.NewPlanner(geo, lite, lite, advisor, log),
		Scraper:     eventpage.NewScraper(poll.DefaultPolicy(), log),
		Bookings:    repo,
		Profiles:    repo,
		Sessions:    sessions,
		SessionTTL:  cfg.PaymentSessionTTL,
	}, log)

	opts := api.RouterOptions{
		Token:       cfg.BearerToken,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     observability.MetricsHandler(observability.InitRegistry()),
	}
	dbPinger := &pgxPoolPinger{pool: pool}

	var router http.Handler
	if redisHealth != nil {
		router = api.NewRouter(handlers, opts, dbPinger, redisHealth, log)
	} else {
		router = api.NewRouter(handlers, opts, dbPinger, nil, log)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool to the api.dbPinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.redisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
