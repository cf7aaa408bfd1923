// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	BearerToken string

	LiteAPIKey       string
	LiteAPIBaseURL   string
	LiteAPIBookURL   string
	PricingCurrency  string
	GuestNationality string
	MaxHotels        int

	GeocodingKey    string
	GeocodeBaseURL  string
	GeocodeCacheTTL time.Duration

	OpenAIKey   string
	OpenAIModel string

	PaymentSessionTTL time.Duration
	MigrationsDir     string
	CORSOrigins       []string
}

var required = []string{"DATABASE_URL", "BEARER_TOKEN", "LITEAPI_KEY"}

// Load reads .env files (if present) and then the process environment.
// Variables already set in the environment win over .env values. The error
// names every missing required variable at once.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var missing []string
	for _, k := range required {
		if os.Getenv(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	maxHotels, err := intEnv("MAX_HOTELS", 200)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := durationEnv("PAYMENT_SESSION_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	geocodeTTL, err := durationEnv("GEOCODE_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		BearerToken: os.Getenv("BEARER_TOKEN"),

		LiteAPIKey:       os.Getenv("LITEAPI_KEY"),
		LiteAPIBaseURL:   os.Getenv("LITEAPI_BASE_URL"),
		LiteAPIBookURL:   os.Getenv("LITEAPI_BOOK_URL"),
		PricingCurrency:  getEnv("PRICING_CURRENCY", "GBP"),
		GuestNationality: getEnv("GUEST_NATIONALITY", "IN"),
		MaxHotels:        maxHotels,

		GeocodingKey:    os.Getenv("GEOCODING_KEY"),
		GeocodeBaseURL:  os.Getenv("GEOCODE_BASE_URL"),
		GeocodeCacheTTL: geocodeTTL,

		OpenAIKey:   os.Getenv("OPENAI_KEY"),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		PaymentSessionTTL: sessionTTL,
		MigrationsDir:     getEnv("MIGRATIONS_DIR", "migrations"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "chrome-extension://*")),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
