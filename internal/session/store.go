// Package session holds short-lived payment handoff payloads keyed by an
// opaque id.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a payment session is kept.
const DefaultTTL = time.Hour

// ErrNotFound is returned for unknown or expired keys.
var ErrNotFound = errors.New("session: not found")

// Store is a TTL key/value store for payment session payloads.
type Store interface {
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Take returns the payload and removes it in one step. Only one caller
	// can take a given key.
	Take(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

const paymentPrefix = "pay_"

// NewPaymentKey returns a fresh payment-data id.
func NewPaymentKey() string {
	return paymentPrefix + uuid.NewString()
}

// IsPaymentKey reports whether key was issued by NewPaymentKey. Other keys,
// such as parked booking forms, must not be served to payment-data readers.
func IsPaymentKey(key string) bool {
	_, err := uuid.Parse(strings.TrimPrefix(key, paymentPrefix))
	return strings.HasPrefix(key, paymentPrefix) && err == nil
}

// BookingKey is the key under which the booking form for a payment
// transaction is parked until the payment redirect returns.
func BookingKey(transactionID string) string {
	return "booking_" + transactionID
}
