package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/gumdrop/internal/booking"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for booking records and the user profile.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// Profile is the single local user's contact details and onboarding flags.
type Profile struct {
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	SetupCompleted bool      `json:"setupCompleted"`
	SetupSkipped   bool      `json:"setupSkipped"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

const profileID = "default"

const bookingColumns = `id::text, booking_ref, COALESCE(provider_booking_id, ''), prebook_id, status,
	holder, guests, hotel, pricing, event, created_at`

// nullJSON maps an empty snapshot to SQL NULL.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// SaveBooking inserts a booking record. rec.ID must be a UUID.
func (r *Repository) SaveBooking(ctx context.Context, rec *booking.Record) error {
	holderJSON, err := json.Marshal(rec.Holder)
	if err != nil {
		return fmt.Errorf("marshaling holder for booking %s: %w", rec.ID, err)
	}
	guests := rec.Guests
	if guests == nil {
		guests = []booking.Guest{}
	}
	guestsJSON, err := json.Marshal(guests)
	if err != nil {
		return fmt.Errorf("marshaling guests for booking %s: %w", rec.ID, err)
	}

	const q = `
		INSERT INTO bookings (id, booking_ref, provider_booking_id, prebook_id, status,
		                      holder, guests, hotel, pricing, event, created_at, updated_at)
		VALUES ($1::uuid, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`

	if _, err := r.q.Exec(ctx, q,
		rec.ID,
		rec.BookingRef,
		rec.ProviderBookingID,
		rec.PrebookID,
		string(rec.Status),
		holderJSON,
		guestsJSON,
		nullJSON(rec.Hotel),
		nullJSON(rec.Pricing),
		nullJSON(rec.Event),
		rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting booking %s: %w", rec.ID, err)
	}

	return nil
}

// GetBooking retrieves a booking by id.
// Returns nil, nil when the booking is not found.
func (r *Repository) GetBooking(ctx context.Context, id string) (*booking.Record, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1::uuid`

	rec, err := scanBooking(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying booking %s: %w", id, err)
	}
	return rec, nil
}

// ListBookings returns bookings newest first. An empty status lists all.
func (r *Repository) ListBookings(ctx context.Context, status booking.Status) ([]*booking.Record, error) {
	q := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, q, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	results := []*booking.Record{}
	for rows.Next() {
		rec, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking row: %w", err)
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating booking rows: %w", err)
	}

	return results, nil
}

// UpdateBookingStatus sets a booking's status. It reports false when no
// booking has that id.
func (r *Repository) UpdateBookingStatus(ctx context.Context, id string, status booking.Status) (bool, error) {
	const q = `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1::uuid`

	tag, err := r.q.Exec(ctx, q, id, string(status))
	if err != nil {
		return false, fmt.Errorf("updating booking %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteBooking removes a booking. It reports false when no booking has that id.
func (r *Repository) DeleteBooking(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM bookings WHERE id = $1::uuid`

	tag, err := r.q.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("deleting booking %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanBooking(row pgx.Row) (*booking.Record, error) {
	var rec booking.Record
	var status string
	var holderJSON, guestsJSON, hotelJSON, pricingJSON, eventJSON []byte

	if err := row.Scan(
		&rec.ID,
		&rec.BookingRef,
		&rec.ProviderBookingID,
		&rec.PrebookID,
		&status,
		&holderJSON,
		&guestsJSON,
		&hotelJSON,
		&pricingJSON,
		&eventJSON,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	rec.Status = booking.Status(status)
	if err := json.Unmarshal(holderJSON, &rec.Holder); err != nil {
		return nil, fmt.Errorf("unmarshaling holder for booking %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(guestsJSON, &rec.Guests); err != nil {
		return nil, fmt.Errorf("unmarshaling guests for booking %s: %w", rec.ID, err)
	}
	if len(hotelJSON) > 0 {
		rec.Hotel = json.RawMessage(hotelJSON)
	}
	if len(pricingJSON) > 0 {
		rec.Pricing = json.RawMessage(pricingJSON)
	}
	if len(eventJSON) > 0 {
		rec.Event = json.RawMessage(eventJSON)
	}
	return &rec, nil
}

// GetProfile retrieves the user profile.
// Returns nil, nil when no profile has been saved yet.
func (r *Repository) GetProfile(ctx context.Context) (*Profile, error) {
	const q = `
		SELECT first_name, last_name, email, phone, setup_completed, setup_skipped, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p Profile
	err := r.q.QueryRow(ctx, q, profileID).Scan(
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.SetupCompleted,
		&p.SetupSkipped,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile inserts or replaces the user profile.
func (r *Repository) UpsertProfile(ctx context.Context, p Profile) error {
	const q = `
		INSERT INTO profiles (id, first_name, last_name, email, phone, setup_completed, setup_skipped, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE
		SET first_name      = EXCLUDED.first_name,
		    last_name       = EXCLUDED.last_name,
		    email           = EXCLUDED.email,
		    phone           = EXCLUDED.phone,
		    setup_completed = EXCLUDED.setup_completed,
		    setup_skipped   = EXCLUDED.setup_skipped,
		    updated_at      = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, q, profileID, p.FirstName, p.LastName, p.Email, p.Phone, p.SetupCompleted, p.SetupSkipped); err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}
