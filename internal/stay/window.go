package stay

import (
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/gumdrop/internal/apperr"
)

// ParseEventDate parses an event date string into a calendar date (UTC midnight).
//
// Accepted forms are "<Weekday>, <Month> <Day>" with any trailing text,
// "<Month> <Day>" and ISO-8601 dates with or without a time component. The
// year comes from now unless a four-digit year follows the day.
func ParseEventDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.Invalid("event date is required", "eventDate")
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return t, nil
		}
	}

	rest := s
	if _, after, ok := strings.Cut(s, ", "); ok {
		rest = after
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return time.Time{}, apperr.Invalid("unrecognised event date: " + s)
	}

	month, ok := parseMonth(fields[0])
	if !ok {
		return time.Time{}, apperr.Invalid("unrecognised event date: " + s)
	}
	day, err := leadingInt(fields[1])
	if err != nil {
		return time.Time{}, apperr.Invalid("unrecognised event date: " + s)
	}

	year := now.Year()
	if len(fields) >= 3 {
		if y := strings.TrimRight(fields[2], ","); len(y) == 4 {
			if n, err := strconv.Atoi(y); err == nil {
				year = n
			}
		}
	}

	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, apperr.Invalid("unrecognised event date: " + s)
	}
	return d, nil
}

// WindowForEvent returns the one-night-either-side stay window for an event date.
func WindowForEvent(s string, now time.Time) (StayWindow, error) {
	d, err := ParseEventDate(s, now)
	if err != nil {
		return StayWindow{}, err
	}
	return StayWindow{Checkin: d.AddDate(0, 0, -1), Checkout: d.AddDate(0, 0, 1)}, nil
}

func parseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimRight(s, ".,"))
	if len(s) < 3 {
		return 0, false
	}
	if s == "sept" {
		return time.September, true
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || s == name[:3] {
			return m, true
		}
	}
	return 0, false
}

// leadingInt reads the digits at the start of s, so "4th" and "4," both give 4.
func leadingInt(s string) (int, error) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return strconv.Atoi(s[:end])
}
