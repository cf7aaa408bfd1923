// Package poll runs an operation repeatedly under a bounded, increasing
// delay schedule with a hard wall-clock limit.
package poll

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrExhausted is returned when every attempt ran without success.
var ErrExhausted = errors.New("poll: attempts exhausted")

// Policy is an exponential schedule. Delay(n) is the wait after the n-th
// unsuccessful attempt.
type Policy struct {
	Initial     time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// DefaultPolicy waits 500ms, 1s, 2s, 4s, 4s between six attempts, within 20s overall.
func DefaultPolicy() Policy {
	return Policy{
		Initial:     500 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    4 * time.Second,
		MaxAttempts: 6,
		Timeout:     20 * time.Second,
	}
}

// Delay returns min(Initial * Multiplier^(n-1), MaxDelay) for n >= 1 and 0
// otherwise. It is monotonic in n.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 || p.Initial <= 0 {
		return 0
	}
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	d := float64(p.Initial) * math.Pow(m, float64(n-1))
	if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; Run returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Run calls fn until it reports done, returns a Permanent error, attempts
// run out, or the Timeout (or ctx) expires. Other errors are retried.
func (p Policy) Run(ctx context.Context, fn func(ctx context.Context) (done bool, err error)) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for n := 1; n <= attempts; n++ {
		done, err := fn(ctx)
		if err == nil && done {
			return nil
		}
		var perm permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if n == attempts {
			break
		}

		t := time.NewTimer(p.Delay(n))
		select {
		case <-ctx.Done():
			t.Stop()
			if lastErr != nil {
				return fmt.Errorf("poll: stopped after %d attempts: %w (last error: %v)", n, ctx.Err(), lastErr)
			}
			return fmt.Errorf("poll: stopped after %d attempts: %w", n, ctx.Err())
		case <-t.C:
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
	}
	return fmt.Errorf("%w after %d attempts", ErrExhausted, attempts)
}
