package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"

	"github.com/ssbringup/bringup-go/pkg/regport"
)

// Poll errors.
var (
	// ErrTimeout indicates the budget was exhausted before the condition held.
	ErrTimeout = errors.New("poll budget exhausted")

	// ErrUnbounded indicates a budget with neither an attempt bound nor a timeout.
	ErrUnbounded = errors.New("poll budget is unbounded")
)

// Budget bounds a polling loop. At least one of MaxAttempts or Timeout must
// be set.
type Budget struct {
	// MaxAttempts is the maximum number of checks (0 = no attempt bound).
	MaxAttempts int

	// Timeout is the maximum wall-clock time (0 = no time bound).
	Timeout time.Duration

	// Interval is the wait between checks (0 = check again immediately).
	Interval time.Duration

	// MaxInterval enables exponential backoff from Interval up to MaxInterval
	// when larger than Interval.
	MaxInterval time.Duration

	// Factor is the backoff multiplier (default 2).
	Factor float64
}

// Attempts returns a budget of n back-to-back checks.
func Attempts(n int) Budget {
	return Budget{MaxAttempts: n}
}

// Validate checks that the budget terminates.
func (b Budget) Validate() error {
	if b.MaxAttempts < 0 || b.Timeout < 0 || b.Interval < 0 {
		return fmt.Errorf("%w: negative bound", ErrUnbounded)
	}
	if b.MaxAttempts == 0 && b.Timeout == 0 {
		return ErrUnbounded
	}
	return nil
}

// String summarizes the budget for logs.
func (b Budget) String() string {
	return fmt.Sprintf("attempts=%d timeout=%s interval=%s", b.MaxAttempts, b.Timeout, b.Interval)
}

// waiter yields the pause before each subsequent check.
type waiter struct {
	interval time.Duration
	bo       *backoff.Backoff
}

func newWaiter(b Budget) waiter {
	w := waiter{interval: b.Interval}
	if b.Interval > 0 && b.MaxInterval > b.Interval {
		factor := b.Factor
		if factor <= 1 {
			factor = 2
		}
		w.bo = &backoff.Backoff{Min: b.Interval, Max: b.MaxInterval, Factor: factor}
	}
	return w
}

func (w waiter) next() time.Duration {
	if w.bo != nil {
		return w.bo.Duration()
	}
	return w.interval
}

// Cond reports whether the polled condition holds. A non-nil error stops
// polling immediately. attempt starts at 1.
type Cond func(attempt int) (bool, error)

// Until calls cond until it returns true, returns an error, the budget is
// exhausted or ctx is done. It returns the number of checks made.
//
// Exhaustion returns an error wrapping ErrTimeout. Cancellation returns an
// error wrapping ctx.Err().
func Until(ctx context.Context, b Budget, cond Cond) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	var deadline time.Time
	if b.Timeout > 0 {
		deadline = time.Now().Add(b.Timeout)
	}
	w := newWaiter(b)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, fmt.Errorf("poll cancelled after %d attempts: %w", attempt-1, err)
		}

		done, err := cond(attempt)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}

		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return attempt, fmt.Errorf("%w after %d attempts", ErrTimeout, attempt)
		}

		wait := w.next()
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return attempt, fmt.Errorf("%w after %d attempts (%s)", ErrTimeout, attempt, b.Timeout)
			}
			if wait > remaining {
				wait = remaining
			}
		}

		if wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return attempt, fmt.Errorf("poll cancelled after %d attempts: %w", attempt, err)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Register reads addr until cond holds for the value read, returning the
// last value and the number of reads. Polling stops with an error wrapping
// regport.ErrBus when the port reports a bus fault.
func Register(ctx context.Context, b Budget, port regport.Port, addr regport.Addr, cond func(uint32) bool) (uint32, int, error) {
	var last uint32
	n, err := Until(ctx, b, func(int) (bool, error) {
		last = port.ReadRegister(addr)
		if err := regport.Err(port); err != nil {
			return false, err
		}
		return cond(last), nil
	})
	return last, n, err
}
