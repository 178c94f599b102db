package regmutex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regport"
)

// ClaimValue is the byte written to (and expected back from) the claim
// register.
const ClaimValue uint32 = 0x96

// claimMask selects the byte compared against ClaimValue.
const claimMask uint32 = 0xFF

// Trace states.
const (
	StateIdle        = "IDLE"
	StateAcquired    = "ACQUIRED"
	StateReleased    = "RELEASED"
	StateLockTimeout = "LOCK_TIMEOUT"
)

// ErrLockTimeout indicates the claim was not obtained within the budget.
var ErrLockTimeout = errors.New("claim register lock timeout")

// Config configures a Mutex.
type Config struct {
	// Port is the register port the claim register lives on.
	Port regport.Port

	// ClaimAddr is the claim register address.
	ClaimAddr regport.Addr

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// Trace receives state events (nil disables).
	Trace log.Logger

	// SessionID tags trace events.
	SessionID string
}

// Mutex is a claim-register semaphore.
type Mutex struct {
	port   regport.Port
	addr   regport.Addr
	logger *slog.Logger
	tracer log.Tracer

	// slot holds a token while a guard is outstanding.
	slot chan struct{}
}

// New creates a Mutex for the claim register in cfg.
func New(cfg Config) *Mutex {
	return &Mutex{
		port:   cfg.Port,
		addr:   cfg.ClaimAddr,
		logger: cfg.Logger,
		tracer: log.NewTracer(cfg.Trace, cfg.SessionID, log.ComponentMutex),
		slot:   make(chan struct{}, 1),
	}
}

// Guard represents a held claim. Pass it to Release exactly once; further
// releases of the same guard are no-ops.
type Guard struct {
	m        *Mutex
	once     sync.Once
	attempts int
}

// Attempts returns how many claim attempts were needed.
func (g *Guard) Attempts() int {
	return g.attempts
}

// Acquire claims the register. Every attempt performs exactly one write of
// ClaimValue followed by one read-back. When the budget runs out Acquire
// returns an error wrapping ErrLockTimeout and writes nothing further.
//
// Time spent behind another caller of the same Mutex comes out of budget:
// failed tries for the local slot use up attempts, and the wait uses up the
// timeout. An attempt-only budget with no Interval retries the slot without
// pausing, so callers that share a Mutex should pass a Timeout or Interval.
func (m *Mutex) Acquire(ctx context.Context, budget poll.Budget) (*Guard, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	missed, err := m.waitSlot(ctx, budget)
	if err != nil {
		m.tracer.State(StateIdle, StateLockTimeout, err.Error())
		return nil, err
	}

	if budget.MaxAttempts > 0 {
		budget.MaxAttempts -= missed
	}
	if budget.Timeout > 0 {
		// The slot wait counts against the wall-clock budget.
		budget.Timeout -= time.Since(start)
		if budget.Timeout <= 0 {
			<-m.slot
			m.tracer.State(StateIdle, StateLockTimeout, "budget spent waiting for local holder")
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, poll.ErrTimeout)
		}
	}

	n, err := poll.Until(ctx, budget, func(int) (bool, error) {
		m.port.WriteRegister(m.addr, ClaimValue)
		got := m.port.ReadRegister(m.addr)
		if err := regport.Err(m.port); err != nil {
			return false, err
		}
		return got&claimMask == ClaimValue, nil
	})
	if err != nil {
		<-m.slot
		m.tracer.State(StateIdle, StateLockTimeout, err.Error())
		m.tracer.Outcome("acquire", StateLockTimeout, n, time.Since(start))
		if errors.Is(err, poll.ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
		return nil, fmt.Errorf("acquire claim: %w", err)
	}

	m.debugLog("claim acquired", "addr", m.addr, "attempts", n)
	m.tracer.State(StateIdle, StateAcquired, "")
	m.tracer.Outcome("acquire", StateAcquired, n, time.Since(start))
	return &Guard{m: m, attempts: n}, nil
}

// waitSlot takes the local slot and reports how many tries missed it. With
// a wall-clock budget it blocks up to the timeout and reports zero misses;
// otherwise each try is one attempt of budget, so on success at least one
// attempt is left for the claim register.
func (m *Mutex) waitSlot(ctx context.Context, budget poll.Budget) (int, error) {
	if budget.Timeout == 0 {
		n, err := poll.Until(ctx, budget, func(int) (bool, error) {
			select {
			case m.slot <- struct{}{}:
				return true, nil
			default:
				return false, nil
			}
		})
		if errors.Is(err, poll.ErrTimeout) {
			return n, fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
		if err != nil {
			return n, fmt.Errorf("acquire claim: %w", err)
		}
		return n - 1, nil
	}

	select {
	case m.slot <- struct{}{}:
		return 0, nil
	default:
	}

	t := time.NewTimer(budget.Timeout)
	defer t.Stop()

	select {
	case m.slot <- struct{}{}:
		return 0, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("acquire claim: %w", ctx.Err())
	case <-t.C:
		return 0, fmt.Errorf("%w: %w", ErrLockTimeout, poll.ErrTimeout)
	}
}

// Release gives up the claim held by g by writing zero to the claim register.
// Only the first Release of a guard writes. Release(nil) writes zero
// unconditionally; use it to clear a claim left behind by an earlier run.
func (m *Mutex) Release(g *Guard) {
	if g == nil {
		m.port.WriteRegister(m.addr, 0)
		m.debugLog("claim cleared", "addr", m.addr)
		return
	}
	g.once.Do(func() {
		m.port.WriteRegister(m.addr, 0)
		<-m.slot
		m.debugLog("claim released", "addr", m.addr)
		m.tracer.State(StateAcquired, StateReleased, "")
	})
}

// Held reports whether a guard is currently outstanding on this Mutex.
func (m *Mutex) Held() bool {
	return len(m.slot) == 1
}

func (m *Mutex) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
