package lcctrl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regmutex"
	"github.com/ssbringup/bringup-go/pkg/regport"
)

// Engine states reported through the trace log.
const (
	phaseIdle          = "IDLE"
	phaseAcquiringLock = "ACQUIRING_LOCK"
	phaseWritingTarget = "WRITING_TARGET"
	phaseWritingToken  = "WRITING_TOKEN"
	phaseTriggered     = "TRIGGERED"
	phasePolling       = "POLLING"
	phaseReleased      = "RELEASED"
)

// commandStart is written to the command register to start a transition.
const commandStart uint32 = 1

// Registers holds the lifecycle controller register addresses.
type Registers struct {
	Status regport.Addr
	Claim  regport.Addr
	Cmd    regport.Addr
	Token  regport.Addr
	Target regport.Addr

	// FlowStatus and FuseWriteDone enable the fuse handshake in WaitReady
	// when FlowStatus is non-zero.
	FlowStatus    regport.Addr
	ReadyForFuses regport.Field
	FuseWriteDone regport.Addr
}

// Config configures an Engine.
type Config struct {
	Port      regport.Port
	Registers Registers

	// StatusBits overrides DefaultStatusBits when non-nil.
	StatusBits *StatusBits

	// Mutex guards transitions. When nil a Mutex on Registers.Claim is
	// created; share one Mutex between engines driving the same controller.
	Mutex *regmutex.Mutex

	// LockBudget bounds claim acquisition.
	LockBudget poll.Budget

	// PollBudget bounds status polling after the command is triggered.
	PollBudget poll.Budget

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// Trace receives protocol events (nil disables).
	Trace log.Logger

	// SessionID tags trace events.
	SessionID string
}

// Engine runs lifecycle transitions. It holds no device state between calls.
type Engine struct {
	port   regport.Port
	regs   Registers
	bits   StatusBits
	mutex  *regmutex.Mutex
	lock   poll.Budget
	poll   poll.Budget
	logger *slog.Logger
	tracer log.Tracer
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	bits := DefaultStatusBits
	if cfg.StatusBits != nil {
		bits = *cfg.StatusBits
	}
	m := cfg.Mutex
	if m == nil {
		m = regmutex.New(regmutex.Config{
			Port:      cfg.Port,
			ClaimAddr: cfg.Registers.Claim,
			Logger:    cfg.Logger,
			Trace:     cfg.Trace,
			SessionID: cfg.SessionID,
		})
	}
	return &Engine{
		port:   cfg.Port,
		regs:   cfg.Registers,
		bits:   bits,
		mutex:  m,
		lock:   cfg.LockBudget,
		poll:   cfg.PollBudget,
		logger: cfg.Logger,
		tracer: log.NewTracer(cfg.Trace, cfg.SessionID, log.ComponentLifecycle),
	}
}

// Mutex returns the claim mutex guarding this engine.
func (e *Engine) Mutex() *regmutex.Mutex {
	return e.mutex
}

// Transition performs req and returns its outcome.
//
// A malformed request returns OutcomeNone and ErrInvalidRequest before any
// register access. A claim timeout returns OutcomeNone and an error wrapping
// regmutex.ErrLockTimeout with no further register writes. Otherwise the claim is always released before
// Transition returns, and every non-success outcome is accompanied by
// Outcome.Err (wrapped).
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return OutcomeNone, err
	}
	start := time.Now()
	phase := phaseIdle
	enter := func(next string) {
		e.tracer.State(phase, next, "")
		phase = next
	}

	enter(phaseAcquiringLock)
	guard, err := e.mutex.Acquire(ctx, e.lock)
	if err != nil {
		e.tracer.Error(err, "acquire")
		e.tracer.State(phase, phaseIdle, "lock not acquired")
		return OutcomeNone, fmt.Errorf("transition to %s: %w", req.Target, err)
	}
	defer func() {
		e.mutex.Release(guard)
		enter(phaseReleased)
	}()
	e.debugLog("transition claim acquired", "target", req.Target)

	enter(phaseWritingTarget)
	e.port.WriteRegister(e.regs.Target, Pack(uint32(req.Target)))

	if req.RequireToken {
		enter(phaseWritingToken)
		for _, w := range req.Token {
			e.port.WriteRegister(e.regs.Token, w)
		}
	}

	enter(phaseTriggered)
	e.port.WriteRegister(e.regs.Cmd, commandStart)

	enter(phasePolling)
	var outcome Outcome
	n, err := poll.Until(ctx, e.poll, func(int) (bool, error) {
		status := e.port.ReadRegister(e.regs.Status)
		if err := regport.Err(e.port); err != nil {
			return false, err
		}
		o, done := e.bits.Decode(status)
		outcome = o
		return done, nil
	})
	if err != nil {
		e.tracer.Outcome("transition", OutcomeTimeout.String(), n, time.Since(start))
		if errors.Is(err, poll.ErrTimeout) {
			return OutcomeTimeout, fmt.Errorf("transition to %s: %w: %w", req.Target, ErrPollTimeout, err)
		}
		return OutcomeTimeout, fmt.Errorf("transition to %s: %w", req.Target, err)
	}

	e.debugLog("transition finished", "target", req.Target, "outcome", outcome, "polls", n)
	e.tracer.Outcome("transition", outcome.String(), n, time.Since(start))
	if err := outcome.Err(); err != nil {
		return outcome, fmt.Errorf("transition to %s: %w", req.Target, err)
	}
	return outcome, nil
}

// WaitReady performs the controller bring-up handshake. When a flow status
// register is configured it first waits for the ready-for-fuses field and
// writes the fuse-write-done register. It then waits for the ready bit and
// afterwards for the initialized bit. Each wait gets its own budget.
func (e *Engine) WaitReady(ctx context.Context, budget poll.Budget) error {
	if e.regs.FlowStatus != 0 {
		if _, _, err := poll.Register(ctx, budget, e.port, e.regs.FlowStatus, e.regs.ReadyForFuses.IsSet); err != nil {
			return fmt.Errorf("wait ready for fuses: %w", err)
		}
		e.port.WriteRegister(e.regs.FuseWriteDone, 1)
		e.debugLog("fuse write done")
	}

	ready := regport.Bit(e.bits.Ready)
	if _, _, err := poll.Register(ctx, budget, e.port, e.regs.Status, ready.IsSet); err != nil {
		return fmt.Errorf("wait controller ready: %w", err)
	}
	e.tracer.State("", "READY", "")

	initialized := regport.Bit(e.bits.Initialized)
	if _, _, err := poll.Register(ctx, budget, e.port, e.regs.Status, initialized.IsSet); err != nil {
		return fmt.Errorf("wait controller initialized: %w", err)
	}
	e.tracer.State("READY", "INITIALIZED", "")
	e.debugLog("lifecycle controller initialized")
	return nil
}

func (e *Engine) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
