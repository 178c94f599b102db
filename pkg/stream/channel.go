package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regport"
)

// ErrBackpressureTimeout indicates the FIFO stayed full for a whole element
// budget.
var ErrBackpressureTimeout = errors.New("fifo backpressure timeout")

// TransferError reports a job that stopped before completion.
type TransferError struct {
	// Sent is the number of elements accepted before the failure.
	Sent int
	// Total is the job length.
	Total int
	// Err is the cause.
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("stream aborted after %d/%d elements: %v", e.Sent, e.Total, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// FifoStatus is a decoded FIFO status register.
type FifoStatus struct {
	Full bool
	Raw  uint32
}

// DefaultFullField is the full flag in the FIFO status register.
var DefaultFullField = regport.Bit(1)

// Config configures a Channel.
type Config struct {
	Port regport.Port

	// Status is the FIFO status register.
	Status regport.Addr

	// Data is the data port register.
	Data regport.Addr

	// Full is the full flag within Status (zero value = DefaultFullField).
	Full regport.Field

	Logger    *slog.Logger
	Trace     log.Logger
	SessionID string
}

// Channel streams jobs into one FIFO.
type Channel struct {
	port   regport.Port
	status regport.Addr
	data   regport.Addr
	full   regport.Field
	logger *slog.Logger
	tracer log.Tracer
}

// NewChannel creates a Channel.
func NewChannel(cfg Config) *Channel {
	full := cfg.Full
	if full.Width == 0 {
		full = DefaultFullField
	}
	return &Channel{
		port:   cfg.Port,
		status: cfg.Status,
		data:   cfg.Data,
		full:   full,
		logger: cfg.Logger,
		tracer: log.NewTracer(cfg.Trace, cfg.SessionID, log.ComponentStream),
	}
}

// ReadStatus reads the FIFO status register.
func (c *Channel) ReadStatus() FifoStatus {
	raw := c.port.ReadRegister(c.status)
	return FifoStatus{Full: c.full.IsSet(raw), Raw: raw}
}

// Send writes every element of job, in order, each after the FIFO reports
// room. elementBudget bounds the status polls of a single element; running
// out aborts the job with a *TransferError wrapping ErrBackpressureTimeout.
// A job can be sent once; a second Send returns ErrJobConsumed.
func (c *Channel) Send(ctx context.Context, job *Job, elementBudget poll.Budget) error {
	if err := elementBudget.Validate(); err != nil {
		return err
	}
	if err := job.claim(); err != nil {
		return err
	}
	start := time.Now()
	total := job.Len()
	polls := 0

	for i, word := range job.words {
		n, err := poll.Until(ctx, elementBudget, func(int) (bool, error) {
			st := c.ReadStatus()
			if err := regport.Err(c.port); err != nil {
				return false, err
			}
			return !st.Full, nil
		})
		polls += n
		if err != nil {
			if errors.Is(err, poll.ErrTimeout) {
				err = fmt.Errorf("%w: element %d: %w", ErrBackpressureTimeout, i, err)
			}
			terr := &TransferError{Sent: i, Total: total, Err: err}
			c.tracer.Error(terr, "send")
			c.tracer.Outcome("send", "ABORTED", polls, time.Since(start))
			return terr
		}

		c.port.WriteRegister(c.data, word)
		job.advance()
	}

	c.debugLog("stream job sent", "elements", total, "polls", polls)
	c.tracer.Outcome("send", "COMPLETE", polls, time.Since(start))
	return nil
}

func (c *Channel) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
