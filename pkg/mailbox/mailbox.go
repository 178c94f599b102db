package mailbox

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

// Well-known commands.
const (
	// CmdFirmwareLoad ("FWLD") asks the device to load the recovery image.
	// Its code has RespRequired set.
	CmdFirmwareLoad uint32 = 0x46574C44
)

// Register fields.
var (
	LockBit      = regport.Bit(0)
	ExecuteBit   = regport.Bit(0)
	RespRequired = regport.Bit(30)
	StatusField  = regport.Field{Offset: 0, Width: 4}
)

// MaxDataWords bounds payloads written to and read from the mailbox.
const MaxDataWords = 4096

// Status is the mailbox status field.
type Status uint8

// Mailbox status values.
const (
	StatusCmdBusy     Status = 0
	StatusDataReady   Status = 1
	StatusCmdComplete Status = 2
	StatusCmdFailure  Status = 3
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCmdBusy:
		return "CMD_BUSY"
	case StatusDataReady:
		return "DATA_READY"
	case StatusCmdComplete:
		return "CMD_COMPLETE"
	case StatusCmdFailure:
		return "CMD_FAILURE"
	default:
		return fmt.Sprintf("STATUS_%d", uint8(s))
	}
}

// Mailbox errors.
var (
	ErrLockTimeout   = errors.New("mailbox lock timeout")
	ErrTimeout       = errors.New("mailbox status poll timeout")
	ErrCommandFailed = errors.New("mailbox command failed")
	ErrPayloadSize   = errors.New("mailbox payload too large")
)

// LockRelease selects how the mailbox lock is given up.
type LockRelease uint8

const (
	// LockReleaseOnExecuteClear relies on the mailbox dropping the lock
	// when execute is cleared.
	LockReleaseOnExecuteClear LockRelease = iota
	// LockReleaseWrite additionally writes zero to the lock register.
	LockReleaseWrite
)

// String returns the policy name.
func (l LockRelease) String() string {
	if l == LockReleaseWrite {
		return "write"
	}
	return "execute-clear"
}

// ParseLockRelease parses a policy name as returned by String.
func ParseLockRelease(s string) (LockRelease, error) {
	switch s {
	case "", "execute-clear":
		return LockReleaseOnExecuteClear, nil
	case "write":
		return LockReleaseWrite, nil
	}
	return 0, fmt.Errorf("unknown lock release policy %q", s)
}

// Registers holds the mailbox register addresses.
type Registers struct {
	Lock    regport.Addr
	Cmd     regport.Addr
	Dlen    regport.Addr
	DataIn  regport.Addr
	DataOut regport.Addr
	Execute regport.Addr
	Status  regport.Addr
}

// Transaction is one mailbox command.
type Transaction struct {
	Command    uint32
	DataLength uint32 // bytes
	// ResponseRequired sets RespRequired (bit 30) in the command register.
	// It cannot clear the flag: a command code with bit 30 already set,
	// such as CmdFirmwareLoad, always requests a response.
	ResponseRequired bool
	Data             []uint32
}

// Result is the outcome of a completed transaction.
type Result struct {
	Status    Status
	Completed bool
	// Response holds the data-out words when the device reported DataReady.
	Response []uint32
}

// Config configures a Channel.
type Config struct {
	Port      regport.Port
	Registers Registers

	LockBudget   poll.Budget
	StatusBudget poll.Budget
	LockRelease  LockRelease

	Logger    *slog.Logger
	Trace     log.Logger
	SessionID string
}

// Channel executes mailbox transactions.
type Channel struct {
	port    regport.Port
	regs    Registers
	lock    poll.Budget
	status  poll.Budget
	release LockRelease
	logger  *slog.Logger
	tracer  log.Tracer
}

// NewChannel creates a Channel.
func NewChannel(cfg Config) *Channel {
	return &Channel{
		port:    cfg.Port,
		regs:    cfg.Registers,
		lock:    cfg.LockBudget,
		status:  cfg.StatusBudget,
		release: cfg.LockRelease,
		logger:  cfg.Logger,
		tracer:  log.NewTracer(cfg.Trace, cfg.SessionID, log.ComponentMailbox),
	}
}

// Execute runs tx. Failures after the lock was taken still clear execute
// (and release the lock under LockReleaseWrite) before returning.
func (c *Channel) Execute(ctx context.Context, tx Transaction) (Result, error) {
	if len(tx.Data) > MaxDataWords {
		return Result{}, fmt.Errorf("%w: %d words", ErrPayloadSize, len(tx.Data))
	}
	start := time.Now()

	c.tracer.State("IDLE", "LOCKING", "")
	if _, _, err := poll.Register(ctx, c.lock, c.port, c.regs.Lock, func(v uint32) bool {
		return !LockBit.IsSet(v)
	}); err != nil {
		c.tracer.Error(err, "lock")
		if errors.Is(err, poll.ErrTimeout) {
			return Result{}, fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
		return Result{}, fmt.Errorf("mailbox lock: %w", err)
	}
	defer c.cleanup()

	cmd := tx.Command
	if tx.ResponseRequired {
		cmd = RespRequired.Set(cmd, 1)
	}
	c.tracer.State("LOCKING", "POSTING", "")
	c.port.WriteRegister(c.regs.Cmd, cmd)
	c.port.WriteRegister(c.regs.Dlen, tx.DataLength)
	for _, w := range tx.Data {
		c.port.WriteRegister(c.regs.DataIn, w)
	}
	c.port.WriteRegister(c.regs.Execute, ExecuteBit.Set(0, 1))

	c.tracer.State("POSTING", "EXECUTING", "")
	var status Status
	n, err := poll.Until(ctx, c.status, func(int) (bool, error) {
		v := c.port.ReadRegister(c.regs.Status)
		if err := regport.Err(c.port); err != nil {
			return false, err
		}
		status = Status(StatusField.Get(v))
		return status != StatusCmdBusy, nil
	})
	if err != nil {
		c.tracer.Outcome("execute", "TIMEOUT", n, time.Since(start))
		if errors.Is(err, poll.ErrTimeout) {
			return Result{Status: status}, fmt.Errorf("%w: command 0x%08x: %w", ErrTimeout, tx.Command, err)
		}
		return Result{Status: status}, fmt.Errorf("mailbox command 0x%08x: %w", tx.Command, err)
	}
	c.tracer.Outcome("execute", status.String(), n, time.Since(start))

	switch status {
	case StatusCmdComplete:
		return Result{Status: status, Completed: true}, nil
	case StatusDataReady:
		resp, err := c.readResponse()
		if err != nil {
			return Result{Status: status}, err
		}
		return Result{Status: status, Completed: true, Response: resp}, nil
	default:
		return Result{Status: status}, fmt.Errorf("%w: command 0x%08x status %s", ErrCommandFailed, tx.Command, status)
	}
}

// readResponse reads the response length (bytes) and data-out words.
func (c *Channel) readResponse() ([]uint32, error) {
	dlen := c.port.ReadRegister(c.regs.Dlen)
	n := (dlen + 3) / 4
	if n > MaxDataWords {
		return nil, fmt.Errorf("%w: response of %d bytes", ErrPayloadSize, dlen)
	}
	resp := make([]uint32, n)
	for i := range resp {
		resp[i] = c.port.ReadRegister(c.regs.DataOut)
	}
	return resp, regport.Err(c.port)
}

func (c *Channel) cleanup() {
	c.port.WriteRegister(c.regs.Execute, 0)
	if c.release == LockReleaseWrite {
		c.port.WriteRegister(c.regs.Lock, 0)
	}
	c.debugLog("mailbox execute cleared", "release", c.release)
	c.tracer.State("EXECUTING", "IDLE", "execute cleared")
}

func (c *Channel) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
