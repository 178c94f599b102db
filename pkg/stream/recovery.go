package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regport"
)

// Recovery protocol constants.
const (
	// ProtCapMagic0 and ProtCapMagic1 spell the recovery protocol magic.
	ProtCapMagic0 uint32 = 0x2050434f
	ProtCapMagic1 uint32 = 0x56434552

	// RecoveryModeMask selects the device status bits that read 3 once the
	// device waits for a recovery image.
	RecoveryModeMask  uint32 = 0x3
	RecoveryModeValue uint32 = 0x3

	// StatusAwaitingImage is the recovery status before an image is loaded.
	StatusAwaitingImage uint32 = 0x1
	// StatusBooting is reported while the activated image is authenticated.
	StatusBooting uint32 = 0x2
	// StatusSuccess is reported once the image booted.
	StatusSuccess uint32 = 0x3
	// StatusFailed is a transient failure the device may recover from.
	StatusFailed uint32 = 0x4

	// FifoCtrlReset is written to indirect FIFO ctrl 0 before loading.
	FifoCtrlReset uint32 = 0x100

	// ActivateImage is written to the W1C access register to activate the
	// loaded image.
	ActivateImage uint32 = 0xF00
)

// Recovery errors.
var (
	ErrNotInRecoveryMode        = errors.New("device not in recovery mode")
	ErrCapabilityMismatch       = errors.New("recovery protocol capability mismatch")
	ErrUnexpectedRecoveryStatus = errors.New("unexpected recovery status")
)

// DefaultBypassField is the bypass bit of the recovery interface config.
var DefaultBypassField = regport.Bit(0)

// RecoveryRegisters holds the recovery interface register addresses.
type RecoveryRegisters struct {
	DeviceStatus   regport.Addr
	IntfCfg        regport.Addr
	Bypass         regport.Field // zero = DefaultBypassField
	ProtCap0       regport.Addr
	ProtCap1       regport.Addr
	DeviceID       regport.Addr
	HWStatus       regport.Addr
	RecoveryStatus regport.Addr
	RecoveryCtrl   regport.Addr
	FifoCtrl0      regport.Addr
	FifoCtrl1      regport.Addr
	FifoStatus     regport.Addr
	TxData         regport.Addr
	W1CAccess      regport.Addr
}

// RecoveryConfig configures a Recovery.
type RecoveryConfig struct {
	Port      regport.Port
	Registers RecoveryRegisters

	// FifoFull is the full flag of FifoStatus (zero = DefaultFullField).
	FifoFull regport.Field

	// InProgress lists the recovery status values accepted while waiting
	// for StatusSuccess. Defaults to {2, 3, 4}.
	InProgress []uint32

	Logger    *slog.Logger
	Trace     log.Logger
	SessionID string
}

// DeviceInfo is read from the recovery interface after the capability check.
type DeviceInfo struct {
	DeviceID uint32
	HWStatus uint32
}

// Recovery drives the recovery-interface streaming boot.
type Recovery struct {
	port       regport.Port
	regs       RecoveryRegisters
	channel    *Channel
	inProgress []uint32
	logger     *slog.Logger
	tracer     log.Tracer
	phase      string
}

// NewRecovery creates a Recovery whose image data goes through a Channel on
// the FIFO status and TX data registers.
func NewRecovery(cfg RecoveryConfig) *Recovery {
	inProgress := cfg.InProgress
	if len(inProgress) == 0 {
		inProgress = []uint32{StatusBooting, StatusSuccess, StatusFailed}
	}
	regs := cfg.Registers
	if regs.Bypass.Width == 0 {
		regs.Bypass = DefaultBypassField
	}
	return &Recovery{
		port: cfg.Port,
		regs: regs,
		channel: NewChannel(Config{
			Port:      cfg.Port,
			Status:    cfg.Registers.FifoStatus,
			Data:      cfg.Registers.TxData,
			Full:      cfg.FifoFull,
			Logger:    cfg.Logger,
			Trace:     cfg.Trace,
			SessionID: cfg.SessionID,
		}),
		inProgress: inProgress,
		logger:     cfg.Logger,
		tracer:     log.NewTracer(cfg.Trace, cfg.SessionID, log.ComponentRecovery),
		phase:      "IDLE",
	}
}

func (r *Recovery) enter(phase string) {
	r.tracer.State(r.phase, phase, "")
	r.phase = phase
}

// AwaitRecoveryMode polls the device status until the device waits for a
// recovery image.
func (r *Recovery) AwaitRecoveryMode(ctx context.Context, budget poll.Budget) error {
	r.enter("AWAIT_RECOVERY_MODE")
	_, _, err := poll.Register(ctx, budget, r.port, r.regs.DeviceStatus, func(v uint32) bool {
		return v&RecoveryModeMask == RecoveryModeValue
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotInRecoveryMode, err)
	}
	return nil
}

// EnableBypass sets the bypass bit of the recovery interface config,
// preserving the other bits.
func (r *Recovery) EnableBypass() {
	r.enter("BYPASS")
	cfg := r.port.ReadRegister(r.regs.IntfCfg)
	r.port.WriteRegister(r.regs.IntfCfg, r.regs.Bypass.Set(cfg, 1))
}

// CheckCapabilities verifies the protocol capability magic and returns the
// device identification registers.
func (r *Recovery) CheckCapabilities() (DeviceInfo, error) {
	r.enter("CHECK_CAPABILITIES")
	c0 := r.port.ReadRegister(r.regs.ProtCap0)
	c1 := r.port.ReadRegister(r.regs.ProtCap1)
	if c0 != ProtCapMagic0 || c1 != ProtCapMagic1 {
		return DeviceInfo{}, fmt.Errorf("%w: got 0x%08x 0x%08x", ErrCapabilityMismatch, c0, c1)
	}
	info := DeviceInfo{
		DeviceID: r.port.ReadRegister(r.regs.DeviceID),
		HWStatus: r.port.ReadRegister(r.regs.HWStatus),
	}
	r.debugLog("recovery capabilities ok", "device_id", info.DeviceID, "hw_status", info.HWStatus)
	return info, regport.Err(r.port)
}

// LoadImage checks the device awaits an image, programs the indirect FIFO
// for len(image) words and streams the image.
func (r *Recovery) LoadImage(ctx context.Context, image []uint32, elementBudget poll.Budget) error {
	r.enter("LOAD_IMAGE")
	if st := r.port.ReadRegister(r.regs.RecoveryStatus); st != StatusAwaitingImage {
		return fmt.Errorf("%w: 0x%x before load, want 0x%x", ErrUnexpectedRecoveryStatus, st, StatusAwaitingImage)
	}
	r.port.WriteRegister(r.regs.RecoveryCtrl, 0)
	r.port.WriteRegister(r.regs.FifoCtrl0, FifoCtrlReset)
	r.port.WriteRegister(r.regs.FifoCtrl1, uint32(len(image)))

	if err := r.channel.Send(ctx, NewJob(image), elementBudget); err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	r.debugLog("recovery image streamed", "words", len(image))
	return nil
}

// Activate requests activation of the loaded image.
func (r *Recovery) Activate() {
	r.enter("ACTIVATE")
	r.port.WriteRegister(r.regs.W1CAccess, ActivateImage)
}

// AwaitRecoveryStatus polls the recovery status until StatusSuccess. Values
// outside the in-progress set fail immediately with
// ErrUnexpectedRecoveryStatus.
func (r *Recovery) AwaitRecoveryStatus(ctx context.Context, budget poll.Budget) error {
	r.enter("AWAIT_STATUS")
	start := time.Now()
	var last uint32
	n, err := poll.Until(ctx, budget, func(int) (bool, error) {
		last = r.port.ReadRegister(r.regs.RecoveryStatus)
		if err := regport.Err(r.port); err != nil {
			return false, err
		}
		if !slices.Contains(r.inProgress, last) {
			return false, fmt.Errorf("%w: 0x%x", ErrUnexpectedRecoveryStatus, last)
		}
		return last == StatusSuccess, nil
	})
	if err != nil {
		r.tracer.Outcome("recovery", "FAILED", n, time.Since(start))
		return fmt.Errorf("await recovery status (last 0x%x): %w", last, err)
	}
	r.tracer.Outcome("recovery", "SUCCESS", n, time.Since(start))
	return nil
}

// Boot runs the full flow up to activation: recovery mode, bypass,
// capability check, image load and activation.
func (r *Recovery) Boot(ctx context.Context, image []uint32, modeBudget, elementBudget poll.Budget) (DeviceInfo, error) {
	if err := r.AwaitRecoveryMode(ctx, modeBudget); err != nil {
		return DeviceInfo{}, err
	}
	r.EnableBypass()
	info, err := r.CheckCapabilities()
	if err != nil {
		return DeviceInfo{}, err
	}
	if err := r.LoadImage(ctx, image, elementBudget); err != nil {
		return info, err
	}
	r.Activate()
	return info, nil
}

func (r *Recovery) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
