package devsim

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ssbringup/bringup-go/pkg/lcctrl"
	"github.com/ssbringup/bringup-go/pkg/persistence"
	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/regport"
)

// Model is the device identity reported by bridges serving a Device.
const Model = "bringup-ss-devsim"

// StagedImageBase is where StagedImage is placed: a word count followed by
// the image words.
const StagedImageBase regport.Addr = 0x10000000

// Defaults.
const (
	DefaultMaxTransitions  = 24
	DefaultTransitionPolls = 2
	DefaultFifoDepth       = 16
	DefaultRecoveryPolls   = 3
	DefaultMailboxPolls    = 2
	DefaultDeviceID        = 0x00010001
)

// Options configures a Device. The zero value is a RAW device that is ready
// immediately, requires no tokens and is not in recovery mode.
type Options struct {
	// InitialState is the lifecycle state at power-on.
	InitialState lcctrl.State

	// Tokens maps target states to their clear transition tokens. Only
	// the cSHAKE128 digests are kept, as OTP would.
	Tokens map[lcctrl.State]lcctrl.Token

	// MaxTransitions bounds the transition counter (default 24).
	MaxTransitions int

	// TransitionPolls is how many status reads a transition stays in
	// flight (default 2).
	TransitionPolls int

	// BootPolls is how many status reads the controller needs to become
	// ready, and as many again to become initialized.
	BootPolls int

	// GateOnFuseWrite holds readiness until the fuse-write-done register
	// is written.
	GateOnFuseWrite bool

	// InjectOTPError makes every transition that gets past the request
	// checks fail with an OTP error.
	InjectOTPError bool

	// FifoDepth is the recovery FIFO depth in words (default 16).
	FifoDepth int

	// DrainInterval is how many FIFO status reads drain one word
	// (default 1). Negative values never drain.
	DrainInterval int

	// RecoveryMode starts the device waiting for a recovery image.
	RecoveryMode bool

	// RecoveryPolls is how many recovery status reads an activated image
	// stays in the booting state (default 3).
	RecoveryPolls int

	// ImageCheck authenticates an activated image (nil accepts all).
	ImageCheck func(image []uint32) bool

	// DeviceID is reported by the recovery interface.
	DeviceID uint32

	// StagedImage is placed at StagedImageBase.
	StagedImage []uint32

	// Mailbox serves mailbox commands (nil uses the built-in handler).
	Mailbox MailboxHandler

	// MailboxPolls is how many status reads a command stays busy
	// (default 2).
	MailboxPolls int

	// Store persists lifecycle state (optional).
	Store *persistence.DeviceStateStore

	// Logger for simulator events (optional).
	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.MaxTransitions == 0 {
		o.MaxTransitions = DefaultMaxTransitions
	}
	if o.TransitionPolls == 0 {
		o.TransitionPolls = DefaultTransitionPolls
	}
	if o.FifoDepth == 0 {
		o.FifoDepth = DefaultFifoDepth
	}
	if o.DrainInterval == 0 {
		o.DrainInterval = 1
	}
	if o.RecoveryPolls == 0 {
		o.RecoveryPolls = DefaultRecoveryPolls
	}
	if o.MailboxPolls == 0 {
		o.MailboxPolls = DefaultMailboxPolls
	}
	if o.DeviceID == 0 {
		o.DeviceID = DefaultDeviceID
	}
}

// Device is a simulated subsystem.
type Device struct {
	mem    *regport.MemPort
	opts   Options
	mapped map[regport.Addr]bool
	otp    map[lcctrl.State]lcctrl.Token
	logger *slog.Logger

	mu         sync.Mutex
	lc         lifecycle
	boot       bootFlow
	rec        recovery
	mbox       mailboxState
	violations int
}

// New creates a Device and restores persisted lifecycle state when
// opts.Store holds any.
func New(opts Options) (*Device, error) {
	opts.applyDefaults()
	d := &Device{
		mem:    regport.NewMemPort(),
		opts:   opts,
		mapped: make(map[regport.Addr]bool),
		otp:    make(map[lcctrl.State]lcctrl.Token),
		logger: opts.Logger,
	}
	for target, tok := range opts.Tokens {
		d.otp[target] = lcctrl.HashToken(tok)
	}
	for _, reg := range regmap.Registers {
		d.mapped[reg.Addr] = true
	}

	d.lc.state = opts.InitialState
	if opts.Store != nil {
		saved, err := opts.Store.Load()
		if err != nil {
			return nil, fmt.Errorf("restore device state: %w", err)
		}
		if saved != nil {
			d.lc.state = lcctrl.State(saved.LifecycleState)
			d.lc.count = saved.TransitionCount
			d.lc.saved = saved
			d.debugLog("device state restored", "state", d.lc.state, "count", d.lc.count)
		}
	}

	d.installLifecycle()
	d.installRecovery()
	d.installMailbox()
	d.stageImage()
	return d, nil
}

// Port returns the simulated register file.
func (d *Device) Port() *regport.MemPort {
	return d.mem
}

// Mapped reports whether addr is a simulated register.
func (d *Device) Mapped(addr regport.Addr) bool {
	return d.mapped[addr]
}

// Violations returns the number of protocol violations observed.
func (d *Device) Violations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.violations
}

// violation records misuse. Callers hold d.mu.
func (d *Device) violation(what string, addr regport.Addr) {
	d.violations++
	if d.logger != nil {
		d.logger.Warn("protocol violation", "what", what, "addr", addr.String())
	}
}

func (d *Device) stageImage() {
	if len(d.opts.StagedImage) == 0 {
		return
	}
	d.mem.Poke(StagedImageBase, uint32(len(d.opts.StagedImage)))
	d.mapped[StagedImageBase] = true
	for i, w := range d.opts.StagedImage {
		addr := StagedImageBase + regport.Addr(4*(i+1))
		d.mem.Poke(addr, w)
		d.mapped[addr] = true
	}
}

func (d *Device) debugLog(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
