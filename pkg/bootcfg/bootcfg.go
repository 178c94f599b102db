package bootcfg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ssbringup/bringup-go/pkg/lcctrl"
	"github.com/ssbringup/bringup-go/pkg/mailbox"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/regport"
	"github.com/ssbringup/bringup-go/pkg/stream"
)

var (
	// ErrInvalidProfile indicates a profile that cannot be used.
	ErrInvalidProfile = errors.New("invalid bring-up profile")

	// ErrStepDisabled indicates an operation whose boot step is turned off.
	ErrStepDisabled = errors.New("boot step disabled")
)

// BootConfig selects the optional steps of a bring-up run. Only
// EnableFuseWrite, BootI3CCore and EnableMailboxUserInit change what the
// protocol components do; EnableWatchdog and TriggerProdROM are carried for
// the boot sequencer that drives the device and are not read here.
type BootConfig struct {
	// EnableMailboxUserInit marks the mailbox users as initialized. Without
	// it mailbox transactions are refused (RequireMailbox).
	EnableMailboxUserInit bool `yaml:"enable_mailbox_user_init"`

	// EnableFuseWrite adds the ready-for-fuses / fuse-write-done handshake
	// to the lifecycle readiness wait (LifecycleRegisters).
	EnableFuseWrite bool `yaml:"enable_fuse_write"`

	// EnableWatchdog arms the boot watchdog. Passed through only.
	EnableWatchdog bool `yaml:"enable_watchdog"`

	// BootI3CCore brings up the I3C recovery interface. Without it
	// streaming boot is refused (RequireStreamingBoot).
	BootI3CCore bool `yaml:"boot_i3c_core"`

	// TriggerProdROM starts the production ROM after bring-up. Passed
	// through only.
	TriggerProdROM bool `yaml:"trigger_prod_rom"`
}

// RequireMailbox returns ErrStepDisabled unless the mailbox users are
// initialized.
func (c BootConfig) RequireMailbox() error {
	if !c.EnableMailboxUserInit {
		return fmt.Errorf("%w: mailbox user init", ErrStepDisabled)
	}
	return nil
}

// RequireStreamingBoot returns ErrStepDisabled unless the I3C core is booted.
func (c BootConfig) RequireStreamingBoot() error {
	if !c.BootI3CCore {
		return fmt.Errorf("%w: i3c core", ErrStepDisabled)
	}
	return nil
}

// String lists the enabled steps.
func (c BootConfig) String() string {
	var on []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"mailbox-user-init", c.EnableMailboxUserInit},
		{"fuse-write", c.EnableFuseWrite},
		{"watchdog", c.EnableWatchdog},
		{"boot-i3c-core", c.BootI3CCore},
		{"trigger-prod-rom", c.TriggerProdROM},
	} {
		if f.set {
			on = append(on, f.name)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}

// RegRef is a register reference: a BLOCK.REGISTER name or a numeric address.
type RegRef string

// Resolve returns the referenced address.
func (r RegRef) Resolve() (regport.Addr, error) {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return 0, fmt.Errorf("%w: empty register reference", ErrInvalidProfile)
	}
	if reg, ok := regmap.Lookup(s); ok {
		return reg.Addr, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown register %q", ErrInvalidProfile, s)
	}
	return regport.Addr(v), nil
}

// Budget is the YAML form of a poll.Budget.
type Budget struct {
	Attempts    int           `yaml:"attempts,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Interval    time.Duration `yaml:"interval,omitempty"`
	MaxInterval time.Duration `yaml:"max_interval,omitempty"`
	Factor      float64       `yaml:"factor,omitempty"`
}

// Poll converts to a poll.Budget.
func (b Budget) Poll() poll.Budget {
	return poll.Budget{
		MaxAttempts: b.Attempts,
		Timeout:     b.Timeout,
		Interval:    b.Interval,
		MaxInterval: b.MaxInterval,
		Factor:      b.Factor,
	}
}

// Budgets holds the per-protocol polling budgets.
type Budgets struct {
	Lock     Budget `yaml:"lock"`
	Status   Budget `yaml:"status"`
	Ready    Budget `yaml:"ready"`
	Element  Budget `yaml:"element"`
	Mailbox  Budget `yaml:"mailbox"`
	Recovery Budget `yaml:"recovery"`
}

// LifecycleRegs references the lifecycle controller registers.
type LifecycleRegs struct {
	Status        RegRef `yaml:"status"`
	Claim         RegRef `yaml:"claim"`
	Cmd           RegRef `yaml:"cmd"`
	Token         RegRef `yaml:"token"`
	Target        RegRef `yaml:"target"`
	FlowStatus    RegRef `yaml:"flow_status,omitempty"`
	FuseWriteDone RegRef `yaml:"fuse_write_done,omitempty"`
}

// RecoveryRegs references the recovery interface registers.
type RecoveryRegs struct {
	DeviceStatus   RegRef `yaml:"device_status"`
	IntfCfg        RegRef `yaml:"intf_cfg"`
	ProtCap0       RegRef `yaml:"prot_cap_0"`
	ProtCap1       RegRef `yaml:"prot_cap_1"`
	DeviceID       RegRef `yaml:"device_id"`
	HWStatus       RegRef `yaml:"hw_status"`
	RecoveryStatus RegRef `yaml:"recovery_status"`
	RecoveryCtrl   RegRef `yaml:"recovery_ctrl"`
	FifoCtrl0      RegRef `yaml:"fifo_ctrl_0"`
	FifoCtrl1      RegRef `yaml:"fifo_ctrl_1"`
	FifoStatus     RegRef `yaml:"fifo_status"`
	TxData         RegRef `yaml:"tx_data"`
	W1CAccess      RegRef `yaml:"w1c_access"`
	FifoFullBit    uint8  `yaml:"fifo_full_bit"`
}

// MailboxRegs references the mailbox registers.
type MailboxRegs struct {
	Lock        RegRef `yaml:"lock"`
	Cmd         RegRef `yaml:"cmd"`
	Dlen        RegRef `yaml:"dlen"`
	DataIn      RegRef `yaml:"datain"`
	DataOut     RegRef `yaml:"dataout"`
	Execute     RegRef `yaml:"execute"`
	Status      RegRef `yaml:"status"`
	LockRelease string `yaml:"lock_release,omitempty"`
}

// Profile is a complete bring-up configuration.
type Profile struct {
	Name      string        `yaml:"name"`
	Boot      BootConfig    `yaml:"boot"`
	Lifecycle LifecycleRegs `yaml:"lifecycle"`
	Recovery  RecoveryRegs  `yaml:"recovery"`
	Mailbox   MailboxRegs   `yaml:"mailbox"`
	Budgets   Budgets       `yaml:"budgets"`
}

// Default returns the profile of the simulated subsystem.
func Default() Profile {
	return Profile{
		Name: "default",
		Boot: BootConfig{
			EnableMailboxUserInit: true,
			EnableFuseWrite:       true,
			EnableWatchdog:        true,
			BootI3CCore:           true,
		},
		Lifecycle: LifecycleRegs{
			Status:        "LC_CTRL.STATUS",
			Claim:         "LC_CTRL.CLAIM_TRANSITION_IF",
			Cmd:           "LC_CTRL.TRANSITION_CMD",
			Token:         "LC_CTRL.TRANSITION_TOKEN_0",
			Target:        "LC_CTRL.TRANSITION_TARGET",
			FlowStatus:    "SOC_IFC.CPTRA_FLOW_STATUS",
			FuseWriteDone: "SOC_IFC.CPTRA_FUSE_WR_DONE",
		},
		Recovery: RecoveryRegs{
			DeviceStatus:   "I3C_REC.DEVICE_STATUS_0",
			IntfCfg:        "I3C_REC.REC_INTF_CFG",
			ProtCap0:       "I3C_REC.PROT_CAP_0",
			ProtCap1:       "I3C_REC.PROT_CAP_1",
			DeviceID:       "I3C_REC.DEVICE_ID_0",
			HWStatus:       "I3C_REC.HW_STATUS",
			RecoveryStatus: "I3C_REC.RECOVERY_STATUS",
			RecoveryCtrl:   "I3C_REC.RECOVERY_CTRL",
			FifoCtrl0:      "I3C_REC.INDIRECT_FIFO_CTRL_0",
			FifoCtrl1:      "I3C_REC.INDIRECT_FIFO_CTRL_1",
			FifoStatus:     "I3C_REC.INDIRECT_FIFO_STATUS_0",
			TxData:         "I3C_REC.TTI_TX_DATA_PORT",
			W1CAccess:      "I3C_REC.REC_INTF_REG_W1C_ACCESS",
			FifoFullBit:    regmap.I3cRecIndirectFifoStatus0Full.Offset,
		},
		Mailbox: MailboxRegs{
			Lock:    "MBOX.LOCK",
			Cmd:     "MBOX.CMD",
			Dlen:    "MBOX.DLEN",
			DataIn:  "MBOX.DATAIN",
			DataOut: "MBOX.DATAOUT",
			Execute: "MBOX.EXECUTE",
			Status:  "MBOX.STATUS",
		},
		Budgets: Budgets{
			Lock:     Budget{Attempts: 1000, Timeout: 2 * time.Second},
			Status:   Budget{Attempts: 10000, Timeout: 5 * time.Second, Interval: 100 * time.Microsecond, MaxInterval: 10 * time.Millisecond},
			Ready:    Budget{Timeout: 5 * time.Second, Interval: time.Millisecond},
			Element:  Budget{Attempts: 1000, Timeout: time.Second, Interval: 10 * time.Microsecond, MaxInterval: time.Millisecond},
			Mailbox:  Budget{Timeout: 5 * time.Second, Interval: 100 * time.Microsecond, MaxInterval: 10 * time.Millisecond},
			Recovery: Budget{Timeout: 10 * time.Second, Interval: time.Millisecond, MaxInterval: 50 * time.Millisecond},
		},
	}
}

// Parse decodes a profile over Default and validates it.
func Parse(data []byte) (Profile, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Load reads and parses a profile file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Validate resolves every register reference and checks every budget.
func (p Profile) Validate() error {
	if _, err := p.LifecycleRegisters(); err != nil {
		return err
	}
	if _, err := p.RecoveryRegisters(); err != nil {
		return err
	}
	if _, err := p.MailboxRegisters(); err != nil {
		return err
	}
	if _, err := mailbox.ParseLockRelease(p.Mailbox.LockRelease); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if p.Recovery.FifoFullBit > 31 {
		return fmt.Errorf("%w: fifo_full_bit %d", ErrInvalidProfile, p.Recovery.FifoFullBit)
	}
	for name, b := range map[string]Budget{
		"lock":     p.Budgets.Lock,
		"status":   p.Budgets.Status,
		"ready":    p.Budgets.Ready,
		"element":  p.Budgets.Element,
		"mailbox":  p.Budgets.Mailbox,
		"recovery": p.Budgets.Recovery,
	} {
		if err := b.Poll().Validate(); err != nil {
			return fmt.Errorf("%w: budget %s: %w", ErrInvalidProfile, name, err)
		}
	}
	return nil
}

// resolver collects the first resolution error.
type resolver struct {
	err error
}

func (r *resolver) addr(field string, ref RegRef) regport.Addr {
	if r.err != nil {
		return 0
	}
	a, err := ref.Resolve()
	if err != nil {
		r.err = fmt.Errorf("%s: %w", field, err)
	}
	return a
}

func (r *resolver) optional(field string, ref RegRef) regport.Addr {
	if ref == "" {
		return 0
	}
	return r.addr(field, ref)
}

// LifecycleRegisters resolves the lifecycle controller registers.
func (p Profile) LifecycleRegisters() (lcctrl.Registers, error) {
	var r resolver
	l := p.Lifecycle
	regs := lcctrl.Registers{
		Status: r.addr("lifecycle.status", l.Status),
		Claim:  r.addr("lifecycle.claim", l.Claim),
		Cmd:    r.addr("lifecycle.cmd", l.Cmd),
		Token:  r.addr("lifecycle.token", l.Token),
		Target: r.addr("lifecycle.target", l.Target),
	}
	if p.Boot.EnableFuseWrite {
		regs.FlowStatus = r.optional("lifecycle.flow_status", l.FlowStatus)
		regs.FuseWriteDone = r.optional("lifecycle.fuse_write_done", l.FuseWriteDone)
		regs.ReadyForFuses = regmap.SocIfcCptraFlowStatusReadyForFuses
	}
	return regs, r.err
}

// RecoveryRegisters resolves the recovery interface registers.
func (p Profile) RecoveryRegisters() (stream.RecoveryRegisters, error) {
	var r resolver
	c := p.Recovery
	regs := stream.RecoveryRegisters{
		DeviceStatus:   r.addr("recovery.device_status", c.DeviceStatus),
		IntfCfg:        r.addr("recovery.intf_cfg", c.IntfCfg),
		Bypass:         regmap.I3cRecRecIntfCfgRecIntfBypass,
		ProtCap0:       r.addr("recovery.prot_cap_0", c.ProtCap0),
		ProtCap1:       r.addr("recovery.prot_cap_1", c.ProtCap1),
		DeviceID:       r.addr("recovery.device_id", c.DeviceID),
		HWStatus:       r.addr("recovery.hw_status", c.HWStatus),
		RecoveryStatus: r.addr("recovery.recovery_status", c.RecoveryStatus),
		RecoveryCtrl:   r.addr("recovery.recovery_ctrl", c.RecoveryCtrl),
		FifoCtrl0:      r.addr("recovery.fifo_ctrl_0", c.FifoCtrl0),
		FifoCtrl1:      r.addr("recovery.fifo_ctrl_1", c.FifoCtrl1),
		FifoStatus:     r.addr("recovery.fifo_status", c.FifoStatus),
		TxData:         r.addr("recovery.tx_data", c.TxData),
		W1CAccess:      r.addr("recovery.w1c_access", c.W1CAccess),
	}
	return regs, r.err
}

// FifoFull returns the FIFO full flag.
func (p Profile) FifoFull() regport.Field {
	return regport.Bit(p.Recovery.FifoFullBit)
}

// MailboxRegisters resolves the mailbox registers.
func (p Profile) MailboxRegisters() (mailbox.Registers, error) {
	var r resolver
	m := p.Mailbox
	regs := mailbox.Registers{
		Lock:    r.addr("mailbox.lock", m.Lock),
		Cmd:     r.addr("mailbox.cmd", m.Cmd),
		Dlen:    r.addr("mailbox.dlen", m.Dlen),
		DataIn:  r.addr("mailbox.datain", m.DataIn),
		DataOut: r.addr("mailbox.dataout", m.DataOut),
		Execute: r.addr("mailbox.execute", m.Execute),
		Status:  r.addr("mailbox.status", m.Status),
	}
	return regs, r.err
}

// LockRelease returns the mailbox lock release policy.
func (p Profile) LockRelease() mailbox.LockRelease {
	l, _ := mailbox.ParseLockRelease(p.Mailbox.LockRelease)
	return l
}

// Marshal encodes the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
