package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ssbringup/bringup-go/pkg/bootcfg"
	"github.com/ssbringup/bringup-go/pkg/lcctrl"
	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/mailbox"
	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/regmutex"
	"github.com/ssbringup/bringup-go/pkg/regport"
	"github.com/ssbringup/bringup-go/pkg/stream"
)

// Runner invokes single protocol operations against one port. Engines built
// by one Runner share the claim mutex.
type Runner struct {
	Port      regport.Port
	Profile   bootcfg.Profile
	Logger    *slog.Logger
	Trace     log.Logger
	SessionID string

	mutex *regmutex.Mutex
}

func (r *Runner) engine() (*lcctrl.Engine, error) {
	regs, err := r.Profile.LifecycleRegisters()
	if err != nil {
		return nil, err
	}
	if r.mutex == nil {
		r.mutex = regmutex.New(regmutex.Config{
			Port:      r.Port,
			ClaimAddr: regs.Claim,
			Logger:    r.Logger,
			Trace:     r.Trace,
			SessionID: r.SessionID,
		})
	}
	b := r.Profile.Budgets
	return lcctrl.NewEngine(lcctrl.Config{
		Port:       r.Port,
		Registers:  regs,
		Mutex:      r.mutex,
		LockBudget: b.Lock.Poll(),
		PollBudget: b.Status.Poll(),
		Logger:     r.Logger,
		Trace:      r.Trace,
		SessionID:  r.SessionID,
	}), nil
}

// Transition requests a lifecycle transition. A nil token requests a
// tokenless transition.
func (r *Runner) Transition(ctx context.Context, target lcctrl.State, token *lcctrl.Token) (lcctrl.Outcome, error) {
	e, err := r.engine()
	if err != nil {
		return lcctrl.OutcomeNone, err
	}
	req := lcctrl.Tokenless(target)
	if token != nil {
		req = lcctrl.WithToken(target, *token)
	}
	return e.Transition(ctx, req)
}

// WaitReady runs the lifecycle controller readiness handshake.
func (r *Runner) WaitReady(ctx context.Context) error {
	e, err := r.engine()
	if err != nil {
		return err
	}
	return e.WaitReady(ctx, r.Profile.Budgets.Ready.Poll())
}

// Stream loads image through the recovery interface and waits for it to
// boot. It requires BootI3CCore.
func (r *Runner) Stream(ctx context.Context, image []uint32) (stream.DeviceInfo, error) {
	if err := r.Profile.Boot.RequireStreamingBoot(); err != nil {
		return stream.DeviceInfo{}, err
	}
	regs, err := r.Profile.RecoveryRegisters()
	if err != nil {
		return stream.DeviceInfo{}, err
	}
	rec := stream.NewRecovery(stream.RecoveryConfig{
		Port:      r.Port,
		Registers: regs,
		FifoFull:  r.Profile.FifoFull(),
		Logger:    r.Logger,
		Trace:     r.Trace,
		SessionID: r.SessionID,
	})
	b := r.Profile.Budgets
	info, err := rec.Boot(ctx, image, b.Recovery.Poll(), b.Element.Poll())
	if err != nil {
		return info, err
	}
	return info, rec.AwaitRecoveryStatus(ctx, b.Recovery.Poll())
}

// Mailbox executes one mailbox transaction. It requires
// EnableMailboxUserInit.
func (r *Runner) Mailbox(ctx context.Context, tx mailbox.Transaction) (mailbox.Result, error) {
	if err := r.Profile.Boot.RequireMailbox(); err != nil {
		return mailbox.Result{}, err
	}
	regs, err := r.Profile.MailboxRegisters()
	if err != nil {
		return mailbox.Result{}, err
	}
	b := r.Profile.Budgets
	ch := mailbox.NewChannel(mailbox.Config{
		Port:         r.Port,
		Registers:    regs,
		LockBudget:   b.Lock.Poll(),
		StatusBudget: b.Mailbox.Poll(),
		LockRelease:  r.Profile.LockRelease(),
		Logger:       r.Logger,
		Trace:        r.Trace,
		SessionID:    r.SessionID,
	})
	return ch.Execute(ctx, tx)
}

// Read reads one register.
func (r *Runner) Read(addr regport.Addr) (uint32, error) {
	v := r.Port.ReadRegister(addr)
	return v, regport.Err(r.Port)
}

// Write writes one register.
func (r *Runner) Write(addr regport.Addr, value uint32) error {
	r.Port.WriteRegister(addr, value)
	return regport.Err(r.Port)
}

// LifecycleState reads and decodes the current lifecycle state.
func (r *Runner) LifecycleState() (lcctrl.State, error) {
	v, err := r.Read(regmap.LcCtrlLcState)
	if err != nil {
		return 0, err
	}
	s, err := lcctrl.Unpack(v)
	if err != nil {
		return 0, err
	}
	return lcctrl.State(s), nil
}

var mailboxCommands = map[string]uint32{
	"fwld": mailbox.CmdFirmwareLoad,
}

// parseMailboxCommand accepts a known command name, a four character ASCII
// mnemonic or a number.
func parseMailboxCommand(s string) (uint32, error) {
	if c, ok := mailboxCommands[strings.ToLower(s)]; ok {
		return c, nil
	}
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(v), nil
	}
	if len(s) == 4 {
		return uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3]), nil
	}
	return 0, fmt.Errorf("unknown mailbox command %q", s)
}

// parseWords parses numeric data words.
func parseWords(args []string) ([]uint32, error) {
	words := make([]uint32, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid data word %q", a)
		}
		words = append(words, uint32(v))
	}
	return words, nil
}

// parseValue parses a 32-bit register value.
func parseValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return uint32(v), nil
}

// parseTarget parses a state name or number and an optional token.
func parseTarget(args []string) (lcctrl.State, *lcctrl.Token, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("target state required")
	}
	target, err := lcctrl.ParseState(args[0])
	if err != nil {
		return 0, nil, err
	}
	if len(args) < 2 {
		return target, nil, nil
	}
	tok, err := lcctrl.ParseToken(args[1])
	if err != nil {
		return 0, nil, err
	}
	return target, &tok, nil
}
