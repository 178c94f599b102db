package devsim

import (
	"time"

	"github.com/ssbringup/bringup-go/pkg/lcctrl"
	"github.com/ssbringup/bringup-go/pkg/persistence"
	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/regmutex"
	"github.com/ssbringup/bringup-go/pkg/regport"
)

// HW revision words reported by the lifecycle controller.
const (
	hwRevision0 uint32 = 0x00010002
	hwRevision1 uint32 = 0x00000001
)

// lifecycle is the controller state. Guarded by Device.mu.
type lifecycle struct {
	state    lcctrl.State
	count    int
	claimed  bool
	external bool // claim held by another interface

	tokens    []uint32
	busy      bool
	remaining int
	target    uint32
	result    regport.Field

	saved *persistence.DeviceState
}

// bootFlow is the fuse handshake and readiness progress.
type bootFlow struct {
	fuseDone bool
	reads    int
}

// State returns the current lifecycle state.
func (d *Device) State() lcctrl.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lc.state
}

// TransitionCount returns the number of transitions attempted.
func (d *Device) TransitionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lc.count
}

// SetExternalClaim simulates another interface holding the transition
// claim. While held, claim writes read back as zero.
func (d *Device) SetExternalClaim(held bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lc.external = held
	if held {
		d.lc.claimed = false
	}
}

func (d *Device) installLifecycle() {
	d.mem.OnWrite(regmap.LcCtrlClaimTransitionIf, d.writeClaim)
	d.mem.OnWrite(regmap.LcCtrlTransitionTarget, d.writeTransitionReg)
	d.mem.OnWrite(regmap.LcCtrlTransitionToken0, d.writeToken)
	d.mem.OnWrite(regmap.LcCtrlTransitionCmd, d.writeCmd)
	d.mem.OnRead(regmap.LcCtrlStatus, d.readStatus)
	d.mem.OnRead(regmap.LcCtrlLcState, func(regport.Store, regport.Addr, uint32) uint32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		return lcctrl.Pack(uint32(d.lc.state))
	})
	d.mem.OnRead(regmap.SocIfcCptraFlowStatus, d.readFlowStatus)
	d.mem.OnWrite(regmap.SocIfcCptraFuseWrDone, d.writeFuseDone)
	d.mem.Poke(regmap.LcCtrlHwRevision0, hwRevision0)
	d.mem.Poke(regmap.LcCtrlHwRevision1, hwRevision1)
}

func (d *Device) writeClaim(_ regport.Store, _ regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if value&0xFF != regmutex.ClaimValue {
		d.lc.claimed = false
		d.lc.tokens = nil
		return 0
	}
	if d.lc.external {
		return 0
	}
	d.lc.claimed = true
	return regmutex.ClaimValue
}

// writeTransitionReg guards the target register.
func (d *Device) writeTransitionReg(_ regport.Store, addr regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkTransitionWrite(addr)
	return value
}

func (d *Device) writeToken(_ regport.Store, addr regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.checkTransitionWrite(addr) {
		d.lc.tokens = append(d.lc.tokens, value)
		if n := len(d.lc.tokens) - len(lcctrl.Token{}); n > 0 {
			d.lc.tokens = d.lc.tokens[n:]
		}
	}
	return value
}

// checkTransitionWrite reports whether a write to the transition interface
// is legal, counting a violation otherwise. Callers hold d.mu.
func (d *Device) checkTransitionWrite(addr regport.Addr) bool {
	switch {
	case !d.lc.claimed:
		d.violation("transition write without claim", addr)
	case d.lc.busy:
		d.violation("transition write while in flight", addr)
	default:
		return true
	}
	return false
}

func (d *Device) writeCmd(s regport.Store, addr regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if value&1 == 0 {
		return value
	}
	if !d.checkTransitionWrite(addr) {
		return value
	}
	d.lc.busy = true
	d.lc.remaining = d.opts.TransitionPolls
	d.lc.target = s.Peek(regmap.LcCtrlTransitionTarget)
	d.lc.result = regport.Field{}
	d.debugLog("transition started", "from", d.lc.state, "target", d.lc.target)
	return value
}

func (d *Device) readStatus(regport.Store, regport.Addr, uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	var v uint32
	if d.bootProgress(regmap.LcCtrlStatusReady) {
		v = regmap.LcCtrlStatusReady.Set(v, 1)
	}
	if d.bootProgress(regmap.LcCtrlStatusInitialized) {
		v = regmap.LcCtrlStatusInitialized.Set(v, 1)
	}
	d.boot.reads++

	if d.lc.busy {
		d.lc.remaining--
		if d.lc.remaining <= 0 {
			d.complete()
		}
	}
	if d.lc.result.Width != 0 {
		v = d.lc.result.Set(v, 1)
	}
	return v
}

// bootProgress reports whether the readiness bit f is set yet.
func (d *Device) bootProgress(f regport.Field) bool {
	if d.opts.GateOnFuseWrite && !d.boot.fuseDone {
		return false
	}
	need := d.opts.BootPolls
	if f == regmap.LcCtrlStatusInitialized {
		need *= 2
	}
	return d.boot.reads >= need
}

func (d *Device) readFlowStatus(_ regport.Store, _ regport.Addr, stored uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return regmap.SocIfcCptraFlowStatusReadyForFuses.Set(stored, boolBit(!d.boot.fuseDone))
}

func (d *Device) writeFuseDone(_ regport.Store, _ regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if value&1 != 0 && !d.boot.fuseDone {
		d.boot.fuseDone = true
		d.boot.reads = 0
		d.debugLog("fuse write done")
	}
	return value
}

// complete evaluates the in-flight transition. Callers hold d.mu.
func (d *Device) complete() {
	from := d.lc.state
	d.lc.busy = false
	d.lc.result = d.evaluate()
	d.lc.tokens = nil

	result := resultName(d.lc.result)
	d.debugLog("transition complete", "from", from, "to", d.lc.state, "result", result)

	if d.opts.Store == nil {
		return
	}
	if d.lc.saved == nil {
		d.lc.saved = &persistence.DeviceState{}
	}
	d.lc.saved.LifecycleState = uint8(d.lc.state)
	d.lc.saved.StateName = d.lc.state.String()
	d.lc.saved.TransitionCount = d.lc.count
	d.lc.saved.Append(persistence.TransitionRecord{
		From:   uint8(from),
		To:     uint8(d.lc.target & uint32(lcctrl.MaxState)),
		Result: result,
		At:     time.Now(),
	})
	if err := d.opts.Store.Save(d.lc.saved); err != nil && d.logger != nil {
		d.logger.Error("saving device state", "error", err)
	}
}

// evaluate applies the transition rules and returns the status bit to set.
func (d *Device) evaluate() regport.Field {
	v, err := lcctrl.Unpack(d.lc.target)
	if err != nil {
		return regmap.LcCtrlStatusStateError
	}
	target := lcctrl.State(v)

	if d.lc.count >= d.opts.MaxTransitions {
		return regmap.LcCtrlStatusTransitionCountError
	}
	d.lc.count++

	if target > lcctrl.StateScrap {
		return regmap.LcCtrlStatusStateError
	}
	if target == lcctrl.StateRMA && d.lc.state != lcctrl.StateDev && d.lc.state != lcctrl.StateProd {
		return regmap.LcCtrlStatusRmaError
	}
	if !allowed(d.lc.state, target) {
		return regmap.LcCtrlStatusTransitionError
	}
	if want, ok := d.otp[target]; ok {
		if len(d.lc.tokens) != len(want) || lcctrl.HashToken(lcctrl.Token(d.lc.tokens)) != want {
			return regmap.LcCtrlStatusTokenError
		}
	}
	if d.opts.InjectOTPError {
		return regmap.LcCtrlStatusOtpError
	}

	d.lc.state = target
	return regmap.LcCtrlStatusTransitionSuccessful
}

// allowed reports whether from may move to to. States only move forward;
// RAW leaves only to a TEST_UNLOCKED state and SCRAP is reachable from
// everywhere else.
func allowed(from, to lcctrl.State) bool {
	switch {
	case from == lcctrl.StateScrap:
		return false
	case to == lcctrl.StateScrap:
		return true
	case to <= from:
		return false
	case from == lcctrl.StateRaw:
		return to <= lcctrl.StateTestUnlocked7 && to%2 == 1
	default:
		return true
	}
}

func resultName(f regport.Field) string {
	switch f {
	case regmap.LcCtrlStatusTransitionSuccessful:
		return lcctrl.OutcomeSuccess.String()
	case regmap.LcCtrlStatusTransitionCountError:
		return lcctrl.OutcomeTransitionCountError.String()
	case regmap.LcCtrlStatusTransitionError:
		return lcctrl.OutcomeTransitionError.String()
	case regmap.LcCtrlStatusTokenError:
		return lcctrl.OutcomeTokenError.String()
	case regmap.LcCtrlStatusRmaError:
		return lcctrl.OutcomeRmaError.String()
	case regmap.LcCtrlStatusOtpError:
		return lcctrl.OutcomeOtpError.String()
	default:
		return lcctrl.OutcomeStateError.String()
	}
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
