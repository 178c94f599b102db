package devsim

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssbringup/bringup-go/pkg/bootcfg"
	"github.com/ssbringup/bringup-go/pkg/lcctrl"
	"github.com/ssbringup/bringup-go/pkg/mailbox"
	"github.com/ssbringup/bringup-go/pkg/persistence"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/regmutex"
	"github.com/ssbringup/bringup-go/pkg/stream"
)

var (
	realToken = lcctrl.Token{0xf12a5911, 0x421748a2, 0xadfc9693, 0xef1fadea}
	budget    = poll.Budget{MaxAttempts: 100}
)

func newDevice(t *testing.T, opts Options) *Device {
	t.Helper()
	d, err := New(opts)
	require.NoError(t, err)
	return d
}

func newEngine(t *testing.T, d *Device) *lcctrl.Engine {
	t.Helper()
	regs, err := bootcfg.Default().LifecycleRegisters()
	require.NoError(t, err)
	return lcctrl.NewEngine(lcctrl.Config{
		Port:       d.Port(),
		Registers:  regs,
		LockBudget: budget,
		PollBudget: budget,
	})
}

func TestTransitionSequence(t *testing.T) {
	d := newDevice(t, Options{Tokens: map[lcctrl.State]lcctrl.Token{lcctrl.StateTestUnlocked0: realToken}})
	e := newEngine(t, d)
	ctx := context.Background()

	out, err := e.Transition(ctx, lcctrl.WithToken(lcctrl.StateTestUnlocked0, realToken))
	require.NoError(t, err)
	assert.Equal(t, lcctrl.OutcomeSuccess, out)
	assert.Equal(t, lcctrl.StateTestUnlocked0, d.State())

	out, err = e.Transition(ctx, lcctrl.Tokenless(lcctrl.StateScrap))
	require.NoError(t, err)
	assert.Equal(t, lcctrl.OutcomeSuccess, out)

	assert.Equal(t, lcctrl.StateScrap, d.State())
	assert.Equal(t, lcctrl.Pack(uint32(lcctrl.StateScrap)), d.Port().ReadRegister(regmap.LcCtrlLcState))
	assert.Equal(t, 2, d.TransitionCount())
	assert.Zero(t, d.Violations())
	assert.Equal(t, uint32(0), d.Port().Peek(regmap.LcCtrlClaimTransitionIf), "claim released")
}

func TestTransitionErrors(t *testing.T) {
	wrong := lcctrl.Token{1, 2, 3, 4}
	tokens := map[lcctrl.State]lcctrl.Token{lcctrl.StateTestUnlocked0: realToken}

	tests := []struct {
		name string
		opts Options
		req  lcctrl.TransitionRequest
		want lcctrl.Outcome
		err  error
	}{
		{"wrong token", Options{Tokens: tokens}, lcctrl.WithToken(lcctrl.StateTestUnlocked0, wrong), lcctrl.OutcomeTokenError, lcctrl.ErrToken},
		{"missing token", Options{Tokens: tokens}, lcctrl.Tokenless(lcctrl.StateTestUnlocked0), lcctrl.OutcomeTokenError, lcctrl.ErrToken},
		{"backwards", Options{InitialState: lcctrl.StateDev}, lcctrl.Tokenless(lcctrl.StateTestUnlocked0), lcctrl.OutcomeTransitionError, lcctrl.ErrTransition},
		{"raw to locked", Options{}, lcctrl.Tokenless(lcctrl.StateTestLocked0), lcctrl.OutcomeTransitionError, lcctrl.ErrTransition},
		{"rma from test", Options{InitialState: lcctrl.StateTestUnlocked0}, lcctrl.Tokenless(lcctrl.StateRMA), lcctrl.OutcomeRmaError, lcctrl.ErrRMA},
		{"otp", Options{InjectOTPError: true}, lcctrl.Tokenless(lcctrl.StateTestUnlocked0), lcctrl.OutcomeOtpError, lcctrl.ErrOTP},
		{"unnamed state", Options{}, lcctrl.Tokenless(0x1E), lcctrl.OutcomeStateError, lcctrl.ErrState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDevice(t, tt.opts)
			out, err := newEngine(t, d).Transition(context.Background(), tt.req)
			assert.Equal(t, tt.want, out)
			assert.True(t, errors.Is(err, tt.err), "error = %v, want %v", err, tt.err)
			assert.Equal(t, tt.opts.InitialState, d.State(), "state must not change")
			assert.Zero(t, d.Violations())
		})
	}
}

func TestTransitionCountExhausted(t *testing.T) {
	d := newDevice(t, Options{MaxTransitions: 1})
	e := newEngine(t, d)

	_, err := e.Transition(context.Background(), lcctrl.Tokenless(lcctrl.StateTestUnlocked0))
	require.NoError(t, err)

	out, err := e.Transition(context.Background(), lcctrl.Tokenless(lcctrl.StateTestUnlocked1))
	assert.Equal(t, lcctrl.OutcomeTransitionCountError, out)
	assert.True(t, errors.Is(err, lcctrl.ErrTransitionCount))
	assert.Equal(t, 1, d.TransitionCount())
}

func TestExternalClaimTimesOut(t *testing.T) {
	d := newDevice(t, Options{})
	d.SetExternalClaim(true)
	d.Port().Record(true)

	_, err := newEngine(t, d).Transition(context.Background(), lcctrl.Tokenless(lcctrl.StateTestUnlocked0))
	require.True(t, errors.Is(err, regmutex.ErrLockTimeout), "error = %v", err)
	assert.Empty(t, d.Port().WritesTo(regmap.LcCtrlTransitionTarget))
	assert.Zero(t, d.Violations())

	d.SetExternalClaim(false)
	_, err = newEngine(t, d).Transition(context.Background(), lcctrl.Tokenless(lcctrl.StateTestUnlocked0))
	assert.NoError(t, err)
}

func TestUnclaimedWriteIsViolation(t *testing.T) {
	d := newDevice(t, Options{})
	d.Port().WriteRegister(regmap.LcCtrlTransitionCmd, 1)
	d.Port().WriteRegister(regmap.LcCtrlTransitionTarget, lcctrl.Pack(1))
	assert.Equal(t, 2, d.Violations())
	assert.Equal(t, lcctrl.StateRaw, d.State())
}

func TestWaitReadyFuseHandshake(t *testing.T) {
	d := newDevice(t, Options{GateOnFuseWrite: true, BootPolls: 3})
	require.NoError(t, newEngine(t, d).WaitReady(context.Background(), budget))

	status := d.Port().ReadRegister(regmap.LcCtrlStatus)
	assert.True(t, regmap.LcCtrlStatusReady.IsSet(status))
	assert.True(t, regmap.LcCtrlStatusInitialized.IsSet(status))
	assert.False(t, regmap.SocIfcCptraFlowStatusReadyForFuses.IsSet(d.Port().ReadRegister(regmap.SocIfcCptraFlowStatus)))
}

func TestWaitReadyWithoutFuseWriteTimesOut(t *testing.T) {
	d := newDevice(t, Options{GateOnFuseWrite: true})
	p := bootcfg.Default()
	p.Boot.EnableFuseWrite = false
	regs, err := p.LifecycleRegisters()
	require.NoError(t, err)

	e := lcctrl.NewEngine(lcctrl.Config{Port: d.Port(), Registers: regs})
	err = e.WaitReady(context.Background(), poll.Budget{MaxAttempts: 5})
	assert.True(t, errors.Is(err, poll.ErrTimeout), "error = %v", err)
}

func newRecovery(t *testing.T, d *Device) *stream.Recovery {
	t.Helper()
	p := bootcfg.Default()
	regs, err := p.RecoveryRegisters()
	require.NoError(t, err)
	return stream.NewRecovery(stream.RecoveryConfig{Port: d.Port(), Registers: regs, FifoFull: p.FifoFull()})
}

func testImage(n int) []uint32 {
	img := make([]uint32, n)
	for i := range img {
		img[i] = 0xA5000000 | uint32(i)
	}
	return img
}

func TestRecoveryBoot(t *testing.T) {
	d := newDevice(t, Options{RecoveryMode: true, FifoDepth: 4, DrainInterval: 2, DeviceID: 0x1234})
	r := newRecovery(t, d)
	img := testImage(40)

	info, err := r.Boot(context.Background(), img, budget, budget)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), info.DeviceID)
	require.NoError(t, r.AwaitRecoveryStatus(context.Background(), budget))

	assert.Equal(t, img, d.Image())
	assert.Equal(t, stream.StatusSuccess, d.RecoveryStatus())
	assert.Zero(t, d.Violations())
}

func TestRecoveryRejectsImage(t *testing.T) {
	d := newDevice(t, Options{RecoveryMode: true, ImageCheck: func([]uint32) bool { return false }})
	r := newRecovery(t, d)

	_, err := r.Boot(context.Background(), testImage(8), budget, budget)
	require.NoError(t, err)
	err = r.AwaitRecoveryStatus(context.Background(), budget)
	assert.True(t, errors.Is(err, stream.ErrUnexpectedRecoveryStatus), "error = %v", err)
}

func TestRecoveryRequiresRecoveryMode(t *testing.T) {
	d := newDevice(t, Options{})
	_, err := newRecovery(t, d).Boot(context.Background(), testImage(4), poll.Budget{MaxAttempts: 3}, budget)
	assert.True(t, errors.Is(err, stream.ErrNotInRecoveryMode), "error = %v", err)
}

func TestFifoBackpressure(t *testing.T) {
	d := newDevice(t, Options{FifoDepth: 2, DrainInterval: -1})
	p := bootcfg.Default()
	regs, err := p.RecoveryRegisters()
	require.NoError(t, err)
	d.Port().WriteRegister(regs.IntfCfg, regmap.I3cRecRecIntfCfgRecIntfBypass.Set(0, 1))

	ch := stream.NewChannel(stream.Config{Port: d.Port(), Status: regs.FifoStatus, Data: regs.TxData, Full: p.FifoFull()})
	err = ch.Send(context.Background(), stream.NewJob(testImage(5)), poll.Budget{MaxAttempts: 10})

	var te *stream.TransferError
	require.True(t, errors.As(err, &te), "error = %v", err)
	assert.Equal(t, 2, te.Sent)
	assert.True(t, errors.Is(err, stream.ErrBackpressureTimeout))
	assert.Len(t, d.Image(), 2)
	assert.Zero(t, d.Violations())
}

func newMailbox(t *testing.T, d *Device) *mailbox.Channel {
	t.Helper()
	regs, err := bootcfg.Default().MailboxRegisters()
	require.NoError(t, err)
	return mailbox.NewChannel(mailbox.Config{
		Port:         d.Port(),
		Registers:    regs,
		LockBudget:   budget,
		StatusBudget: budget,
	})
}

func TestMailboxFirmwareLoad(t *testing.T) {
	d := newDevice(t, Options{})
	res, err := newMailbox(t, d).Execute(context.Background(), mailbox.Transaction{
		Command:          mailbox.CmdFirmwareLoad,
		ResponseRequired: true,
	})
	require.NoError(t, err)
	assert.Equal(t, mailbox.StatusDataReady, res.Status)
	assert.Equal(t, []uint32{0}, res.Response)

	assert.Equal(t, stream.StatusAwaitingImage, d.RecoveryStatus())
	assert.False(t, d.MailboxLocked())
	assert.Equal(t, 1, d.MailboxCommands())
	assert.Zero(t, d.Violations())
}

func TestMailboxFirmwareLoadWithoutResponseFlag(t *testing.T) {
	var got MailboxRequest
	d := newDevice(t, Options{})
	d.opts.Mailbox = func(req MailboxRequest) MailboxReply {
		got = req
		return d.builtinMailbox(req)
	}

	res, err := newMailbox(t, d).Execute(context.Background(), mailbox.Transaction{Command: mailbox.CmdFirmwareLoad})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, uint32(mailbox.CmdFirmwareLoad), got.Command)
	assert.True(t, got.ResponseRequired, "FWLD carries bit 30 in its code")
	assert.Equal(t, stream.StatusAwaitingImage, d.RecoveryStatus())
	assert.Zero(t, d.Violations())
}

func TestMailboxHandlerSeesResponseFlag(t *testing.T) {
	var got MailboxRequest
	d := newDevice(t, Options{Mailbox: func(req MailboxRequest) MailboxReply {
		got = req
		return MailboxReply{Status: mailbox.StatusCmdComplete}
	}})

	_, err := newMailbox(t, d).Execute(context.Background(), mailbox.Transaction{Command: 0x1000, ResponseRequired: true})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x40001000), got.Command)
	assert.True(t, got.ResponseRequired)
}

func TestMailboxUnknownCommand(t *testing.T) {
	d := newDevice(t, Options{})
	_, err := newMailbox(t, d).Execute(context.Background(), mailbox.Transaction{Command: 0xDEAD})
	assert.True(t, errors.Is(err, mailbox.ErrCommandFailed), "error = %v", err)
	assert.False(t, d.MailboxLocked())
}

func TestMailboxCustomHandler(t *testing.T) {
	var got MailboxRequest
	d := newDevice(t, Options{Mailbox: func(req MailboxRequest) MailboxReply {
		got = req
		return MailboxReply{Status: mailbox.StatusCmdComplete}
	}})

	res, err := newMailbox(t, d).Execute(context.Background(), mailbox.Transaction{
		Command:    0x1000,
		DataLength: 8,
		Data:       []uint32{7, 9},
	})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, MailboxRequest{Command: 0x1000, DataLength: 8, Data: []uint32{7, 9}}, got)
}

func TestMailboxLockIsExclusive(t *testing.T) {
	d := newDevice(t, Options{})
	assert.Equal(t, uint32(0), d.Port().ReadRegister(regmap.MboxLock), "first read acquires")
	assert.Equal(t, uint32(1), d.Port().ReadRegister(regmap.MboxLock))

	_, err := newMailbox(t, d).Execute(context.Background(), mailbox.Transaction{Command: mailbox.CmdFirmwareLoad})
	assert.True(t, errors.Is(err, mailbox.ErrLockTimeout), "error = %v", err)
}

func TestStatePersists(t *testing.T) {
	store := persistence.NewDeviceStateStore(filepath.Join(t.TempDir(), "device.yaml"))

	d := newDevice(t, Options{Store: store})
	_, err := newEngine(t, d).Transition(context.Background(), lcctrl.Tokenless(lcctrl.StateTestUnlocked0))
	require.NoError(t, err)

	restarted := newDevice(t, Options{Store: store})
	assert.Equal(t, lcctrl.StateTestUnlocked0, restarted.State())
	assert.Equal(t, 1, restarted.TransitionCount())

	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved.History, 1)
	assert.Equal(t, "SUCCESS", saved.History[0].Result)
	assert.Equal(t, "TEST_UNLOCKED0", saved.StateName)
}

func TestStagedImage(t *testing.T) {
	img := testImage(6)
	d := newDevice(t, Options{StagedImage: img})

	got, err := stream.ReadStagedImage(d.Port(), StagedImageBase, 16)
	require.NoError(t, err)
	assert.Equal(t, img, got)
	assert.True(t, d.Mapped(StagedImageBase+4*6))
	assert.False(t, d.Mapped(StagedImageBase+4*7))
	assert.True(t, d.Mapped(regmap.MboxStatus))
}
