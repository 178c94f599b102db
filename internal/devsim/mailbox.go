package devsim

import (
	"github.com/ssbringup/bringup-go/pkg/mailbox"
	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/regport"
)

// MailboxRequest is a command posted to the simulated mailbox.
type MailboxRequest struct {
	// Command is the command register as written, response-required flag
	// included.
	Command uint32
	// ResponseRequired reports bit 30 of Command. Commands whose code has
	// bit 30 set, like FWLD, always carry it.
	ResponseRequired bool
	DataLength       uint32
	Data             []uint32
}

// MailboxReply is the device's answer. Data is only returned to the host
// when Status is mailbox.StatusDataReady.
type MailboxReply struct {
	Status mailbox.Status
	Data   []uint32
}

// MailboxHandler serves a mailbox command.
type MailboxHandler func(req MailboxRequest) MailboxReply

// mailboxState is the mailbox state. Guarded by Device.mu.
type mailboxState struct {
	locked    bool
	executing bool
	remaining int
	cmd       uint32
	dlen      uint32
	in        []uint32
	out       []uint32
	status    mailbox.Status
	commands  int
}

// MailboxLocked reports whether the mailbox lock is held.
func (d *Device) MailboxLocked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mbox.locked
}

// MailboxCommands returns the number of commands executed.
func (d *Device) MailboxCommands() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mbox.commands
}

func (d *Device) installMailbox() {
	d.mem.OnRead(regmap.MboxLock, d.readLock)
	d.mem.OnWrite(regmap.MboxLock, func(_ regport.Store, _ regport.Addr, value uint32) uint32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		if !mailbox.LockBit.IsSet(value) {
			d.releaseMailbox()
		}
		return boolBit(d.mbox.locked)
	})
	d.mem.OnWrite(regmap.MboxCmd, d.writeMailboxReg)
	d.mem.OnWrite(regmap.MboxDlen, d.writeMailboxReg)
	d.mem.OnWrite(regmap.MboxDatain, d.writeMailboxReg)
	d.mem.OnWrite(regmap.MboxExecute, d.writeExecute)
	d.mem.OnRead(regmap.MboxStatus, d.readMailboxStatus)
	d.mem.OnRead(regmap.MboxDlen, func(regport.Store, regport.Addr, uint32) uint32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.mbox.dlen
	})
	d.mem.OnRead(regmap.MboxDataout, d.readDataOut)
}

// readLock acquires the lock on read: a read returning 0 grants it.
func (d *Device) readLock(regport.Store, regport.Addr, uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mbox.locked {
		return 1
	}
	d.mbox.locked = true
	return 0
}

func (d *Device) writeMailboxReg(_ regport.Store, addr regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.mbox.locked || d.mbox.executing {
		d.violation("mailbox write outside a transaction", addr)
		return value
	}
	switch addr {
	case regmap.MboxCmd:
		d.mbox.cmd = value
	case regmap.MboxDlen:
		d.mbox.dlen = value
	case regmap.MboxDatain:
		d.mbox.in = append(d.mbox.in, value)
	}
	return value
}

func (d *Device) writeExecute(_ regport.Store, addr regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !mailbox.ExecuteBit.IsSet(value) {
		// Clearing execute ends the transaction and frees the mailbox.
		d.releaseMailbox()
		return 0
	}
	if !d.mbox.locked || d.mbox.executing {
		d.violation("mailbox execute without lock", addr)
		return value
	}
	d.mbox.executing = true
	d.mbox.remaining = d.opts.MailboxPolls
	d.mbox.status = mailbox.StatusCmdBusy
	return value
}

func (d *Device) readMailboxStatus(regport.Store, regport.Addr, uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mbox.executing && d.mbox.status == mailbox.StatusCmdBusy {
		d.mbox.remaining--
		if d.mbox.remaining <= 0 {
			d.serveMailbox()
		}
	}
	return mailbox.StatusField.Set(0, uint32(d.mbox.status))
}

// serveMailbox runs the handler on the posted command. Callers hold d.mu.
func (d *Device) serveMailbox() {
	req := MailboxRequest{
		Command:          d.mbox.cmd,
		ResponseRequired: mailbox.RespRequired.IsSet(d.mbox.cmd),
		DataLength:       d.mbox.dlen,
		Data:             d.mbox.in,
	}
	handler := d.opts.Mailbox
	if handler == nil {
		handler = d.builtinMailbox
	}
	reply := handler(req)
	if reply.Status == mailbox.StatusCmdBusy {
		reply.Status = mailbox.StatusCmdFailure
	}

	d.mbox.status = reply.Status
	d.mbox.commands++
	if reply.Status == mailbox.StatusDataReady {
		d.mbox.out = reply.Data
		d.mbox.dlen = uint32(4 * len(reply.Data))
	}
	d.debugLog("mailbox command served", "cmd", req.Command, "status", reply.Status)
}

// builtinMailbox understands the firmware-load command, which puts the
// device into recovery mode. Callers hold d.mu.
func (d *Device) builtinMailbox(req MailboxRequest) MailboxReply {
	if mailbox.RespRequired.Set(req.Command, 1) != mailbox.CmdFirmwareLoad {
		return MailboxReply{Status: mailbox.StatusCmdFailure}
	}
	d.enterRecovery()
	if req.ResponseRequired {
		return MailboxReply{Status: mailbox.StatusDataReady, Data: []uint32{0}}
	}
	return MailboxReply{Status: mailbox.StatusCmdComplete}
}

func (d *Device) readDataOut(regport.Store, regport.Addr, uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.mbox.out) == 0 {
		return 0
	}
	w := d.mbox.out[0]
	d.mbox.out = d.mbox.out[1:]
	return w
}

// releaseMailbox frees the lock and drops the transaction. Callers hold d.mu.
func (d *Device) releaseMailbox() {
	d.mbox = mailboxState{commands: d.mbox.commands}
}
