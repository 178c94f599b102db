package devsim

import (
	"slices"

	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/regport"
	"github.com/ssbringup/bringup-go/pkg/stream"
)

// Recovery interface values not defined by the host side.
const (
	deviceStatusHealthy  uint32 = 0x1
	hwStatusNominal      uint32 = 0x0
	statusNotInRecovery  uint32 = 0x0
	statusImageAuthError uint32 = 0xD
)

// recovery is the recovery interface state. Guarded by Device.mu.
type recovery struct {
	deviceStatus uint32
	status       uint32
	expected     uint32
	occupancy    int
	statusReads  int
	image        []uint32

	booting   bool
	remaining int
	result    uint32
}

// Image returns the words received through the recovery FIFO since the
// last FIFO reset.
func (d *Device) Image() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.rec.image)
}

// RecoveryStatus returns the current recovery status value.
func (d *Device) RecoveryStatus() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rec.status
}

// EnterRecovery puts the device into recovery mode, awaiting an image.
func (d *Device) EnterRecovery() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enterRecovery()
}

// enterRecovery is EnterRecovery with d.mu held.
func (d *Device) enterRecovery() {
	d.rec.deviceStatus = stream.RecoveryModeValue
	d.rec.status = stream.StatusAwaitingImage
	d.rec.booting = false
	d.debugLog("recovery mode entered")
}

func (d *Device) installRecovery() {
	d.rec.deviceStatus = deviceStatusHealthy
	d.rec.status = statusNotInRecovery
	if d.opts.RecoveryMode {
		d.enterRecovery()
	}

	d.mem.Poke(regmap.I3cRecProtCap0, stream.ProtCapMagic0)
	d.mem.Poke(regmap.I3cRecProtCap1, stream.ProtCapMagic1)
	d.mem.Poke(regmap.I3cRecDeviceId0, d.opts.DeviceID)
	d.mem.Poke(regmap.I3cRecHwStatus, hwStatusNominal)

	d.mem.OnRead(regmap.I3cRecDeviceStatus0, func(regport.Store, regport.Addr, uint32) uint32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.rec.deviceStatus
	})
	d.mem.OnRead(regmap.I3cRecRecoveryStatus, d.readRecoveryStatus)
	d.mem.OnWrite(regmap.I3cRecIndirectFifoCtrl0, d.writeFifoCtrl0)
	d.mem.OnWrite(regmap.I3cRecIndirectFifoCtrl1, func(_ regport.Store, _ regport.Addr, value uint32) uint32 {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.rec.expected = value
		return value
	})
	d.mem.OnRead(regmap.I3cRecIndirectFifoStatus0, d.readFifoStatus)
	d.mem.OnWrite(regmap.I3cRecTtiTxDataPort, d.writeTxData)
	d.mem.OnWrite(regmap.I3cRecRecIntfRegW1cAccess, d.writeActivate)
}

func (d *Device) writeFifoCtrl0(_ regport.Store, _ regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if value&stream.FifoCtrlReset != 0 {
		d.rec.occupancy = 0
		d.rec.statusReads = 0
		d.rec.image = nil
	}
	return value
}

func (d *Device) readFifoStatus(regport.Store, regport.Addr, uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.opts.DrainInterval > 0 {
		d.rec.statusReads++
		if d.rec.statusReads%d.opts.DrainInterval == 0 && d.rec.occupancy > 0 {
			d.rec.occupancy--
		}
	}
	var v uint32
	v = regmap.I3cRecIndirectFifoStatus0Empty.Set(v, boolBit(d.rec.occupancy == 0))
	v = regmap.I3cRecIndirectFifoStatus0Full.Set(v, boolBit(d.rec.occupancy >= d.opts.FifoDepth))
	return v
}

func (d *Device) writeTxData(s regport.Store, addr regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case !regmap.I3cRecRecIntfCfgRecIntfBypass.IsSet(s.Peek(regmap.I3cRecRecIntfCfg)):
		d.violation("fifo write without bypass", addr)
	case d.rec.occupancy >= d.opts.FifoDepth:
		d.violation("fifo overflow", addr)
	default:
		d.rec.occupancy++
		d.rec.image = append(d.rec.image, value)
	}
	return value
}

// writeActivate handles the W1C access register; it always reads back 0.
func (d *Device) writeActivate(_ regport.Store, _ regport.Addr, value uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if value&stream.ActivateImage != stream.ActivateImage || d.rec.status != stream.StatusAwaitingImage {
		return 0
	}
	d.rec.booting = true
	d.rec.remaining = d.opts.RecoveryPolls
	d.rec.status = stream.StatusBooting
	d.rec.result = stream.StatusSuccess

	complete := d.rec.expected > 0 && len(d.rec.image) == int(d.rec.expected)
	if !complete || (d.opts.ImageCheck != nil && !d.opts.ImageCheck(d.rec.image)) {
		d.rec.result = statusImageAuthError
	}
	d.debugLog("recovery image activated", "words", len(d.rec.image), "expected", d.rec.expected)
	return 0
}

func (d *Device) readRecoveryStatus(regport.Store, regport.Addr, uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rec.booting {
		d.rec.remaining--
		if d.rec.remaining <= 0 {
			d.rec.booting = false
			d.rec.status = d.rec.result
			if d.rec.result == stream.StatusSuccess {
				d.rec.deviceStatus = deviceStatusHealthy
			}
			d.debugLog("recovery boot finished", "status", d.rec.status)
		}
	}
	return d.rec.status
}
