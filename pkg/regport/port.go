package regport

import (
	"errors"
	"fmt"
)

// Addr is an opaque register address handle.
type Addr uint32

// String formats the address as 0x%08x.
func (a Addr) String() string {
	return fmt.Sprintf("0x%08x", uint32(a))
}

// Port is the register access capability injected into protocol components.
// Both operations are synchronous and cannot fail at this layer.
type Port interface {
	// ReadRegister returns the current 32-bit value at addr.
	ReadRegister(addr Addr) uint32

	// WriteRegister stores value at addr.
	WriteRegister(addr Addr, value uint32)
}

// Faulter is implemented by ports whose underlying bus can fail.
// Err returns the first bus error observed, or nil.
type Faulter interface {
	Err() error
}

// ErrBus indicates the port's underlying bus reported an error.
var ErrBus = errors.New("register bus error")

// Err returns the latched bus error of p wrapped in ErrBus, or nil when p
// does not implement Faulter or has not failed.
func Err(p Port) error {
	f, ok := p.(Faulter)
	if !ok {
		return nil
	}
	if err := f.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrBus, err)
	}
	return nil
}

// Op identifies a register access direction.
type Op uint8

const (
	// OpRead is a register read.
	OpRead Op = 1
	// OpWrite is a register write.
	OpWrite Op = 2
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Access is a single recorded register access.
type Access struct {
	Op    Op
	Addr  Addr
	Value uint32
}
