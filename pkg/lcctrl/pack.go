package lcctrl

import (
	"errors"
	"fmt"
)

// stateBits is the width of one state slice.
const stateBits = 5

// stateMask selects one state slice.
const stateMask uint32 = 1<<stateBits - 1

// slices is the number of redundant copies in a packed code.
const slices = 6

// ErrInconsistentCode indicates a packed code whose slices disagree.
var ErrInconsistentCode = errors.New("packed lifecycle code slices differ")

// Pack repeats the low 5 bits of v at bit offsets 0, 5, 10, 15, 20 and 25.
// Bits 30 and 31 are zero.
func Pack(v uint32) uint32 {
	v &= stateMask
	var code uint32
	for i := 0; i < slices; i++ {
		code |= v << (i * stateBits)
	}
	return code
}

// Unpack returns the state held in code. It fails with ErrInconsistentCode
// when the six slices are not identical or bits 30..31 are set.
func Unpack(code uint32) (uint32, error) {
	v := code & stateMask
	if Pack(v) != code {
		return 0, fmt.Errorf("%w: 0x%08x", ErrInconsistentCode, code)
	}
	return v, nil
}
