package regport

// Field is a bitfield within a 32-bit register.
type Field struct {
	Offset uint8
	Width  uint8
}

// Bit returns a single-bit field at offset.
func Bit(offset uint8) Field {
	return Field{Offset: offset, Width: 1}
}

// Mask returns the in-place mask of the field.
func (f Field) Mask() uint32 {
	if f.Width >= 32 {
		return ^uint32(0) << f.Offset
	}
	return ((uint32(1) << f.Width) - 1) << f.Offset
}

// Get extracts the field from reg.
func (f Field) Get(reg uint32) uint32 {
	return (reg & f.Mask()) >> f.Offset
}

// Set returns reg with the field replaced by v. Bits of v beyond the field
// width are discarded.
func (f Field) Set(reg, v uint32) uint32 {
	return (reg &^ f.Mask()) | ((v << f.Offset) & f.Mask())
}

// IsSet reports whether any bit of the field is set in reg.
func (f Field) IsSet(reg uint32) bool {
	return reg&f.Mask() != 0
}

// Register is a named register address with its named bitfields.
type Register struct {
	Name   string
	Addr   Addr
	Fields map[string]Field
}

// Field returns the named bitfield.
func (r Register) Field(name string) (Field, bool) {
	f, ok := r.Fields[name]
	return f, ok
}
