package wire

// Operation is a bridge operation.
type Operation uint8

const (
	// OpRead reads one register.
	OpRead Operation = 1

	// OpWrite writes one register.
	OpWrite Operation = 2

	// OpInfo asks the bridge to identify the device it serves.
	OpInfo Operation = 3
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	case OpInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is a valid bridge operation.
func (o Operation) IsValid() bool {
	return o >= OpRead && o <= OpInfo
}
