package log

import "time"

// Event represents a protocol event captured by any component.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the bring-up session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Component that captured the event.
	Component Component `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Target names the device or bridge endpoint (optional).
	Target string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Access      *AccessEvent      `cbor:"10,keyasint,omitempty"` // Register access
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Protocol state
	Outcome     *OutcomeEvent     `cbor:"12,keyasint,omitempty"` // Terminal result
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors
	Frame       *FrameEvent       `cbor:"14,keyasint,omitempty"` // Bridge frame
}

// Component identifies the part of the protocol core that captured an event.
type Component uint8

const (
	// ComponentPort is the register port (raw accesses).
	ComponentPort Component = 0
	// ComponentMutex is the claim-register mutex.
	ComponentMutex Component = 1
	// ComponentLifecycle is the lifecycle transition engine.
	ComponentLifecycle Component = 2
	// ComponentStream is the FIFO streaming channel.
	ComponentStream Component = 3
	// ComponentMailbox is the command mailbox.
	ComponentMailbox Component = 4
	// ComponentRecovery is the recovery-interface image loader.
	ComponentRecovery Component = 5
	// ComponentBridge is the register bridge transport.
	ComponentBridge Component = 6
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentPort:
		return "PORT"
	case ComponentMutex:
		return "MUTEX"
	case ComponentLifecycle:
		return "LIFECYCLE"
	case ComponentStream:
		return "STREAM"
	case ComponentMailbox:
		return "MAILBOX"
	case ComponentRecovery:
		return "RECOVERY"
	case ComponentBridge:
		return "BRIDGE"
	default:
		return "UNKNOWN"
	}
}

// ParseComponent returns the component with the given (case-sensitive) name.
func ParseComponent(s string) (Component, bool) {
	for c := ComponentPort; c <= ComponentBridge; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryAccess indicates a register read or write.
	CategoryAccess Category = 0
	// CategoryState indicates a protocol state change.
	CategoryState Category = 1
	// CategoryOutcome indicates the terminal result of an operation.
	CategoryOutcome Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
	// CategoryFrame indicates a bridge frame sent or received.
	CategoryFrame Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAccess:
		return "ACCESS"
	case CategoryState:
		return "STATE"
	case CategoryOutcome:
		return "OUTCOME"
	case CategoryError:
		return "ERROR"
	case CategoryFrame:
		return "FRAME"
	default:
		return "UNKNOWN"
	}
}

// AccessOp is the direction of a register access.
type AccessOp uint8

const (
	// AccessRead is a register read.
	AccessRead AccessOp = 1
	// AccessWrite is a register write.
	AccessWrite AccessOp = 2
)

// String returns the operation name.
func (o AccessOp) String() string {
	switch o {
	case AccessRead:
		return "READ"
	case AccessWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// AccessEvent captures a single register access.
type AccessEvent struct {
	// Op is the access direction.
	Op AccessOp `cbor:"1,keyasint"`

	// Addr is the register address.
	Addr uint32 `cbor:"2,keyasint"`

	// Value is the value read or written.
	Value uint32 `cbor:"3,keyasint"`
}

// StateChangeEvent captures a protocol state machine transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// OutcomeEvent captures the terminal result of a protocol operation.
type OutcomeEvent struct {
	// Operation names the operation (e.g. "transition", "execute").
	Operation string `cbor:"1,keyasint"`

	// Result is the outcome name (e.g. "SUCCESS", "TOKEN_ERROR").
	Result string `cbor:"2,keyasint"`

	// Attempts is the number of polls the operation needed.
	Attempts int `cbor:"3,keyasint,omitempty"`

	// Elapsed is the wall-clock duration of the operation.
	Elapsed time.Duration `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures error information.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}

// FrameDirection tells whether a frame was sent or received.
type FrameDirection uint8

const (
	// FrameIn is a frame read from the peer.
	FrameIn FrameDirection = 1
	// FrameOut is a frame written to the peer.
	FrameOut FrameDirection = 2
)

// String returns the direction name.
func (d FrameDirection) String() string {
	switch d {
	case FrameIn:
		return "IN"
	case FrameOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one length-prefixed bridge frame.
type FrameEvent struct {
	// Direction of the frame.
	Direction FrameDirection `cbor:"1,keyasint"`

	// Size is the frame size on the wire, length prefix included.
	Size int `cbor:"2,keyasint"`

	// Data is the start of the payload.
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated is set when Data holds only part of the payload.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}
