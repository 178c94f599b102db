package lcctrl

import "errors"

// Hardware failure errors, one per status error bit.
var (
	ErrTransitionCount = errors.New("lifecycle transition count error")
	ErrTransition      = errors.New("lifecycle transition error")
	ErrToken           = errors.New("lifecycle token error")
	ErrRMA             = errors.New("lifecycle RMA error")
	ErrOTP             = errors.New("lifecycle OTP error")
	ErrState           = errors.New("lifecycle state error")

	// ErrPollTimeout indicates no result bit was set within the poll budget.
	ErrPollTimeout = errors.New("lifecycle status poll timeout")

	// ErrNotAttempted is OutcomeNone.Err: the transition was never triggered.
	ErrNotAttempted = errors.New("lifecycle transition not attempted")
)

// Outcome is the terminal result of a transition. The zero value,
// OutcomeNone, is returned when the transition never ran (invalid request or
// claim not acquired).
type Outcome uint8

// Transition outcomes.
const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeTransitionCountError
	OutcomeTransitionError
	OutcomeTokenError
	OutcomeRmaError
	OutcomeOtpError
	OutcomeStateError
	OutcomeTimeout
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "NONE"
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeTransitionCountError:
		return "TRANSITION_COUNT_ERROR"
	case OutcomeTransitionError:
		return "TRANSITION_ERROR"
	case OutcomeTokenError:
		return "TOKEN_ERROR"
	case OutcomeRmaError:
		return "RMA_ERROR"
	case OutcomeOtpError:
		return "OTP_ERROR"
	case OutcomeStateError:
		return "STATE_ERROR"
	case OutcomeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Err returns the sentinel error for the outcome, or nil on success.
func (o Outcome) Err() error {
	switch o {
	case OutcomeNone:
		return ErrNotAttempted
	case OutcomeSuccess:
		return nil
	case OutcomeTransitionCountError:
		return ErrTransitionCount
	case OutcomeTransitionError:
		return ErrTransition
	case OutcomeTokenError:
		return ErrToken
	case OutcomeRmaError:
		return ErrRMA
	case OutcomeOtpError:
		return ErrOTP
	case OutcomeStateError:
		return ErrState
	case OutcomeTimeout:
		return ErrPollTimeout
	default:
		return errors.New("unknown lifecycle outcome")
	}
}

// StatusBits are the status register bit positions of the result flags.
type StatusBits struct {
	Ok, TransitionCount, Transition, Token, RMA, OTP, State uint8
	Ready, Initialized                                      uint8
}

// DefaultStatusBits is the status layout of the lifecycle controller.
var DefaultStatusBits = StatusBits{
	Ready:           0,
	Initialized:     1,
	Ok:              3,
	TransitionCount: 4,
	Transition:      5,
	Token:           6,
	RMA:             7,
	OTP:             8,
	State:           9,
}

// Decode maps a status value to an outcome. It reports false while no result
// bit is set. When several bits are set the ok bit wins, then the error bits
// in ascending bit order.
func (b StatusBits) Decode(status uint32) (Outcome, bool) {
	order := []struct {
		bit     uint8
		outcome Outcome
	}{
		{b.Ok, OutcomeSuccess},
		{b.TransitionCount, OutcomeTransitionCountError},
		{b.Transition, OutcomeTransitionError},
		{b.Token, OutcomeTokenError},
		{b.RMA, OutcomeRmaError},
		{b.OTP, OutcomeOtpError},
		{b.State, OutcomeStateError},
	}
	for _, o := range order {
		if status&(1<<o.bit) != 0 {
			return o.outcome, true
		}
	}
	return OutcomeNone, false
}

// DecodeStatus decodes status with DefaultStatusBits.
func DecodeStatus(status uint32) (Outcome, bool) {
	return DefaultStatusBits.Decode(status)
}
