package lcctrl

import (
	"fmt"
	"strings"
)

// State is a 5-bit lifecycle state.
type State uint8

// Lifecycle states.
const (
	StateRaw State = iota
	StateTestUnlocked0
	StateTestLocked0
	StateTestUnlocked1
	StateTestLocked1
	StateTestUnlocked2
	StateTestLocked2
	StateTestUnlocked3
	StateTestLocked3
	StateTestUnlocked4
	StateTestLocked4
	StateTestUnlocked5
	StateTestLocked5
	StateTestUnlocked6
	StateTestLocked6
	StateTestUnlocked7
	StateDev
	StateProd
	StateProdEnd
	StateRMA
	StateScrap
)

// MaxState is the largest value a 5-bit state field can carry.
const MaxState State = 0x1F

var stateNames = [...]string{
	"RAW",
	"TEST_UNLOCKED0", "TEST_LOCKED0",
	"TEST_UNLOCKED1", "TEST_LOCKED1",
	"TEST_UNLOCKED2", "TEST_LOCKED2",
	"TEST_UNLOCKED3", "TEST_LOCKED3",
	"TEST_UNLOCKED4", "TEST_LOCKED4",
	"TEST_UNLOCKED5", "TEST_LOCKED5",
	"TEST_UNLOCKED6", "TEST_LOCKED6",
	"TEST_UNLOCKED7",
	"DEV", "PROD", "PROD_END", "RMA", "SCRAP",
}

// String returns the state name, or the raw value for unnamed states.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("STATE_0x%02x", uint8(s))
}

// ParseState accepts a state name (case-insensitive) or a number in Go
// syntax (e.g. "20", "0x14").
func ParseState(s string) (State, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range stateNames {
		if name == upper {
			return State(i), nil
		}
	}
	var v uint32
	if _, err := fmt.Sscan(s, &v); err != nil {
		return 0, fmt.Errorf("unknown lifecycle state %q", s)
	}
	if v > uint32(MaxState) {
		return 0, fmt.Errorf("lifecycle state %d exceeds 0x1f", v)
	}
	return State(v), nil
}
