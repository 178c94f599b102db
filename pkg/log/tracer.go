package log

import "time"

// Tracer stamps events from one component of one session.
// The zero value discards everything.
type Tracer struct {
	Logger    Logger
	SessionID string
	Component Component
}

// NewTracer returns a Tracer for component. A nil logger discards events.
func NewTracer(logger Logger, sessionID string, component Component) Tracer {
	return Tracer{Logger: OrNoop(logger), SessionID: sessionID, Component: component}
}

func (t Tracer) emit(e Event) {
	if t.Logger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.SessionID = t.SessionID
	e.Component = t.Component
	t.Logger.Log(e)
}

// Access records a register access.
func (t Tracer) Access(op AccessOp, addr, value uint32) {
	t.emit(Event{
		Category: CategoryAccess,
		Access:   &AccessEvent{Op: op, Addr: addr, Value: value},
	})
}

// State records a state machine transition.
func (t Tracer) State(oldState, newState, reason string) {
	t.emit(Event{
		Category:    CategoryState,
		StateChange: &StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason},
	})
}

// Outcome records the terminal result of an operation.
func (t Tracer) Outcome(operation, result string, attempts int, elapsed time.Duration) {
	t.emit(Event{
		Category: CategoryOutcome,
		Outcome: &OutcomeEvent{
			Operation: operation,
			Result:    result,
			Attempts:  attempts,
			Elapsed:   elapsed,
		},
	})
}

// Error records an error.
func (t Tracer) Error(err error, context string) {
	if err == nil {
		return
	}
	t.emit(Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Message: err.Error(), Context: context},
	})
}

// Frame records a bridge frame exchanged with target. At most maxData
// payload bytes are kept.
func (t Tracer) Frame(target string, dir FrameDirection, size int, payload []byte, maxData int) {
	if t.Logger == nil {
		return
	}
	data, truncated := payload, false
	if len(data) > maxData {
		data, truncated = data[:maxData], true
	}
	t.emit(Event{
		Category: CategoryFrame,
		Target:   target,
		Frame: &FrameEvent{
			Direction: dir,
			Size:      size,
			Data:      append([]byte(nil), data...),
			Truncated: truncated,
		},
	})
}
