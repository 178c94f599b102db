package log

import (
	"sync"
	"testing"
)

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &captureLogger{}, &captureLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(accessEvent("s", AccessRead, 1, 2))
	m.Log(accessEvent("s", AccessWrite, 3, 4))

	if got := len(a.Events()); got != 2 {
		t.Errorf("logger a got %d events, want 2", got)
	}
	if got := len(b.Events()); got != 2 {
		t.Errorf("logger b got %d events, want 2", got)
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	m := NewMultiLogger()
	m.Log(accessEvent("s", AccessRead, 0, 0))
}

func TestTracerStampsEvents(t *testing.T) {
	c := &captureLogger{}
	tr := NewTracer(c, "sess", ComponentMailbox)

	tr.State("IDLE", "LOCKED", "")
	tr.Outcome("execute", "CMD_COMPLETE", 2, 0)
	tr.Error(nil, "ignored")

	events := c.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.SessionID != "sess" || e.Component != ComponentMailbox {
			t.Errorf("event = %+v, want session sess component MAILBOX", e)
		}
		if e.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	}
	if events[0].Category != CategoryState || events[1].Category != CategoryOutcome {
		t.Errorf("categories = %v, %v", events[0].Category, events[1].Category)
	}
}

func TestZeroTracerDiscards(t *testing.T) {
	var tr Tracer
	tr.Access(AccessRead, 0, 0)
	tr.State("a", "b", "")
}
