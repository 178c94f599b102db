// Package commands implements the bringup-trace CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ssbringup/bringup-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Component *log.Component
	Category  *log.Category
	Addr      *uint32
}

func (f ViewFilter) filter() log.Filter {
	return log.Filter{Component: f.Component, Category: f.Category, Addr: f.Addr}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sid:id] COMPONENT Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Access != nil:
		typeLabel = event.Access.Op.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Outcome != nil:
		typeLabel = "Outcome"
	case event.Error != nil:
		typeLabel = "Error"
	case event.Frame != nil:
		typeLabel = "Frame " + event.Frame.Direction.String()
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [sid:%s] %-9s %s", ts, shortenID(event.SessionID), event.Component, typeLabel)
	if event.Target != "" {
		fmt.Fprintf(w, " @%s", event.Target)
	}
	fmt.Fprintln(w)

	switch {
	case event.Access != nil:
		fmt.Fprintf(w, "  0x%08x = 0x%08x\n", event.Access.Addr, event.Access.Value)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Outcome != nil:
		formatOutcomeDetails(w, event.Outcome)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a session or connection ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatOutcomeDetails(w io.Writer, o *log.OutcomeEvent) {
	fmt.Fprintf(w, "  %s: %s\n", o.Operation, o.Result)
	if o.Attempts > 0 {
		fmt.Fprintf(w, "  Attempts: %d\n", o.Attempts)
	}
	if o.Elapsed > 0 {
		fmt.Fprintf(w, "  Elapsed: %s\n", formatDuration(o.Elapsed))
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func formatFrameDetails(w io.Writer, f *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", f.Size)
	if len(f.Data) > 0 {
		fmt.Fprintf(w, "  Data: %x", f.Data)
		if f.Truncated {
			fmt.Fprint(w, "...")
		}
		fmt.Fprintln(w)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseComponentFlag parses a component name (case-insensitive).
func ParseComponentFlag(s string) (log.Component, error) {
	c, ok := log.ParseComponent(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid component: %s (must be port, mutex, lifecycle, stream, mailbox, recovery or bridge)", s)
	}
	return c, nil
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "access":
		return log.CategoryAccess, nil
	case "state":
		return log.CategoryState, nil
	case "outcome":
		return log.CategoryOutcome, nil
	case "error":
		return log.CategoryError, nil
	case "frame":
		return log.CategoryFrame, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be access, state, outcome, error or frame)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.filter())
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}
