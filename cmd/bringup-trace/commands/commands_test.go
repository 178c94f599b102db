package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ssbringup/bringup-go/pkg/log"
)

var ts = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func createTestTraceFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.btrace")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create trace: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close trace: %v", err)
	}
	return path
}

func sampleEvents() []log.Event {
	return []log.Event{
		{
			Timestamp: ts, SessionID: "5e55a1d0-aaaa-bbbb-cccc-000000000001",
			Component: log.ComponentPort, Category: log.CategoryAccess,
			Access: &log.AccessEvent{Op: log.AccessWrite, Addr: 0x30, Value: 0x96},
		},
		{
			Timestamp: ts.Add(time.Millisecond), SessionID: "5e55a1d0-aaaa-bbbb-cccc-000000000001",
			Component: log.ComponentLifecycle, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "ACQUIRING_LOCK", NewState: "WRITING_TARGET"},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond), SessionID: "5e55a1d0-aaaa-bbbb-cccc-000000000001",
			Component: log.ComponentLifecycle, Category: log.CategoryOutcome, Target: "devsim",
			Outcome: &log.OutcomeEvent{Operation: "transition", Result: "SUCCESS", Attempts: 3, Elapsed: 1500 * time.Microsecond},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond), SessionID: "other",
			Component: log.ComponentMailbox, Category: log.CategoryError,
			Error: &log.ErrorEventData{Message: "mailbox lock timeout", Context: "lock"},
		},
	}
}

func TestFormatAccessEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0])
	output := buf.String()

	for _, want := range []string{"2026-03-02T09:30:00.000000Z", "[sid:5e55a1d0]", "PORT", "WRITE", "0x00000030 = 0x00000096"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatOutcomeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[2])
	output := buf.String()

	for _, want := range []string{"LIFECYCLE", "Outcome @devsim", "transition: SUCCESS", "Attempts: 3", "Elapsed: 1.500ms"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatFrameEvent(t *testing.T) {
	event := log.Event{
		Timestamp: ts, SessionID: "5e55a1d0-aaaa-bbbb-cccc-000000000001",
		Component: log.ComponentBridge, Category: log.CategoryFrame, Target: "127.0.0.1:7441",
		Frame: &log.FrameEvent{Direction: log.FrameIn, Size: 11, Data: []byte{0xa3, 0x01, 0x09}, Truncated: true},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"BRIDGE", "Frame IN", "Size: 11 bytes", "Data: a30109..."} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestRunViewFiltersByComponent(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())
	c := log.ComponentLifecycle

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Component: &c}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()
	if strings.Contains(output, "PORT") || strings.Contains(output, "MAILBOX") {
		t.Errorf("unexpected component in output: %s", output)
	}
	if got := strings.Count(output, "LIFECYCLE"); got != 2 {
		t.Errorf("expected 2 lifecycle events, got %d", got)
	}
}

func TestParseFlags(t *testing.T) {
	if c, err := ParseComponentFlag("mailbox"); err != nil || c != log.ComponentMailbox {
		t.Errorf("ParseComponentFlag(mailbox) = %v, %v", c, err)
	}
	if _, err := ParseComponentFlag("zone"); err == nil {
		t.Error("expected error for unknown component")
	}
	if c, err := ParseCategoryFlag("OUTCOME"); err != nil || c != log.CategoryOutcome {
		t.Errorf("ParseCategoryFlag(OUTCOME) = %v, %v", c, err)
	}
	if c, err := ParseCategoryFlag("frame"); err != nil || c != log.CategoryFrame {
		t.Errorf("ParseCategoryFlag(frame) = %v, %v", c, err)
	}
	if a, err := ParseAddrFlag("0x1000"); err != nil || a != 0x1000 {
		t.Errorf("ParseAddrFlag(0x1000) = %v, %v", a, err)
	}
	if _, err := ParseAddrFlag("reg"); err == nil {
		t.Error("expected error for non-numeric address")
	}
}

func TestRunStats(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())

	stats, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if stats.TotalEvents != 4 {
		t.Errorf("expected 4 events, got %d", stats.TotalEvents)
	}
	if stats.Writes != 1 || stats.Reads != 0 {
		t.Errorf("expected 1 write and 0 reads, got %d/%d", stats.Writes, stats.Reads)
	}
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
	if len(stats.Sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(stats.Sessions))
	}
	if n := stats.OutcomesByResult["transition:SUCCESS"]; n != 1 {
		t.Errorf("expected 1 successful transition, got %d", n)
	}

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 4") {
		t.Errorf("unexpected stats output: %s", buf.String())
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "filtered.btrace")

	n, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		SessionID: "5e55a1d0-aaaa-bbbb-cccc-000000000001",
		TimeStart: ts.Add(time.Millisecond).Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}

	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.Component != log.ComponentLifecycle {
			t.Errorf("expected lifecycle event, got %s", event.Component)
		}
		count++
	}
	if count != 2 {
		t.Errorf("expected 2 events in output, got %d", count)
	}
}

func TestRunFilterByAddr(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())
	n, err := RunFilter(path, FilterOptions{Output: filepath.Join(t.TempDir(), "out"), Addr: "0x30"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 access event, got %d", n)
	}
}

func TestRunFilterInvalidTime(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())
	_, err := RunFilter(path, FilterOptions{Output: filepath.Join(t.TempDir(), "out"), TimeStart: "yesterday"})
	if err == nil {
		t.Fatal("expected error for invalid time")
	}
}

func TestRunExportCSV(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "trace.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "WRITE,0x00000030,0x00000096") {
		t.Errorf("unexpected access row: %s", lines[1])
	}
	if !strings.Contains(lines[3], "transition:SUCCESS") {
		t.Errorf("unexpected outcome row: %s", lines[3])
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "trace.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 4 {
		t.Errorf("expected 4 lines, got %d", got)
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
