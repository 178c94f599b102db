// Package log provides structured protocol capture for bring-up sessions.
//
// This package defines the Logger interface and Event types for recording
// what the protocol core did to a device: every register access, every
// protocol state change and every outcome. It is separate from operational
// logging (slog) - protocol capture provides a complete machine-readable trace
// that can be replayed or inspected after a failed bring-up.
//
// # Basic Usage
//
// Components accept a Logger in their configuration:
//
//	// For development: log to console via slog
//	cfg.Trace = log.NewSlogAdapter(slog.Default())
//
//	// For lab runs: write to binary file
//	cfg.Trace, _ = log.NewFileLogger("/var/log/bringup/session.btrace")
//
//	// Both: use MultiLogger
//	cfg.Trace = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are tagged with the component that produced them:
//   - Port: raw register accesses (AccessEvent)
//   - Mutex, Lifecycle, Stream, Mailbox, Recovery: protocol state changes
//     (StateChangeEvent) and terminal results (OutcomeEvent)
//
//   - Bridge: one FrameEvent per bridge frame sent or received, with the
//     first bytes of the CBOR payload
//
// Errors at any component have a dedicated event type.
//
// # File Format
//
// Trace files use CBOR encoding with the .btrace extension. The bringup-trace
// CLI tool provides viewing, filtering and statistics.
package log
