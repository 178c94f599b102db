package transport

import (
	"context"
	"net"

	"github.com/ssbringup/bringup-go/pkg/regport"
)

// BridgeServer represents a register bridge server.
// Implemented by Server.
type BridgeServer interface {
	// Start begins accepting connections.
	Start(ctx context.Context) error

	// Stop gracefully stops the server.
	Stop() error

	// Addr returns the server's listen address.
	Addr() net.Addr

	// ConnectionCount returns the number of active connections.
	ConnectionCount() int
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ BridgeServer    = (*Server)(nil)
	_ FrameReadWriter = (*Framer)(nil)
	_ regport.Port    = (*Client)(nil)
	_ regport.Faulter = (*Client)(nil)
)
