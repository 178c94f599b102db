// Package regport defines the register access capability used by every
// bring-up protocol.
//
// The protocol core never touches hardware directly. Each component receives a
// Port, a byte-addressable 32-bit register interface that is synchronous and
// infallible at this layer. Bus errors belong to the transport behind the
// port; transports that can fail implement Faulter so that polling loops can
// stop early instead of spinning on stale values.
//
// # Implementations
//
//   - MemPort: an in-memory register file with per-address read/write hooks.
//     Used as the mock device in tests and as the backing store of the device
//     simulator.
//   - TracingPort: a decorator that records every access as a protocol log
//     event.
//   - transport.Client: a remote port speaking the register bridge protocol.
//
// # Bitfields
//
// Register and Field describe named bitfields so that callers can decode a
// register value without hand-written shifts:
//
//	status := regport.Field{Offset: 0, Width: 4}
//	code := status.Get(port.ReadRegister(addr))
package regport
