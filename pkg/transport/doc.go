// Package transport carries bridge messages between a host and the device
// whose registers it drives.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   CBOR Request / Response      │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│       TCP   |   UART           │
//	└────────────────────────────────┘
//
// Server exposes a regport.Port over TCP. Client implements regport.Port on
// top of any framed byte stream: Dial for TCP, OpenSerial for a UART.
//
// # Failure Model
//
// A Client latches its first failed exchange. After that, reads return 0 and
// writes are dropped until the client is replaced; Err reports the latched
// error so protocol loops stop polling.
package transport
