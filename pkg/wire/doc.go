// Package wire defines the CBOR message format of the register bridge.
//
// The bridge exposes a device's register space to a remote host. Each
// request carries one register access; each response answers exactly one
// request with the same ID.
//
// # CBOR Integer Keys
//
// All maps use integer keys for compactness:
//
//	Request  {1: id, 2: op, 3: addr, 4: value}
//	Response {1: id, 2: status, 3: value, 4: message}
//
// Decoding is strict: duplicate keys, indefinite-length items and unknown
// status codes are rejected with ErrInvalidMessage. DecodeRequest still
// returns a request that parsed but failed validation, so a server can
// answer it with StatusInvalidRequest under the request's own ID.
//
// Messages travel length-prefixed (see package transport).
package wire
