package wire

import (
	"errors"
	"fmt"
)

// ErrInvalidMessage indicates a message that violates the bridge format.
var ErrInvalidMessage = errors.New("invalid bridge message")

// Request is a single register access.
//
// CBOR encoding:
//
//	{
//	  1: id,      // uint32, non-zero, echoed in the response
//	  2: op,      // uint8: 1=Read, 2=Write, 3=Info
//	  3: addr,    // uint32 register address
//	  4: value    // uint32, writes only
//	}
type Request struct {
	ID    uint32    `cbor:"1,keyasint"`
	Op    Operation `cbor:"2,keyasint"`
	Addr  uint32    `cbor:"3,keyasint"`
	Value uint32    `cbor:"4,keyasint,omitempty"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("%w: id 0 is reserved", ErrInvalidMessage)
	}
	if !r.Op.IsValid() {
		return fmt.Errorf("%w: operation %d", ErrInvalidMessage, r.Op)
	}
	if r.Op != OpInfo && r.Addr%4 != 0 {
		return fmt.Errorf("%w: unaligned address 0x%08x", ErrInvalidMessage, r.Addr)
	}
	return nil
}

// Response answers one Request.
//
// CBOR encoding:
//
//	{
//	  1: id,       // uint32: matches request
//	  2: status,   // uint8: 0=success, or error code
//	  3: value,    // uint32: read value
//	  4: message   // string: error detail or device identity
//	}
type Response struct {
	ID      uint32 `cbor:"1,keyasint"`
	Status  Status `cbor:"2,keyasint"`
	Value   uint32 `cbor:"3,keyasint,omitempty"`
	Message string `cbor:"4,keyasint,omitempty"`
}

// Validate checks the response status code.
func (r *Response) Validate() error {
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: status %d", ErrInvalidMessage, r.Status)
	}
	return nil
}

// InfoResponse answers an Info request with this side's protocol version.
func InfoResponse(id uint32, model string) *Response {
	return &Response{ID: id, Value: ProtocolVersion, Message: model}
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Err returns nil on success, otherwise an error describing the failure.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	if r.Message != "" {
		return fmt.Errorf("bridge %s: %s", r.Status, r.Message)
	}
	return fmt.Errorf("bridge %s", r.Status)
}

// ErrorResponse builds a failed response for id.
func ErrorResponse(id uint32, status Status, err error) *Response {
	resp := &Response{ID: id, Status: status}
	if err != nil {
		resp.Message = err.Error()
	}
	return resp
}
