package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ProtocolVersion is the bridge format revision. Servers report it in the
// Value of an Info response.
const ProtocolVersion = 1

// Requests and responses are small fixed-shape maps, so both directions use
// strict modes: canonical key order on encode, and definite lengths with no
// duplicate keys on decode. A peer that sends anything else is not a bridge.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		MaxMapPairs: 16,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: decoder mode: %v", err))
	}
}

// EncodeRequest validates req and returns its CBOR form.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(req)
}

// DecodeRequest parses a request frame.
//
// A frame that is not a CBOR request map yields a nil Request. A well-formed
// map that fails Validate yields the decoded Request together with an error
// wrapping ErrInvalidMessage, so the caller can still answer its ID.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := decMode.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: decode request: %v", ErrInvalidMessage, err)
	}
	if err := req.Validate(); err != nil {
		return &req, err
	}
	return &req, nil
}

// EncodeResponse returns the CBOR form of resp.
func EncodeResponse(resp *Response) ([]byte, error) {
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(resp)
}

// DecodeResponse parses and validates a response frame.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := decMode.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInvalidMessage, err)
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}
