package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestRequestEncoding(t *testing.T) {
	req := &Request{ID: 7, Op: OpWrite, Addr: 0x7000040c, Value: 0x96}

	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	// Integer keys 1..4 in canonical order: a4 01 07 02 02 03 1a... 04 18 96
	if data[0] != 0xa4 {
		t.Errorf("map header = 0x%02x, want 0xa4", data[0])
	}
	if !bytes.Contains(data, []byte{0x04, 0x18, 0x96}) {
		t.Errorf("encoded request %x lacks value key 4", data)
	}

	got, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if *got != *req {
		t.Errorf("DecodeRequest() = %+v, want %+v", *got, *req)
	}
}

func TestReadRequestOmitsValue(t *testing.T) {
	data, err := EncodeRequest(&Request{ID: 1, Op: OpRead, Addr: 0x4})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	if data[0] != 0xa3 {
		t.Errorf("map header = 0x%02x, want 0xa3 (value omitted)", data[0])
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"zero id", Request{ID: 0, Op: OpRead}},
		{"bad op", Request{ID: 1, Op: 9}},
		{"unaligned", Request{ID: 1, Op: OpRead, Addr: 0x2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeRequest(&tt.req); !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("EncodeRequest() error = %v, want ErrInvalidMessage", err)
			}
		})
	}

	info := Request{ID: 1, Op: OpInfo, Addr: 3}
	if err := info.Validate(); err != nil {
		t.Errorf("info request Validate() = %v, want nil", err)
	}
}

func TestDecodeRequestRejectsInvalid(t *testing.T) {
	// {1: 9, 2: Read, 3: 0x3}
	unaligned := []byte{0xa3, 0x01, 0x09, 0x02, 0x01, 0x03, 0x03}
	req, err := DecodeRequest(unaligned)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("DecodeRequest(unaligned) error = %v, want ErrInvalidMessage", err)
	}
	if req == nil || req.ID != 9 {
		t.Errorf("DecodeRequest(unaligned) = %+v, want request with id 9", req)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte{0xff}},
		{"duplicate key", []byte{0xa3, 0x01, 0x01, 0x01, 0x02, 0x02, 0x01}},
		{"indefinite map", []byte{0xbf, 0x01, 0x01, 0x02, 0x01, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeRequest(tt.data)
			if !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("DecodeRequest() error = %v, want ErrInvalidMessage", err)
			}
			if req != nil {
				t.Errorf("DecodeRequest() = %+v, want nil", req)
			}
		})
	}
}

func TestDecodeResponseRejectsUnknownStatus(t *testing.T) {
	// {1: 4, 2: 9}
	if _, err := DecodeResponse([]byte{0xa2, 0x01, 0x04, 0x02, 0x09}); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("DecodeResponse() error = %v, want ErrInvalidMessage", err)
	}
	if _, err := EncodeResponse(&Response{ID: 4, Status: 9}); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("EncodeResponse() error = %v, want ErrInvalidMessage", err)
	}
}

func TestInfoResponse(t *testing.T) {
	resp := InfoResponse(3, "devsim")
	if resp.ID != 3 || resp.Value != ProtocolVersion || resp.Message != "devsim" || !resp.IsSuccess() {
		t.Errorf("InfoResponse() = %+v", resp)
	}
}

func TestResponseErr(t *testing.T) {
	ok := &Response{ID: 1, Value: 5}
	if ok.Err() != nil {
		t.Errorf("Err() = %v, want nil", ok.Err())
	}

	resp := ErrorResponse(2, StatusUnmapped, errors.New("0x1 not mapped"))
	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}
	got, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if got.IsSuccess() {
		t.Error("IsSuccess() = true")
	}
	if got.Err() == nil || got.Err().Error() != "bridge UNMAPPED: 0x1 not mapped" {
		t.Errorf("Err() = %v", got.Err())
	}
}

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpRead, "Read"},
		{OpWrite, "Write"},
		{OpInfo, "Info"},
		{Operation(0), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Operation(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}
