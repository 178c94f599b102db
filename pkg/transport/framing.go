package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ssbringup/bringup-go/pkg/log"
)

// Bridge frame layout: a 4-byte big-endian payload length, then one CBOR
// encoded request or response.
const (
	LengthPrefixSize = 4

	// DefaultMaxMessageSize bounds a single bridge message (64 KB). Bridge
	// messages carry at most one register word, so anything near this size
	// is a corrupt prefix.
	DefaultMaxMessageSize = 65536

	MinMessageSize = 1

	// MaxTraceFrameBytes is how much of each payload a FRAME event keeps.
	MaxTraceFrameBytes = 64
)

var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrMessageEmpty    = errors.New("message is empty")
	ErrFrameTruncated  = errors.New("frame truncated")
)

// Framer reads and writes length-prefixed bridge frames on one stream.
// WriteFrame may be called concurrently; ReadFrame must have a single caller.
type Framer struct {
	r   io.Reader
	w   io.Writer
	max uint32

	wmu    sync.Mutex
	lenBuf [LengthPrefixSize]byte

	tracer log.Tracer
	target string
}

// NewFramer returns a Framer with DefaultMaxMessageSize.
func NewFramer(rw io.ReadWriter) *Framer {
	return NewFramerWithMaxSize(rw, DefaultMaxMessageSize)
}

// NewFramerWithMaxSize returns a Framer that rejects payloads over maxSize
// in both directions.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &Framer{r: rw, w: rw, max: maxSize}
}

// SetTrace emits a FRAME event per frame sent or received. target names the
// peer (remote address or connection ID) in the event. Call before the
// framer is shared.
func (f *Framer) SetTrace(t log.Tracer, target string) {
	f.tracer = t
	f.target = target
}

// SetMaxMessageSize updates the payload limit.
func (f *Framer) SetMaxMessageSize(size uint32) {
	f.max = size
}

// WriteFrame sends data as one frame. The prefix and payload go out in a
// single Write so concurrent writers never interleave on the stream.
func (f *Framer) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if uint32(len(data)) > f.max {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), f.max)
	}

	frame := make([]byte, LengthPrefixSize+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[LengthPrefixSize:], data)

	f.wmu.Lock()
	_, err := f.w.Write(frame)
	f.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	f.tracer.Frame(f.target, log.FrameOut, len(frame), data, MaxTraceFrameBytes)
	return nil
}

// ReadFrame returns the next payload without its prefix. A clean close
// between frames returns io.EOF; a close mid-frame returns ErrFrameTruncated.
func (f *Framer) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(f.r, f.lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(f.lenBuf[:])
	if length == 0 {
		return nil, ErrMessageEmpty
	}
	if length > f.max {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, length, f.max)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	f.tracer.Frame(f.target, log.FrameIn, FrameSize(len(payload)), payload, MaxTraceFrameBytes)
	return payload, nil
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
