package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ErrSerialTimeout indicates a UART read returned no data within ReadTimeout.
var ErrSerialTimeout = errors.New("serial read timeout")

// SerialConfig configures a bridge client over a UART.
type SerialConfig struct {
	// Name is the device path (e.g. /dev/ttyUSB0).
	Name string

	// Baud rate (default: 115200).
	Baud int

	// ReadTimeout bounds a single read (default: 1s).
	ReadTimeout time.Duration

	// Client settings for the framed exchange.
	Client ClientConfig
}

// OpenSerial opens a UART and returns a bridge client speaking the same
// framed protocol as the TCP bridge.
func OpenSerial(cfg SerialConfig) (*Client, error) {
	if cfg.Name == "" {
		return nil, errors.New("serial device name is required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = time.Second
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Name, err)
	}
	return NewClient(&serialStream{port: port}, cfg.Client), nil
}

// serialStream turns the (0, nil) result of a timed-out UART read into
// ErrSerialTimeout so io.ReadFull terminates.
type serialStream struct {
	port io.ReadWriteCloser
}

func (s *serialStream) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == nil && len(p) > 0 {
		return 0, ErrSerialTimeout
	}
	return n, err
}

func (s *serialStream) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialStream) Close() error {
	return s.port.Close()
}
