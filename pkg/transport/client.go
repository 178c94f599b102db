package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regport"
	"github.com/ssbringup/bringup-go/pkg/wire"
)

// Client errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrResponseMismatch = errors.New("response id mismatch")
)

// ClientConfig configures a bridge client.
type ClientConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout bounds Dial when ctx has no deadline (default: 10s).
	ConnectTimeout time.Duration

	// ExchangeTimeout bounds one request/response round trip on
	// connections that support deadlines (default: 5s).
	ExchangeTimeout time.Duration

	// Trace receives bridge errors (optional).
	Trace     log.Logger
	SessionID string
}

func (c *ClientConfig) applyDefaults() {
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ExchangeTimeout == 0 {
		c.ExchangeTimeout = 5 * time.Second
	}
}

// Client accesses a remote register space through a bridge.
//
// Client implements regport.Port. Register accesses cannot fail at the port
// layer, so the first failed exchange is latched: later reads return 0,
// later writes are dropped, and Err reports the latched error. Polling
// loops check Err and abort instead of spinning on zeros.
type Client struct {
	rwc    io.ReadWriteCloser
	framer *Framer
	config ClientConfig
	tracer log.Tracer

	mu     sync.Mutex
	nextID uint32
	err    error
	closed bool
}

// NewClient wraps an established byte stream.
func NewClient(rwc io.ReadWriteCloser, config ClientConfig) *Client {
	config.applyDefaults()
	tracer := log.NewTracer(config.Trace, config.SessionID, log.ComponentBridge)
	framer := NewFramerWithMaxSize(rwc, config.MaxMessageSize)
	if config.Trace != nil {
		target := "bridge"
		if conn, ok := rwc.(net.Conn); ok {
			target = conn.RemoteAddr().String()
		}
		framer.SetTrace(tracer, target)
	}
	return &Client{
		rwc:    rwc,
		framer: framer,
		config: config,
		tracer: tracer,
	}
}

// Dial connects to a bridge server at address.
func Dial(ctx context.Context, address string, config ClientConfig) (*Client, error) {
	config.applyDefaults()

	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return NewClient(conn, config), nil
}

// DialRetry dials until a connection succeeds or budget runs out, waiting
// between attempts as the budget's backoff dictates. Each attempt is bounded
// by ConnectTimeout.
func DialRetry(ctx context.Context, address string, config ClientConfig, budget poll.Budget) (*Client, error) {
	config.applyDefaults()

	var client *Client
	var last error
	n, err := poll.Until(ctx, budget, func(int) (bool, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
		c, err := Dial(attemptCtx, address, config)
		if err != nil {
			last = err
			return false, nil
		}
		client = c
		return true, nil
	})
	if err != nil {
		if last != nil {
			return nil, fmt.Errorf("%w after %d attempts: %w", err, n, last)
		}
		return nil, err
	}
	return client, nil
}

// Do performs one request/response exchange. Status errors carried by the
// response are returned by resp.Err, not as err.
func (c *Client) Do(req *wire.Request) (*wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exchange(req)
}

func (c *Client) exchange(req *wire.Request) (*wire.Response, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.err != nil {
		// The stream may hold a stale response; it cannot be reused.
		return nil, c.err
	}

	c.nextID++
	if c.nextID == 0 {
		c.nextID = 1
	}
	req.ID = c.nextID

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	if d, ok := c.rwc.(interface{ SetDeadline(time.Time) error }); ok {
		d.SetDeadline(time.Now().Add(c.config.ExchangeTimeout))
		defer d.SetDeadline(time.Time{})
	}

	if err := c.framer.WriteFrame(data); err != nil {
		return nil, c.fail(err)
	}
	out, err := c.framer.ReadFrame()
	if err != nil {
		return nil, c.fail(err)
	}
	resp, err := wire.DecodeResponse(out)
	if err != nil {
		return nil, c.fail(err)
	}
	if resp.ID != req.ID {
		return nil, c.fail(fmt.Errorf("%w: got %d, want %d", ErrResponseMismatch, resp.ID, req.ID))
	}
	return resp, nil
}

// fail latches err as the client's sticky error.
func (c *Client) fail(err error) error {
	if c.err == nil {
		c.err = err
		c.tracer.Error(err, "bridge exchange")
	}
	return c.err
}

// access runs one register access under the latching rules.
func (c *Client) access(req *wire.Request) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil || c.closed {
		return 0
	}
	resp, err := c.exchange(req)
	if err != nil {
		return 0
	}
	if err := resp.Err(); err != nil {
		c.fail(fmt.Errorf("%s %s: %w", req.Op, regport.Addr(req.Addr), err))
		return 0
	}
	return resp.Value
}

// ReadRegister implements regport.Port.
func (c *Client) ReadRegister(addr regport.Addr) uint32 {
	return c.access(&wire.Request{Op: wire.OpRead, Addr: uint32(addr)})
}

// WriteRegister implements regport.Port.
func (c *Client) WriteRegister(addr regport.Addr, value uint32) {
	c.access(&wire.Request{Op: wire.OpWrite, Addr: uint32(addr), Value: value})
}

// Err returns the first failed exchange, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Info returns the model string and protocol version of the remote bridge.
func (c *Client) Info() (string, uint32, error) {
	resp, err := c.Do(&wire.Request{Op: wire.OpInfo})
	if err != nil {
		return "", 0, err
	}
	if err := resp.Err(); err != nil {
		return "", 0, err
	}
	return resp.Message, resp.Value, nil
}

// Close closes the underlying stream.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rwc.Close()
}
