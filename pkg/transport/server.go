package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/regport"
	"github.com/ssbringup/bringup-go/pkg/wire"
)

// DefaultPort is the default register bridge TCP port.
const DefaultPort = 7441

// ProtocolVersion is reported in the Value of an Info response.
const ProtocolVersion = wire.ProtocolVersion

// ServerConfig configures a register bridge server.
type ServerConfig struct {
	// Address to listen on (e.g., ":7441" or "127.0.0.1:0").
	Address string

	// Port is the register space served to clients. Required.
	Port regport.Port

	// Mapped reports whether addr belongs to the served register space.
	// Nil serves every aligned address.
	Mapped func(addr regport.Addr) bool

	// Model identifies the served device in Info responses.
	Model string

	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// Logger for operational messages (optional).
	Logger *slog.Logger

	// Trace receives bridge connection events (optional).
	Trace     log.Logger
	SessionID string

	// OnConnect is called when a new connection is established.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn *ServerConn)

	// OnError is called when an error occurs.
	OnError func(conn *ServerConn, err error)
}

// Server serves a register port to bridge clients over TCP.
//
// Each connection is handled by its own goroutine; register accesses from
// all connections are serialized, so the port sees one access at a time.
type Server struct {
	config   ServerConfig
	listener net.Listener
	tracer   log.Tracer

	// Serializes accesses to config.Port
	portMu sync.Mutex

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new bridge server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Port == nil {
		return nil, errors.New("register port is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	return &Server{
		config: config,
		tracer: log.NewTracer(config.Trace, config.SessionID, log.ComponentBridge),
		conns:  make(map[*ServerConn]struct{}),
	}, nil
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.running.Store(true)
	s.debugLog("bridge listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	// Close listener to stop accept loop
	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()

	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.reportError(nil, fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	sconn := &ServerConn{
		conn:       conn,
		framer:     NewFramerWithMaxSize(conn, s.config.MaxMessageSize),
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: conn.RemoteAddr(),
		connID:     uuid.New().String(),
	}
	if s.config.Trace != nil {
		sconn.framer.SetTrace(s.tracer, sconn.connID)
	}

	s.tracer.State("", "CONNECTED", sconn.remoteAddr.String())
	s.debugLog("bridge client connected", "conn", sconn.connID, "remote", sconn.remoteAddr.String())

	s.connsMu.Lock()
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()
	sconn.Close()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	s.tracer.State("CONNECTED", "DISCONNECTED", sconn.remoteAddr.String())
	s.debugLog("bridge client disconnected", "conn", sconn.connID)

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

// serve performs one request against the port.
// req has passed wire.DecodeRequest validation.
func (s *Server) serve(req *wire.Request) *wire.Response {
	if req.Op == wire.OpInfo {
		return wire.InfoResponse(req.ID, s.config.Model)
	}

	addr := regport.Addr(req.Addr)
	if s.config.Mapped != nil && !s.config.Mapped(addr) {
		return wire.ErrorResponse(req.ID, wire.StatusUnmapped, fmt.Errorf("address %s not mapped", addr))
	}

	s.portMu.Lock()
	defer s.portMu.Unlock()

	resp := &wire.Response{ID: req.ID}
	switch req.Op {
	case wire.OpRead:
		resp.Value = s.config.Port.ReadRegister(addr)
	case wire.OpWrite:
		s.config.Port.WriteRegister(addr, req.Value)
	}
	if err := regport.Err(s.config.Port); err != nil {
		return wire.ErrorResponse(req.ID, wire.StatusError, err)
	}
	return resp
}

func (s *Server) reportError(conn *ServerConn, err error) {
	s.tracer.Error(err, "bridge")
	if s.config.OnError != nil {
		s.config.OnError(conn, err)
	}
}

func (s *Server) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

// ServerConn represents a client connection to the server.
type ServerConn struct {
	conn       net.Conn
	framer     *Framer
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr
	connID     string // Unique connection identifier
}

// RemoteAddr returns the remote address of the client.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnID returns the unique connection identifier.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// readLoop answers requests until the connection fails or the server stops.
func (c *ServerConn) readLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		case <-c.server.ctx.Done():
			return
		default:
		}

		data, err := c.framer.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && c.server.running.Load() {
				select {
				case <-c.closeCh:
					// Already closing, don't report
				default:
					c.server.reportError(c, err)
				}
			}
			return
		}

		var resp *wire.Response
		req, err := wire.DecodeRequest(data)
		switch {
		case req == nil:
			// The peer does not speak the bridge format; no ID to answer.
			c.server.reportError(c, fmt.Errorf("malformed request: %w", err))
			return
		case err != nil:
			resp = wire.ErrorResponse(req.ID, wire.StatusInvalidRequest, err)
		default:
			resp = c.server.serve(req)
		}

		out, err := wire.EncodeResponse(resp)
		if err == nil {
			err = c.framer.WriteFrame(out)
		}
		if err != nil {
			c.server.reportError(c, err)
			return
		}
	}
}
