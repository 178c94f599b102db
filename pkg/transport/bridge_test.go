package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regport"
	"github.com/ssbringup/bringup-go/pkg/wire"
)

func startBridge(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	cfg.Address = "127.0.0.1:0"
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()
	c, err := Dial(context.Background(), srv.Addr().String(), ClientConfig{ExchangeTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewServerRequiresPort(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Error("NewServer() without port error = nil")
	}
}

func TestClientReadWrite(t *testing.T) {
	mem := regport.NewMemPort()
	mem.Poke(0x70000404, 0x8)
	srv := startBridge(t, ServerConfig{Port: mem})
	c := dial(t, srv)

	if got := c.ReadRegister(0x70000404); got != 0x8 {
		t.Errorf("ReadRegister() = 0x%x, want 0x8", got)
	}

	c.WriteRegister(0x7000040c, 0x96)
	if got := mem.Peek(0x7000040c); got != 0x96 {
		t.Errorf("remote value = 0x%x, want 0x96", got)
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestClientInfo(t *testing.T) {
	srv := startBridge(t, ServerConfig{Port: regport.NewMemPort(), Model: "devsim"})
	c := dial(t, srv)

	model, version, err := c.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if model != "devsim" || version != ProtocolVersion {
		t.Errorf("Info() = (%q, %d), want (devsim, %d)", model, version, ProtocolVersion)
	}
}

func TestClientLatchesUnmapped(t *testing.T) {
	mem := regport.NewMemPort()
	srv := startBridge(t, ServerConfig{
		Port:   mem,
		Mapped: func(addr regport.Addr) bool { return addr < 0x1000 },
	})
	c := dial(t, srv)

	if got := c.ReadRegister(0x2000); got != 0 {
		t.Errorf("ReadRegister(unmapped) = 0x%x, want 0", got)
	}
	if c.Err() == nil {
		t.Fatal("Err() = nil after unmapped access")
	}
	if !errors.Is(regport.Err(c), regport.ErrBus) {
		t.Errorf("regport.Err() = %v, want ErrBus", regport.Err(c))
	}

	// Later accesses are suppressed.
	c.WriteRegister(0x10, 1)
	if mem.Writes(0x10) != 0 {
		t.Errorf("write after latch reached the port")
	}
}

func TestClientLatchesClosedServer(t *testing.T) {
	srv := startBridge(t, ServerConfig{Port: regport.NewMemPort()})
	c := dial(t, srv)

	c.ReadRegister(0)
	srv.Stop()

	c.ReadRegister(0)
	if c.Err() == nil {
		t.Error("Err() = nil after server stopped")
	}
	if _, err := c.Do(&wire.Request{Op: wire.OpRead}); err == nil {
		t.Error("Do() after latch error = nil")
	}
}

func TestClientClose(t *testing.T) {
	srv := startBridge(t, ServerConfig{Port: regport.NewMemPort()})
	c := dial(t, srv)

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if _, err := c.Do(&wire.Request{Op: wire.OpRead}); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Do() after Close error = %v, want ErrConnectionClosed", err)
	}
}

func TestServerInvalidRequest(t *testing.T) {
	srv := startBridge(t, ServerConfig{Port: regport.NewMemPort()})

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	framer := NewFramer(conn)

	// {1: 9, 2: Read, 3: 0x3}; EncodeRequest refuses the unaligned address.
	data := []byte{0xa3, 0x01, 0x09, 0x02, 0x01, 0x03, 0x03}
	if err := framer.WriteFrame(data); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	out, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	resp, err := wire.DecodeResponse(out)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if resp.ID != 9 || resp.Status != wire.StatusInvalidRequest {
		t.Errorf("response = %+v, want id 9 INVALID_REQUEST", resp)
	}
}

func TestServerDropsMalformedPeer(t *testing.T) {
	errCh := make(chan error, 1)
	srv := startBridge(t, ServerConfig{
		Port: regport.NewMemPort(),
		OnError: func(_ *ServerConn, err error) {
			select {
			case errCh <- err:
			default:
			}
		},
	})

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	if err := NewFramer(conn).WriteFrame([]byte{0xff}); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("OnError not called for malformed request")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("read after malformed request = %v, want EOF", err)
	}
}

func TestServerConcurrentClients(t *testing.T) {
	mem := regport.NewMemPort()
	var connected sync.WaitGroup
	srv := startBridge(t, ServerConfig{Port: mem})

	const clients = 4
	const writes = 25
	connected.Add(clients)
	for i := range clients {
		go func() {
			defer connected.Done()
			c, err := Dial(context.Background(), srv.Addr().String(), ClientConfig{})
			if err != nil {
				t.Errorf("Dial failed: %v", err)
				return
			}
			defer c.Close()
			addr := regport.Addr(0x100 + 4*i)
			for v := range writes {
				c.WriteRegister(addr, uint32(v))
			}
			if err := c.Err(); err != nil {
				t.Errorf("client %d Err() = %v", i, err)
			}
		}()
	}
	connected.Wait()

	for i := range clients {
		addr := regport.Addr(0x100 + 4*i)
		if got := mem.Writes(addr); got != writes {
			t.Errorf("Writes(%s) = %d, want %d", addr, got, writes)
		}
	}
}

// stubUART returns (0, nil) once its data is exhausted, like a timed-out read.
type stubUART struct {
	data []byte
}

func (s *stubUART) Read(p []byte) (int, error) {
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func (s *stubUART) Write(p []byte) (int, error) { return len(p), nil }
func (s *stubUART) Close() error                { return nil }

func TestSerialStreamTimeout(t *testing.T) {
	c := NewClient(&serialStream{port: &stubUART{}}, ClientConfig{})

	if got := c.ReadRegister(0x4); got != 0 {
		t.Errorf("ReadRegister() = 0x%x, want 0", got)
	}
	if err := c.Err(); !errors.Is(err, ErrFrameTruncated) && !errors.Is(err, ErrSerialTimeout) {
		t.Errorf("Err() = %v, want serial timeout", err)
	}
}

func TestOpenSerialRequiresName(t *testing.T) {
	if _, err := OpenSerial(SerialConfig{}); err == nil {
		t.Error("OpenSerial() without name error = nil")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestDialRetryWaitsForServer(t *testing.T) {
	addr := freeAddr(t)
	srv, err := NewServer(ServerConfig{Address: addr, Port: regport.NewMemPort()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.Stop() })

	go func() {
		time.Sleep(150 * time.Millisecond)
		if err := srv.Start(context.Background()); err != nil {
			t.Errorf("Start failed: %v", err)
		}
	}()

	budget := poll.Budget{Timeout: 5 * time.Second, Interval: 20 * time.Millisecond, MaxInterval: 100 * time.Millisecond}
	c, err := DialRetry(context.Background(), addr, ClientConfig{}, budget)
	if err != nil {
		t.Fatalf("DialRetry failed: %v", err)
	}
	defer c.Close()

	if _, v, err := c.Info(); err != nil || v != ProtocolVersion {
		t.Errorf("Info() = %d, %v; want %d", v, err, ProtocolVersion)
	}
}

func TestDialRetryGivesUp(t *testing.T) {
	addr := freeAddr(t)
	_, err := DialRetry(context.Background(), addr, ClientConfig{}, poll.Budget{MaxAttempts: 3, Interval: time.Millisecond})
	if !errors.Is(err, poll.ErrTimeout) {
		t.Errorf("DialRetry() error = %v, want poll.ErrTimeout", err)
	}
}
