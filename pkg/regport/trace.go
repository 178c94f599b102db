package regport

import (
	"github.com/ssbringup/bringup-go/pkg/log"
)

// TracingPort records every access of the wrapped port as a trace event.
type TracingPort struct {
	inner  Port
	tracer log.Tracer
}

// NewTracingPort wraps inner. Events carry sessionID and the Port component.
func NewTracingPort(inner Port, logger log.Logger, sessionID string) *TracingPort {
	return &TracingPort{
		inner:  inner,
		tracer: log.NewTracer(logger, sessionID, log.ComponentPort),
	}
}

// ReadRegister implements Port.
func (p *TracingPort) ReadRegister(addr Addr) uint32 {
	v := p.inner.ReadRegister(addr)
	p.tracer.Access(log.AccessRead, uint32(addr), v)
	return v
}

// WriteRegister implements Port.
func (p *TracingPort) WriteRegister(addr Addr, value uint32) {
	p.inner.WriteRegister(addr, value)
	p.tracer.Access(log.AccessWrite, uint32(addr), value)
}

// Err forwards the latched error of the wrapped port.
func (p *TracingPort) Err() error {
	if f, ok := p.inner.(Faulter); ok {
		return f.Err()
	}
	return nil
}

// Unwrap returns the wrapped port.
func (p *TracingPort) Unwrap() Port {
	return p.inner
}

// Compile-time interface satisfaction checks.
var (
	_ Port    = (*TracingPort)(nil)
	_ Faulter = (*TracingPort)(nil)
)
