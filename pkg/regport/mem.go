package regport

import "sync"

// Store gives hooks direct access to the register file. Calls made through a
// Store do not run hooks and are not recorded.
type Store interface {
	Peek(addr Addr) uint32
	Poke(addr Addr, value uint32)
}

// ReadHook computes the value returned for a read of addr. stored is the
// current register content. A hook may update other registers through s.
type ReadHook func(s Store, addr Addr, stored uint32) uint32

// WriteHook computes the value stored for a write of value to addr.
type WriteHook func(s Store, addr Addr, value uint32) uint32

// MemPort is an in-memory register file implementing Port.
// It is safe for concurrent use; hooks run with the register file locked, so
// every access is atomic with respect to other accesses.
type MemPort struct {
	mu         sync.Mutex
	regs       map[Addr]uint32
	readHooks  map[Addr]ReadHook
	writeHooks map[Addr]WriteHook
	reads      map[Addr]int
	writes     map[Addr]int

	journal    []Access
	keepRecord bool
}

// NewMemPort creates an empty register file. All registers read as zero until
// written.
func NewMemPort() *MemPort {
	return &MemPort{
		regs:       make(map[Addr]uint32),
		readHooks:  make(map[Addr]ReadHook),
		writeHooks: make(map[Addr]WriteHook),
		reads:      make(map[Addr]int),
		writes:     make(map[Addr]int),
	}
}

// OnRead installs a read hook for addr, replacing any previous hook.
func (m *MemPort) OnRead(addr Addr, hook ReadHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readHooks[addr] = hook
}

// OnWrite installs a write hook for addr, replacing any previous hook.
func (m *MemPort) OnWrite(addr Addr, hook WriteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeHooks[addr] = hook
}

// Record enables or disables the access journal.
func (m *MemPort) Record(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keepRecord = enabled
}

// ReadRegister implements Port.
func (m *MemPort) ReadRegister(addr Addr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.regs[addr]
	if hook, ok := m.readHooks[addr]; ok {
		v = hook(memStore{m}, addr, v)
	}
	m.reads[addr]++
	if m.keepRecord {
		m.journal = append(m.journal, Access{Op: OpRead, Addr: addr, Value: v})
	}
	return v
}

// WriteRegister implements Port.
func (m *MemPort) WriteRegister(addr Addr, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := value
	if hook, ok := m.writeHooks[addr]; ok {
		stored = hook(memStore{m}, addr, value)
	}
	m.regs[addr] = stored
	m.writes[addr]++
	if m.keepRecord {
		m.journal = append(m.journal, Access{Op: OpWrite, Addr: addr, Value: value})
	}
}

// Peek returns the stored value of addr without running hooks.
func (m *MemPort) Peek(addr Addr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr]
}

// Poke stores value at addr without running hooks.
func (m *MemPort) Poke(addr Addr, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[addr] = value
}

// Reads returns how many times addr was read through the Port interface.
func (m *MemPort) Reads(addr Addr) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[addr]
}

// Writes returns how many times addr was written through the Port interface.
func (m *MemPort) Writes(addr Addr) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[addr]
}

// Journal returns a copy of the recorded accesses in order.
func (m *MemPort) Journal() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Access, len(m.journal))
	copy(out, m.journal)
	return out
}

// WritesTo returns the values written to addr, in order. Requires Record(true).
func (m *MemPort) WritesTo(addr Addr) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint32
	for _, a := range m.journal {
		if a.Op == OpWrite && a.Addr == addr {
			out = append(out, a.Value)
		}
	}
	return out
}

// memStore is the lock-free view handed to hooks.
type memStore struct {
	m *MemPort
}

func (s memStore) Peek(addr Addr) uint32 {
	return s.m.regs[addr]
}

func (s memStore) Poke(addr Addr, value uint32) {
	s.m.regs[addr] = value
}

// Compile-time interface satisfaction checks.
var (
	_ Port  = (*MemPort)(nil)
	_ Store = (*MemPort)(nil)
)
