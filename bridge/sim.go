package bridge

const (
	simPageSize = 4096
	// realModeMask models the 1 MiB wrap of segment:offset addressing.
	realModeMask = 0xFFFFF
)

// SimMemory is a sparse physical memory implementing Memory on a host.
//
// Until EnterUnrealMode takes effect, copies wrap at 1 MiB like they would
// with a 64 KiB segment limit and no A20. Reads always go to the physical
// address, as they do from protected mode, so a failed unreal mode switch is
// visible to verification.
type SimMemory struct {
	pages  map[uint32]*[simPageSize]byte
	unreal bool

	// IgnoreUnreal makes EnterUnrealMode a no-op to simulate a CPU which
	// loses the cached segment limit.
	IgnoreUnreal bool

	// Jumped is set by EnterProtectedModeAndJump, Entry holds its argument.
	Jumped bool
	Entry  uint32
}

// NewSimMemory returns zeroed memory.
func NewSimMemory() *SimMemory {
	return &SimMemory{pages: make(map[uint32]*[simPageSize]byte)}
}

func (m *SimMemory) EnterUnrealMode() {
	if !m.IgnoreUnreal {
		m.unreal = true
	}
}

func (m *SimMemory) page(addr uint32, create bool) *[simPageSize]byte {
	p, ok := m.pages[addr/simPageSize]
	if !ok && create {
		p = new([simPageSize]byte)
		m.pages[addr/simPageSize] = p
	}
	return p
}

func (m *SimMemory) CopyToProtectedMode(dst uint32, src []byte) {
	for len(src) > 0 {
		addr := dst
		if !m.unreal {
			addr &= realModeMask
		}
		// Pages never straddle the 1 MiB wrap.
		n := copy(m.page(addr, true)[addr%simPageSize:], src)
		src = src[n:]
		dst += uint32(n)
	}
}

func (m *SimMemory) ReadFromProtectedMode(addr uint32) byte {
	if p := m.page(addr, false); p != nil {
		return p[addr%simPageSize]
	}
	return 0
}

func (m *SimMemory) EnterProtectedModeAndJump(entry uint32) {
	m.Jumped = true
	m.Entry = entry
}

// Read returns a copy of n bytes at the physical address addr.
func (m *SimMemory) Read(addr uint32, n int) []byte {
	b := make([]byte, n)
	for i := 0; i < n; {
		a := addr + uint32(i)
		k := simPageSize - int(a%simPageSize)
		if k > n-i {
			k = n - i
		}
		if p := m.page(a, false); p != nil {
			copy(b[i:i+k], p[a%simPageSize:])
		}
		i += k
	}
	return b
}

// Pages returns the number of pages which have been written to.
func (m *SimMemory) Pages() int {
	return len(m.pages)
}
