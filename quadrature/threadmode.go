package quadrature

import (
	"fmt"
	"sync/atomic"
)

// ThreadMode tracks whether a parallel region is active. Everything that mutates
// shared quadrature state must run while no workers are active; reads may run in
// parallel because no mutation can overlap them.
type ThreadMode struct {
	workers atomic.Int64
}

// BeginParallel opens a parallel region of n workers. Regions do not nest.
func (m *ThreadMode) BeginParallel(n int) {
	if n < 1 {
		panic(fmt.Sprintf("quadrature: parallel region needs at least one worker, got %d", n))
	}
	if !m.workers.CompareAndSwap(0, int64(n)) {
		panic(fmt.Sprintf("quadrature: parallel region already open with %d workers", m.workers.Load()))
	}
}

// EndParallel closes the active parallel region
func (m *ThreadMode) EndParallel() {
	if m.workers.Swap(0) == 0 {
		panic("quadrature: EndParallel without an open parallel region")
	}
}

// Workers returns the number of workers of the open region, 0 when single threaded
func (m *ThreadMode) Workers() int { return int(m.workers.Load()) }

// SingleThreaded reports whether no parallel region is open
func (m *ThreadMode) SingleThreaded() bool { return m.workers.Load() == 0 }

// AssertSingleThreaded panics when op is attempted inside a parallel region
func (m *ThreadMode) AssertSingleThreaded(op string) {
	if n := m.workers.Load(); n != 0 {
		panic(fmt.Sprintf("quadrature: %s requires single threaded mode, %d workers active", op, n))
	}
}
