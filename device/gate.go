package device

import (
	"sync/atomic"
)

const (
	gateFree int32 = iota
	gateHeld
)

// Gate guards the data access point with a single exclusive slot.
// Acquisition never blocks; contenders fail fast instead of queueing.
// The holder is not tracked, so Release is unconditional.
type Gate struct {
	held atomic.Int32
}

// TryAcquire claims the slot. It returns false, with no side effects,
// if the slot is already held.
func (g *Gate) TryAcquire() bool {
	return g.held.CompareAndSwap(gateFree, gateHeld)
}

// Release frees the slot. Releasing an already-free gate is a no-op.
func (g *Gate) Release() {
	g.held.Store(gateFree)
}
