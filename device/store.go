package device

import (
	"sync/atomic"
)

// MaxPattern is the capacity of the pattern store, in bytes. The stored
// pattern is always strictly shorter than MaxPattern.
const MaxPattern = 1024

// Snapshot is one immutable version of the pattern. A snapshot taken
// before a concurrent Replace keeps observing the old bytes; it never
// sees a torn mix of versions.
type Snapshot struct {
	data []byte
}

// Size returns the pattern length in bytes.
func (snap Snapshot) Size() int {
	return len(snap.data)
}

// Bytes returns the pattern bytes. Callers must not modify the
// returned slice.
func (snap Snapshot) Bytes() []byte {
	return snap.data
}

// Store holds the current pattern. Replace publishes a fresh immutable
// snapshot with a single atomic pointer swap, so readers and the writer
// never contend on a lock.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// Replace stores min(len(p), MaxPattern-1) bytes of p as the new
// pattern, truncating silently, and returns the accepted length.
func (st *Store) Replace(p []byte) (accepted int) {
	accepted = len(p)
	if accepted >= MaxPattern {
		accepted = MaxPattern - 1
	}

	snap := &Snapshot{data: append([]byte(nil), p[:accepted]...)}
	st.current.Store(snap)

	return
}

// Snapshot returns the current pattern version. The zero Store yields
// an empty snapshot.
func (st *Store) Snapshot() Snapshot {
	snap := st.current.Load()
	if snap == nil {
		return Snapshot{}
	}
	return *snap
}
