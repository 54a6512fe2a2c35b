// Package device implements the repeating-pattern device. A pattern is
// stored through the control access point and replayed as an endless
// repeating byte stream through the data access point, which admits a
// single exclusive session at a time.
package device

import (
	"io"
)

// Channel is one opening of a device access point.
type Channel interface {
	io.ReadWriteCloser
}

// Device is the process-wide state cell behind both access points: one
// pattern store and one session gate. It is constructed once and shared
// by reference; both channel adapters operate on the same Device.
type Device struct {
	store Store
	gate  Gate
}

// New creates a new device with an empty pattern and a free session slot.
func New() (dev *Device) {
	dev = &Device{}
	return
}

// Pattern returns a read-consistent view of the current pattern.
func (dev *Device) Pattern() Snapshot {
	return dev.store.Snapshot()
}
