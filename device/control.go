package device

import (
	"io"
	"log"
)

// Control is one opening of the control access point. Each opening
// carries its own read offset, which starts at 0 and reaches
// end-of-pattern after one successful read; the offset resets only by
// opening a new Control.
type Control struct {
	dev    *Device
	offset int
}

var _ Channel = (*Control)(nil)

// OpenControl opens the control access point. Opening always succeeds;
// the control side has no exclusivity.
func (dev *Device) OpenControl() *Control {
	return &Control{dev: dev}
}

// Read copies the current pattern into p exactly once per opening.
// Reads after the offset has reached end-of-pattern return io.EOF, as
// does any read of an empty pattern.
func (ctl *Control) Read(p []byte) (n int, err error) {
	snap := ctl.dev.store.Snapshot()

	if ctl.offset > 0 || snap.Size() == 0 {
		err = io.EOF
		return
	}

	n = copy(p, snap.Bytes())
	ctl.offset += n

	return
}

// Write replaces the pattern with p, truncated to MaxPattern-1 bytes.
// The full requested length is reported back regardless of truncation;
// the read offset advances by the accepted amount only.
func (ctl *Control) Write(p []byte) (n int, err error) {
	accepted := ctl.dev.store.Replace(p)
	ctl.offset += accepted

	log.Printf("patdev: control write %q", p[:accepted])

	n = len(p)
	return
}

// Close releases the control opening. Nothing is held, so it always
// succeeds.
func (ctl *Control) Close() error {
	return nil
}
