package device

import (
	"io"
	"log"

	"github.com/google/uuid"
)

// Session is one exclusive opening of the data access point, from
// OpenData to Close.
type Session struct {
	// ID identifies the session in log output.
	ID string

	dev *Device
}

var _ Channel = (*Session)(nil)

// OpenData opens the data access point. It returns ErrBusy, with no
// side effects, if another session already holds it.
func (dev *Device) OpenData() (sess *Session, err error) {
	if !dev.gate.TryAcquire() {
		err = ErrBusy
		return
	}

	sess = &Session{
		ID:  uuid.NewString(),
		dev: dev,
	}

	return
}

// Read fills all of p with the repeating pattern and returns len(p).
// An empty pattern reads as immediate end-of-stream. Each call projects
// against a fresh snapshot and starts over at pattern index 0.
func (sess *Session) Read(p []byte) (n int, err error) {
	snap := sess.dev.store.Snapshot()

	if snap.Size() == 0 {
		err = io.EOF
		return
	}

	n = snap.Project(p)
	return
}

// Write accepts and discards p, reporting full success. Writes belong
// on the control access point; a notice is logged instead of failing,
// since callers may treat a write error here as fatal.
func (sess *Session) Write(p []byte) (n int, err error) {
	log.Print(f("patdev: writes are not supported here; use the control access point"))
	n = len(p)
	return
}

// Close frees the session slot for the next opener. It always succeeds
// and is idempotent; the gate does not track its holder.
func (sess *Session) Close() error {
	sess.dev.gate.Release()
	return nil
}
