package device

import (
	"errors"

	"github.com/ezrec/patdev/translate"
)

var f = translate.From

var (
	// ErrBusy indicates the data access point is held by another session.
	ErrBusy = errors.New(f("device busy"))
)

// FaultError indicates a byte copy to a caller-provided destination
// failed mid-operation. Bytes transferred before the fault stay
// transferred.
type FaultError struct {
	Written int
	Err     error
}

func (err *FaultError) Error() string {
	return f("fault after %d bytes: %v", err.Written, err.Err)
}

func (err *FaultError) Unwrap() error {
	return err.Err
}

func (err *FaultError) Is(target error) (ok bool) {
	_, ok = target.(*FaultError)
	return
}
