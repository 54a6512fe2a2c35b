package server

import (
	"github.com/ezrec/patdev/translate"
)

var f = translate.From

// Registration steps, in creation order.
const (
	StepControl = "control"
	StepData    = "data"
)

// RegisterError reports which registration step failed during startup.
// Earlier registrations have already been unwound by the time it is
// returned.
type RegisterError struct {
	Step string
	Err  error
}

func (err *RegisterError) Error() string {
	return f("register %v endpoint: %v", err.Step, err.Err)
}

func (err *RegisterError) Unwrap() error {
	return err.Err
}

func (err *RegisterError) Is(target error) (ok bool) {
	_, ok = target.(*RegisterError)
	return
}
