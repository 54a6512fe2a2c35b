package script

import (
	"errors"

	"github.com/ezrec/patdev/translate"
)

var f = translate.From

var (
	// Scenario errors
	ErrNoSession = errors.New(f("no data session open"))
)

type ErrPayloadType string

func (err ErrPayloadType) Error() string {
	return f("%v is not a string or bytes", string(err))
}

type ErrBadLength int

func (err ErrBadLength) Error() string {
	return f("read length %d is negative", int(err))
}
