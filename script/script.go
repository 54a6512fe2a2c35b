// Package script runs Starlark scenarios against a device. A scenario
// drives both access points from one file, for reproducible exercising
// of the device without sockets:
//
//	write("abc")
//	open_data()
//	print(read(8))
//	close_data()
//
// Builtins: write(s), pattern(), pattern_size(), open_data(), read(n),
// data_write(s), close_data(). MAX_PATTERN is predeclared.
package script

import (
	"fmt"
	"io"
	"os"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/patdev/device"
)

// Runner executes scenarios against a single device. At most one data
// session is driven at a time; any session left open when a scenario
// ends is closed.
type Runner struct {
	Device *device.Device
	Output io.Writer // Destination for print(); defaults to os.Stdout.

	sess *device.Session
}

// NewRunner creates a runner for dev.
func NewRunner(dev *device.Device) (run *Runner) {
	run = &Runner{Device: dev}
	return
}

// Run executes one scenario. The name is used in Starlark backtraces;
// src may be a string, []byte, or io.Reader, or nil to read the named
// file.
func (run *Runner) Run(name string, src any) (err error) {
	output := run.Output
	if output == nil {
		output = os.Stdout
	}

	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(output, msg)
		},
	}
	opts := &syntax.FileOptions{}
	pred := starlark.StringDict{
		"MAX_PATTERN":  starlark.MakeInt(device.MaxPattern),
		"write":        starlark.NewBuiltin("write", run.stWrite),
		"pattern":      starlark.NewBuiltin("pattern", run.stPattern),
		"pattern_size": starlark.NewBuiltin("pattern_size", run.stPatternSize),
		"open_data":    starlark.NewBuiltin("open_data", run.stOpenData),
		"read":         starlark.NewBuiltin("read", run.stRead),
		"data_write":   starlark.NewBuiltin("data_write", run.stDataWrite),
		"close_data":   starlark.NewBuiltin("close_data", run.stCloseData),
	}

	_, err = starlark.ExecFileOptions(opts, thread, name, src, pred)

	if run.sess != nil {
		run.sess.Close()
		run.sess = nil
	}

	return
}

// payloadOf accepts a Starlark string or bytes value.
func payloadOf(value starlark.Value) (data []byte, err error) {
	switch v := value.(type) {
	case starlark.String:
		data = []byte(v)
	case starlark.Bytes:
		data = []byte(v)
	default:
		err = ErrPayloadType(value.Type())
	}
	return
}

// write(s): replace the pattern; returns the reported length.
func (run *Runner) stWrite(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs("write", args, kwargs, 1, &value); err != nil {
		return nil, err
	}
	data, err := payloadOf(value)
	if err != nil {
		return nil, err
	}

	n, _ := run.Device.OpenControl().Write(data)
	return starlark.MakeInt(n), nil
}

// pattern(): the stored pattern, as bytes.
func (run *Runner) stPattern(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs("pattern", args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.Bytes(run.Device.Pattern().Bytes()), nil
}

// pattern_size(): the stored pattern length.
func (run *Runner) stPatternSize(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs("pattern_size", args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeInt(run.Device.Pattern().Size()), nil
}

// open_data(): True if the exclusive session was claimed, False if busy.
func (run *Runner) stOpenData(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs("open_data", args, kwargs, 0); err != nil {
		return nil, err
	}
	if run.sess != nil {
		// The scenario already holds the session.
		return starlark.Bool(false), nil
	}

	sess, err := run.Device.OpenData()
	if err != nil {
		return starlark.Bool(false), nil
	}
	run.sess = sess
	return starlark.Bool(true), nil
}

// read(n): n bytes of the repeating pattern, or empty if no pattern.
func (run *Runner) stRead(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var length int
	if err := starlark.UnpackPositionalArgs("read", args, kwargs, 1, &length); err != nil {
		return nil, err
	}
	if run.sess == nil {
		return nil, ErrNoSession
	}
	if length < 0 {
		return nil, ErrBadLength(length)
	}

	out := make([]byte, length)
	n, err := run.sess.Read(out)
	if err == io.EOF {
		n = 0
	} else if err != nil {
		return nil, err
	}
	return starlark.Bytes(out[:n]), nil
}

// data_write(s): the accept-and-discard data write; returns the
// reported length.
func (run *Runner) stDataWrite(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs("data_write", args, kwargs, 1, &value); err != nil {
		return nil, err
	}
	data, err := payloadOf(value)
	if err != nil {
		return nil, err
	}
	if run.sess == nil {
		return nil, ErrNoSession
	}

	n, _ := run.sess.Write(data)
	return starlark.MakeInt(n), nil
}

// close_data(): release the session; a no-op if none is open.
func (run *Runner) stCloseData(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs("close_data", args, kwargs, 0); err != nil {
		return nil, err
	}
	if run.sess != nil {
		run.sess.Close()
		run.sess = nil
	}
	return starlark.None, nil
}
