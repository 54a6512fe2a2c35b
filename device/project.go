package device

import (
	"io"
	"iter"
)

// Project fills p with the repeating pattern and returns the number of
// bytes produced: len(p) bytes of pattern[i mod Size], or 0 if the
// snapshot is empty. Every call starts over at pattern index 0; there
// is no cursor carried between calls.
func (snap Snapshot) Project(p []byte) (n int) {
	size := len(snap.data)
	if size == 0 {
		return 0
	}

	for i := range p {
		p[i] = snap.data[i%size]
	}

	return len(p)
}

// Repeat returns an iterator that yields the pattern bytes endlessly,
// starting at index 0. An empty snapshot yields nothing.
func (snap Snapshot) Repeat() iter.Seq[byte] {
	return func(yield func(value byte) bool) {
		if len(snap.data) == 0 {
			return
		}
		for {
			for _, value := range snap.data {
				if !yield(value) {
					return
				}
			}
		}
	}
}

// ProjectTo copies n bytes of the repeating pattern to w. A failed
// write aborts immediately with a FaultError; bytes already written
// stay written. An empty snapshot writes nothing.
func (snap Snapshot) ProjectTo(w io.Writer, n int) (written int, err error) {
	size := len(snap.data)
	if size == 0 {
		return
	}

	for written < n {
		chunk := size
		if remain := n - written; chunk > remain {
			chunk = remain
		}

		var sent int
		sent, err = w.Write(snap.data[:chunk])
		written += sent
		if err != nil {
			err = &FaultError{Written: written, Err: err}
			return
		}
	}

	return
}
