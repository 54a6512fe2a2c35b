package server

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ezrec/patdev/device"
)

// Watcher mirrors a pattern file into the device: the file's contents
// seed the pattern and every change to the file is re-applied as a
// control write, with the same truncation and logging.
type Watcher struct {
	dev  *device.Device
	path string
	fsw  *fsnotify.Watcher
}

// WatchPattern applies the file at path to dev and keeps it applied on
// change. The initial apply must succeed; later failures are logged and
// the previous pattern stays in place.
func WatchPattern(dev *device.Device, path string) (w *Watcher, err error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}

	// Watch the directory, not the file; editors typically save by
	// replacing the file, which drops a watch on the file itself.
	if err = fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return
	}

	w = &Watcher{dev: dev, path: path, fsw: fsw}
	if err = w.apply(); err != nil {
		w.Close()
		w = nil
		return
	}

	go w.run()

	return
}

// Close stops watching. The pattern keeps its last applied value.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) apply() (err error) {
	file, err := os.Open(w.path)
	if err != nil {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, device.MaxPattern))
	if err != nil {
		return
	}

	w.dev.OpenControl().Write(data)

	return
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if err := w.apply(); err != nil {
				log.Print(f("patdev: pattern file %v: %v", w.path, err))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Print(f("patdev: pattern watch: %v", err))
		}
	}
}
