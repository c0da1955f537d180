// Package watch implements the spec directory watcher (component C9): it
// notices when a .toml spec file is created, written, or removed under a
// directory and reports the affected device name, so long-running tools
// (doc servers, bus bridges) can re-resolve it without a restart. The
// package itself does not load or resolve specs.
//
// Grounded on the teacher's internal/runtime/vfs FSNotifyWatcher: the
// same fsnotify event-to-channel translation, generalized from arbitrary
// filesystem events to "a spec changed, reload it".
package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Op classifies what happened to a spec file.
type Op int

const (
	OpChanged Op = iota
	OpRemoved
)

// Event names one spec file change. Name is the device name the file
// implies (its basename without the .toml extension), lowercased.
type Event struct {
	Name string
	Path string
	Op   Op
}

// Watcher watches a directory of *.toml device specs for changes.
type Watcher struct {
	w    *fsnotify.Watcher
	evC  chan Event
	erC  chan error
	done chan struct{}
}

// New starts watching dir. Callers must call Close when done.
func New(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		w:    fw,
		evC:  make(chan Event, 64),
		erC:  make(chan error, 1),
		done: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".toml") {
				continue
			}
			name := strings.ToLower(strings.TrimSuffix(filepath.Base(ev.Name), filepath.Ext(ev.Name)))

			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.evC <- Event{Name: name, Path: ev.Name, Op: OpRemoved}
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.evC <- Event{Name: name, Path: ev.Name, Op: OpChanged}
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.erC <- err
		}
	}
}

// Events returns the channel of spec-file change notifications.
func (w *Watcher) Events() <-chan Event { return w.evC }

// Errors returns the channel of underlying filesystem watch errors.
func (w *Watcher) Errors() <-chan error { return w.erC }

// Close stops the watcher and releases its OS handle.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}
