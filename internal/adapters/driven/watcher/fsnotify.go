// Package watcher provides raw directory events backed by fsnotify.
package watcher

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.EventSource = (*Source)(nil)

// eventBuffer bounds how many translated events may queue per stream.
const eventBuffer = 128

// Source opens fsnotify subscriptions.
type Source struct{}

// New creates an fsnotify event source.
func New() *Source {
	return &Source{}
}

// Watch subscribes non-recursively to path.
func (s *Source) Watch(path string) (driven.EventStream, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("add watch %s: %w", path, err)
	}

	st := &stream{
		watcher: w,
		events:  make(chan driven.FileEvent, eventBuffer),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go st.pump()
	return st, nil
}

// stream translates fsnotify events until closed.
type stream struct {
	watcher *fsnotify.Watcher
	events  chan driven.FileEvent
	errs    chan error
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (s *stream) Events() <-chan driven.FileEvent { return s.events }

func (s *stream) Errors() <-chan error { return s.errs }

// Close stops the subscription. It is idempotent.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.watcher.Close()
	})
	return s.closeErr
}

func (s *stream) pump() {
	defer close(s.events)
	defer close(s.errs)

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			fe, ok := convertEvent(ev)
			if !ok {
				continue
			}
			select {
			case s.events <- fe:
			case <-s.done:
				return
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// Errors are advisory; drop when the consumer is behind.
			select {
			case s.errs <- err:
			default:
			}
		}
	}
}

// convertEvent maps an fsnotify event to a raw file event. Combined
// operations resolve to the most significant one.
func convertEvent(ev fsnotify.Event) (driven.FileEvent, bool) {
	var op driven.FileEventOp
	switch {
	case ev.Has(fsnotify.Create):
		op = driven.OpCreate
	case ev.Has(fsnotify.Write):
		op = driven.OpWrite
	case ev.Has(fsnotify.Remove):
		op = driven.OpRemove
	case ev.Has(fsnotify.Rename):
		op = driven.OpRename
	case ev.Has(fsnotify.Chmod):
		op = driven.OpChmod
	default:
		return driven.FileEvent{}, false
	}
	return driven.FileEvent{Path: ev.Name, Op: op}, true
}
