package services

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// observationBuffer is how many stabilised files may queue for the sink.
const observationBuffer = 64

// DefaultIgnoreSuffixes are partial-download extensions never reported.
var DefaultIgnoreSuffixes = []string{".crdownload", ".part", ".partial", ".download", ".tmp"}

// StopToken is a one-shot cancellation signal shared between a controller
// and a worker. Stopped can be polled; Done can be selected on.
type StopToken struct {
	stopped atomic.Bool
	once    sync.Once
	wake    chan struct{}
}

// NewStopToken creates an unsignalled token.
func NewStopToken() *StopToken {
	return &StopToken{wake: make(chan struct{})}
}

// Stop signals the token. Safe to call more than once.
func (t *StopToken) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.wake)
	})
}

// Stopped reports whether Stop has been called.
func (t *StopToken) Stopped() bool {
	return t.stopped.Load()
}

// Done returns a channel closed by Stop.
func (t *StopToken) Done() <-chan struct{} {
	return t.wake
}

// WatchOptions tunes debouncing. Zero fields take defaults.
type WatchOptions struct {
	Debounce       time.Duration
	PollInterval   time.Duration
	IgnoreSuffixes []string
}

// WatchService runs the single directory watch session.
type WatchService struct {
	source   driven.EventSource
	fs       afero.Fs
	debounce time.Duration
	poll     time.Duration
	ignore   []string
	log      *zap.Logger

	mu    sync.Mutex
	state domain.WatchState
	path  string
	since time.Time
	token *StopToken
	done  chan struct{}
}

// NewWatchService creates an idle watch service.
func NewWatchService(source driven.EventSource, fs afero.Fs, opts WatchOptions) *WatchService {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.IgnoreSuffixes == nil {
		opts.IgnoreSuffixes = DefaultIgnoreSuffixes
	}
	ignore := make([]string, 0, len(opts.IgnoreSuffixes))
	for _, s := range opts.IgnoreSuffixes {
		ignore = append(ignore, strings.ToLower(s))
	}
	return &WatchService{
		source:   source,
		fs:       fs,
		debounce: opts.Debounce,
		poll:     opts.PollInterval,
		ignore:   ignore,
		log:      zap.NewNop(),
		state:    domain.WatchIdle,
	}
}

// SetLogger sets the structured logger.
func (s *WatchService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// Start begins watching path, made absolute against the working
// directory. The sink runs on a dedicated goroutine and
// must not call Stop.
func (s *WatchService) Start(path string, sink func(domain.FileObservation)) error {
	if sink == nil {
		return fmt.Errorf("%w: sink is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.WatchIdle {
		return fmt.Errorf("%w: %s", domain.ErrWatchActive, s.path)
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidPath, err)
	}
	info, err := s.fs.Stat(path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return fmt.Errorf("%w: %s", domain.ErrPathNotFound, path)
	case err != nil:
		return fmt.Errorf("%w: %s: %w", domain.ErrIO, path, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", domain.ErrNotDirectory, path)
	}

	stream, err := s.source.Watch(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	token := NewStopToken()
	done := make(chan struct{})
	out := make(chan domain.FileObservation, observationBuffer)

	s.state = domain.WatchWatching
	s.path = path
	s.since = time.Now()
	s.token = token
	s.done = done

	go deliver(out, token, sink)
	go s.run(stream, token, out, done)

	s.log.Info("watch started", zap.String("path", path))
	return nil
}

// Stop ends the session and waits for its worker to exit. Stop on an idle
// service is a no-op.
func (s *WatchService) Stop() {
	s.mu.Lock()
	if s.state != domain.WatchWatching {
		done := s.done
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	s.state = domain.WatchStopRequested
	token, done := s.token, s.done
	s.mu.Unlock()

	token.Stop()
	<-done

	s.mu.Lock()
	s.log.Info("watch stopped", zap.String("path", s.path))
	s.state = domain.WatchIdle
	s.path = ""
	s.since = time.Time{}
	s.token = nil
	s.done = nil
	s.mu.Unlock()
}

// Status reports the session state.
func (s *WatchService) Status() domain.WatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.WatchStatus{State: s.state, Path: s.path, Since: s.since}
}

// deliver hands observations to the sink until out is closed, dropping
// any that arrive after the token is stopped.
func deliver(out <-chan domain.FileObservation, token *StopToken, sink func(domain.FileObservation)) {
	for obs := range out {
		if token.Stopped() {
			continue
		}
		sink(obs)
	}
}

func (s *WatchService) run(
	stream driven.EventStream, token *StopToken, out chan<- domain.FileObservation, done chan<- struct{},
) {
	defer close(done)
	defer close(out)
	defer func() {
		if err := stream.Close(); err != nil {
			s.log.Warn("closing event stream", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	events := stream.Events()
	errs := stream.Errors()

	for !token.Stopped() {
		select {
		case <-token.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.log.Warn("event stream closed")
				events = nil
				continue
			}
			s.observe(pending, ev, time.Now())
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.log.Warn("watch error", zap.Error(err))
		case now := <-ticker.C:
			s.flush(pending, now, out, token)
		}
	}
}

// observe updates the pending set for one raw event.
func (s *WatchService) observe(pending map[string]time.Time, ev driven.FileEvent, now time.Time) {
	if !filepath.IsAbs(ev.Path) {
		abs, err := filepath.Abs(ev.Path)
		if err != nil {
			return
		}
		ev.Path = abs
	}
	if s.skip(filepath.Base(ev.Path)) {
		return
	}
	switch ev.Op {
	case driven.OpCreate:
		pending[ev.Path] = now
	case driven.OpWrite:
		if _, ok := pending[ev.Path]; ok {
			pending[ev.Path] = now
		}
	case driven.OpRemove, driven.OpRename:
		delete(pending, ev.Path)
	}
}

// flush emits every pending path that has been quiet for the debounce
// window and is still a regular file.
func (s *WatchService) flush(
	pending map[string]time.Time, now time.Time, out chan<- domain.FileObservation, token *StopToken,
) {
	for path, last := range pending {
		if now.Sub(last) < s.debounce {
			continue
		}
		delete(pending, path)

		info, err := s.fs.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		obs := domain.FileObservation{Path: path, Name: filepath.Base(path), Size: info.Size()}
		s.log.Debug("file stabilised", zap.String("path", path), zap.Int64("size", obs.Size))
		select {
		case out <- obs:
		case <-token.Done():
			return
		}
	}
}

func (s *WatchService) skip(name string) bool {
	if domain.IsHidden(name) {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range s.ignore {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
