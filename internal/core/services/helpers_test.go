package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// mockBackend is a test double for ClassifierBackend. It returns queued
// responses in order, repeating the last one.
type mockBackend struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []driven.CompletionRequest
}

func newMockBackend(responses ...string) *mockBackend {
	return &mockBackend{responses: responses}
}

func (m *mockBackend) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.calls)
	m.calls = append(m.calls, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockBackend) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1].Prompt
}

// mockFactory hands out a fixed backend or error.
type mockFactory struct {
	backend driven.ClassifierBackend
	err     error
}

func (f *mockFactory) Backend(context.Context) (driven.ClassifierBackend, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.backend, nil
}

// recordingGate admits everyone and records backoffs.
type recordingGate struct {
	mu       sync.Mutex
	waits    int
	backoffs []time.Duration
	err      error
}

func (g *recordingGate) Wait(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waits++
	return g.err
}

func (g *recordingGate) Backoff(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.backoffs = append(g.backoffs, d)
}

// mockExtractor returns fixed text for the given extensions.
type mockExtractor struct {
	exts  []string
	text  string
	err   error
	calls int
}

func (m *mockExtractor) Extract(context.Context, string) (string, error) {
	m.calls++
	return m.text, m.err
}

func (m *mockExtractor) Supports(ext string) bool {
	for _, e := range m.exts {
		if e == ext {
			return true
		}
	}
	return false
}

// faultyFs wraps an afero.Fs and fails renames whose destination has one
// of the given prefixes.
type faultyFs struct {
	afero.Fs
	mu        sync.Mutex
	failTo    []string
	renameErr error
}

func (f *faultyFs) Rename(oldname, newname string) error {
	f.mu.Lock()
	failTo := f.failTo
	renameErr := f.renameErr
	f.mu.Unlock()
	for _, p := range failTo {
		if strings.HasPrefix(newname, p) {
			if renameErr != nil {
				return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: renameErr}
			}
			return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errors.New("injected")}
		}
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *faultyFs) failRenamesTo(prefixes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failTo = prefixes
}

const (
	confidentML = `{"is_relevant": true, "folder": "ML", "confidence": 0.95, "reasoning": "machine learning"}`
	unsureML    = `{"is_relevant": true, "folder": "ML", "confidence": 0.4, "reasoning": "maybe"}`
	irrelevant  = `{"is_relevant": false, "folder": "", "confidence": 0, "reasoning": "meme"}`
	confidentDB = `{"is_relevant": true, "folder": "Databases", "confidence": 0.9, "reasoning": "SQL lecture"}`
)
