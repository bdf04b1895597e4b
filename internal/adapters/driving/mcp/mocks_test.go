package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// mockOrganiser is a mock implementation of driving.OrganiserService.
type mockOrganiser struct {
	entry    *domain.ActivityEntry
	outcome  driving.Outcome
	err      error
	requests []driving.RelocateRequest
	undoneAt time.Time
	undoLast bool
}

func (m *mockOrganiser) Relocate(_ context.Context, req driving.RelocateRequest) (*domain.ActivityEntry, error) {
	m.requests = append(m.requests, req)
	return m.entry, m.err
}

func (m *mockOrganiser) Undo(_ context.Context, at time.Time) (*domain.ActivityEntry, error) {
	m.undoneAt = at
	return m.entry, m.err
}

func (m *mockOrganiser) UndoLast(_ context.Context) (*domain.ActivityEntry, error) {
	m.undoLast = true
	return m.entry, m.err
}

func (m *mockOrganiser) ProcessObservation(
	_ context.Context, obs domain.FileObservation, _ []string, _ driving.ProcessOptions,
) driving.Outcome {
	out := m.outcome
	out.Observation = obs
	return out
}

func (m *mockOrganiser) ClassifyBatch(
	_ context.Context, _ []string, _ []string, _ int,
) ([]driving.BatchItem, error) {
	return nil, m.err
}

// mockCascade is a mock implementation of driving.CascadeService.
type mockCascade struct {
	result  *domain.ClassificationResult
	err     error
	folders []string
}

func (m *mockCascade) Cascade(_ context.Context, _ string, folders []string) (*domain.ClassificationResult, error) {
	m.folders = folders
	return m.result, m.err
}

// mockClassify is a mock implementation of driving.ClassifyService.
type mockClassify struct {
	result *domain.ClassificationResult
	calls  []string
}

func (m *mockClassify) Classify(_ context.Context, _ domain.ClassificationRequest) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "classify")
	return m.result, nil
}

func (m *mockClassify) ClassifyFilename(_ context.Context, name string, _ []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "filename:"+name)
	return m.result, nil
}

func (m *mockClassify) ClassifyImage(_ context.Context, _ string, _ []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "vision")
	return m.result, nil
}

func (m *mockClassify) ClassifyOCR(_ context.Context, _ string, _ []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "ocr")
	return m.result, nil
}

func (m *mockClassify) ClassifyContent(_ context.Context, _ string, _ []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "content")
	return m.result, nil
}

// mockRelocation is a mock implementation of driving.RelocationService.
type mockRelocation struct {
	trashed   string
	trashedTo string
	err       error
}

func (m *mockRelocation) Move(string, string) (*domain.MoveResult, error)               { return nil, m.err }
func (m *mockRelocation) MoveWithAutoRename(string, string) (*domain.MoveResult, error) { return nil, m.err }
func (m *mockRelocation) Replace(string, string) (*domain.MoveResult, error)            { return nil, m.err }
func (m *mockRelocation) RenameInPlace(string, string) (*domain.MoveResult, error)      { return nil, m.err }
func (m *mockRelocation) RenameAndMove(string, string, string) (*domain.MoveResult, error) {
	return nil, m.err
}
func (m *mockRelocation) Undo(string, string) (*domain.MoveResult, error) { return nil, m.err }
func (m *mockRelocation) UndoAs(string, string, string) (*domain.MoveResult, error) {
	return nil, m.err
}
func (m *mockRelocation) Trash(path string) (string, error) {
	m.trashed = path
	return m.trashedTo, m.err
}

// mockWatch is a mock implementation of driving.WatchService.
type mockWatch struct {
	mu    sync.Mutex
	sink  func(domain.FileObservation)
	state domain.WatchState
	path  string
	err   error
	stops int
}

func (m *mockWatch) Start(path string, sink func(domain.FileObservation)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sink = sink
	m.state = domain.WatchWatching
	m.path = path
	return nil
}

func (m *mockWatch) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.state = domain.WatchIdle
	m.path = ""
}

func (m *mockWatch) Status() domain.WatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	if state == "" {
		state = domain.WatchIdle
	}
	return domain.WatchStatus{State: state, Path: m.path}
}

// mockBrowse is a mock implementation of driving.BrowseService.
type mockBrowse struct {
	folders []domain.FolderEntry
	files   []domain.FileEntry
	preview *domain.Preview
	err     error
	dir     string
}

func (m *mockBrowse) ScanFolders(string, bool, int) ([]domain.FolderEntry, error) {
	return m.folders, m.err
}

func (m *mockBrowse) ScanFiles(dir string) ([]domain.FileEntry, error) {
	m.dir = dir
	return m.files, m.err
}

func (m *mockBrowse) Preview(context.Context, string) (*domain.Preview, error) {
	return m.preview, m.err
}

func (m *mockBrowse) Hash(string) (string, error) { return "", m.err }

func (m *mockBrowse) FindDuplicates(string, string) ([]string, error) { return nil, m.err }

// mockHistory is a mock implementation of driving.HistoryService.
type mockHistory struct {
	corrections []domain.Correction
	activity    []domain.ActivityEntry
	rules       []domain.Rule
	err         error
	limit       int
	deleted     int64
}

func (m *mockHistory) ListCorrections(_ context.Context, limit int) ([]domain.Correction, error) {
	m.limit = limit
	return m.corrections, m.err
}

func (m *mockHistory) ListActivity(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	m.limit = limit
	return m.activity, m.err
}

func (m *mockHistory) ClearCorrections(context.Context) error { return m.err }
func (m *mockHistory) ClearActivity(context.Context) error    { return m.err }

func (m *mockHistory) Export(context.Context) (*driving.Export, error) {
	return &driving.Export{}, m.err
}

func (m *mockHistory) Import(context.Context, driving.Export) (*driving.ImportResult, error) {
	return &driving.ImportResult{}, m.err
}

func (m *mockHistory) Stats(context.Context) (*domain.HistoryStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return domain.ComputeStats(m.corrections, m.activity), nil
}

func (m *mockHistory) ListRules(context.Context) ([]domain.Rule, error) { return m.rules, m.err }

func (m *mockHistory) AddRule(_ context.Context, pattern, folder string) (*domain.Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Rule{ID: 7, Pattern: pattern, TargetFolder: folder}, nil
}

func (m *mockHistory) DeleteRule(_ context.Context, id int64) error {
	m.deleted = id
	return m.err
}

// newTestPorts returns ports with every service mocked.
func newTestPorts() *Ports {
	return &Ports{
		Organiser:  &mockOrganiser{},
		Cascade:    &mockCascade{},
		Classify:   &mockClassify{},
		Relocation: &mockRelocation{},
		Watch:      &mockWatch{},
		Browse:     &mockBrowse{},
		History:    &mockHistory{},
		Folders:    func() []string { return []string{"ML", "Physics"} },
	}
}
