package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sorta/internal/config"
	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// mockOrganiser is a mock implementation of driving.OrganiserService.
type mockOrganiser struct {
	entry    *domain.ActivityEntry
	err      error
	requests []driving.RelocateRequest
	undoneAt time.Time
	undoLast bool
	batch    []driving.BatchItem
	paths    []string
	conc     int
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
	return driving.Outcome{Observation: obs}
}

func (m *mockOrganiser) ClassifyBatch(
	_ context.Context, paths []string, _ []string, concurrency int,
) ([]driving.BatchItem, error) {
	m.paths = paths
	m.conc = concurrency
	return m.batch, m.err
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

func (m *mockClassify) Classify(context.Context, domain.ClassificationRequest) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "classify")
	return m.result, nil
}

func (m *mockClassify) ClassifyFilename(_ context.Context, name string, _ []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "filename:"+name)
	return m.result, nil
}

func (m *mockClassify) ClassifyImage(context.Context, string, []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "vision")
	return m.result, nil
}

func (m *mockClassify) ClassifyOCR(context.Context, string, []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "ocr")
	return m.result, nil
}

func (m *mockClassify) ClassifyContent(context.Context, string, []string) (*domain.ClassificationResult, error) {
	m.calls = append(m.calls, "content")
	return m.result, nil
}

// mockRelocation is a mock implementation of the trash half of
// driving.RelocationService.
type mockRelocation struct {
	driving.RelocationService
	trashed string
	err     error
}

func (m *mockRelocation) Trash(path string) (string, error) {
	m.trashed = path
	return "/trash/files/" + path, m.err
}

// mockBrowse is a mock implementation of driving.BrowseService.
type mockBrowse struct {
	folders []domain.FolderEntry
	files   []domain.FileEntry
	preview *domain.Preview
	hash    string
	dupes   []string
	err     error
}

func (m *mockBrowse) ScanFolders(string, bool, int) ([]domain.FolderEntry, error) {
	return m.folders, m.err
}

func (m *mockBrowse) ScanFiles(string) ([]domain.FileEntry, error) {
	return m.files, m.err
}

func (m *mockBrowse) Preview(context.Context, string) (*domain.Preview, error) {
	return m.preview, m.err
}

func (m *mockBrowse) Hash(string) (string, error) {
	return m.hash, m.err
}

func (m *mockBrowse) FindDuplicates(string, string) ([]string, error) {
	return m.dupes, m.err
}

// mockHistory is a mock implementation of driving.HistoryService.
type mockHistory struct {
	corrections []domain.Correction
	activity    []domain.ActivityEntry
	rules       []domain.Rule
	cleared     string
	imported    driving.Export
	deleted     int64
	limit       int
	err         error
}

func (m *mockHistory) ListCorrections(_ context.Context, limit int) ([]domain.Correction, error) {
	m.limit = limit
	return m.corrections, m.err
}

func (m *mockHistory) ListActivity(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	m.limit = limit
	return m.activity, m.err
}

func (m *mockHistory) ClearCorrections(context.Context) error {
	m.cleared = "corrections"
	return m.err
}

func (m *mockHistory) ClearActivity(context.Context) error {
	m.cleared = "activity"
	return m.err
}

func (m *mockHistory) Export(context.Context) (*driving.Export, error) {
	return &driving.Export{Corrections: m.corrections, Activity: m.activity}, m.err
}

func (m *mockHistory) Import(_ context.Context, data driving.Export) (*driving.ImportResult, error) {
	m.imported = data
	return &driving.ImportResult{Corrections: len(data.Corrections), Activity: len(data.Activity)}, m.err
}

func (m *mockHistory) Stats(context.Context) (*domain.HistoryStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return domain.ComputeStats(m.corrections, m.activity), nil
}

func (m *mockHistory) ListRules(context.Context) ([]domain.Rule, error) {
	return m.rules, m.err
}

func (m *mockHistory) AddRule(_ context.Context, pattern, folder string) (*domain.Rule, error) {
	return &domain.Rule{ID: 7, Pattern: pattern, TargetFolder: folder}, m.err
}

func (m *mockHistory) DeleteRule(_ context.Context, id int64) error {
	m.deleted = id
	return m.err
}

// mockCredential is a mock implementation of driving.CredentialService.
type mockCredential struct {
	key     string
	cleared bool
}

func (m *mockCredential) APIKey(context.Context) (string, error) { return m.key, nil }

func (m *mockCredential) SetAPIKey(_ context.Context, key string) error {
	m.key = key
	return nil
}

func (m *mockCredential) ClearAPIKey(context.Context) error {
	m.key = ""
	m.cleared = true
	return nil
}

func (m *mockCredential) Masked(context.Context) string {
	if m.key == "" {
		return ""
	}
	return "sk-...1234"
}

// testMocks gives tests access to the mocks installed by setupTestServices.
type testMocks struct {
	organiser  *mockOrganiser
	cascade    *mockCascade
	classify   *mockClassify
	relocation *mockRelocation
	browse     *mockBrowse
	history    *mockHistory
	credential *mockCredential
}

var mocks *testMocks

// setupTestServices installs mock services and returns a cleanup that
// removes them and resets every flag.
func setupTestServices() func() {
	mocks = &testMocks{
		organiser: &mockOrganiser{entry: &domain.ActivityEntry{
			Filename:   "notes.pdf",
			FromFolder: "/in",
			ToFolder:   "/lib/ML",
			CreatedAt:  time.UnixMilli(1700000000123),
		}},
		cascade: &mockCascade{result: &domain.ClassificationResult{
			IsRelevant:      true,
			SuggestedFolder: "ML",
			Confidence:      0.92,
			Reasoning:       "lecture slides",
			Source:          domain.SourceFilename,
		}},
		classify: &mockClassify{result: &domain.ClassificationResult{
			IsRelevant: true, SuggestedFolder: "Physics", Confidence: 0.8,
		}},
		relocation: &mockRelocation{},
		browse:     &mockBrowse{},
		history:    &mockHistory{},
		credential: &mockCredential{},
	}

	c := config.Default()
	c.Library.Root = "/lib"
	c.Library.Folders = []string{"ML", "Physics"}

	services = &Services{
		Organiser:  mocks.organiser,
		Cascade:    mocks.cascade,
		Classify:   mocks.classify,
		Relocation: mocks.relocation,
		Browse:     mocks.browse,
		History:    mocks.history,
		Credential: mocks.credential,
		Config:     &c,
	}

	return func() {
		services = nil
		mocks = nil
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag of cmd and its sub-commands to its default
// so one Execute does not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
