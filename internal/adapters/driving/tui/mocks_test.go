package tui

import (
	"context"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

type mockOrganiser struct {
	entry    *domain.ActivityEntry
	requests []driving.RelocateRequest
}

func (m *mockOrganiser) Relocate(_ context.Context, req driving.RelocateRequest) (*domain.ActivityEntry, error) {
	m.requests = append(m.requests, req)
	return m.entry, nil
}

func (m *mockOrganiser) Undo(context.Context, time.Time) (*domain.ActivityEntry, error) {
	return m.entry, nil
}

func (m *mockOrganiser) UndoLast(context.Context) (*domain.ActivityEntry, error) {
	return m.entry, nil
}

func (m *mockOrganiser) ProcessObservation(
	_ context.Context, obs domain.FileObservation, _ []string, _ driving.ProcessOptions,
) driving.Outcome {
	return driving.Outcome{Observation: obs}
}

func (m *mockOrganiser) ClassifyBatch(context.Context, []string, []string, int) ([]driving.BatchItem, error) {
	return nil, nil
}

type mockCascade struct {
	result *domain.ClassificationResult
}

func (m *mockCascade) Cascade(context.Context, string, []string) (*domain.ClassificationResult, error) {
	return m.result, nil
}

type mockBrowse struct {
	files []domain.FileEntry
}

func (m *mockBrowse) ScanFolders(string, bool, int) ([]domain.FolderEntry, error) { return nil, nil }
func (m *mockBrowse) ScanFiles(string) ([]domain.FileEntry, error)                { return m.files, nil }
func (m *mockBrowse) Hash(string) (string, error)                                 { return "", nil }
func (m *mockBrowse) FindDuplicates(string, string) ([]string, error)             { return nil, nil }

func (m *mockBrowse) Preview(context.Context, string) (*domain.Preview, error) {
	return &domain.Preview{Kind: domain.PreviewNone}, nil
}

func newTestPorts() (*Ports, *mockOrganiser) {
	org := &mockOrganiser{}
	return &Ports{
		Organiser: org,
		Cascade: &mockCascade{result: &domain.ClassificationResult{
			IsRelevant: true, SuggestedFolder: "ML", Confidence: 0.95,
		}},
		Browse: &mockBrowse{files: []domain.FileEntry{
			{Name: "lecture.pdf", Path: "/in/lecture.pdf"},
		}},
		Folders:     []string{"ML", "Physics"},
		LibraryRoot: "/lib",
		Dir:         "/in",
	}, org
}
