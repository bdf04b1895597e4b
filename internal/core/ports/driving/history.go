package driving

import (
	"context"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// Export is the portable form of the ledger's history.
type Export struct {
	Corrections []domain.Correction    `json:"corrections"`
	Activity    []domain.ActivityEntry `json:"activity"`
}

// ImportResult reports how many records an import added.
type ImportResult struct {
	Corrections int `json:"corrections"`
	Activity    int `json:"activity"`
}

// HistoryService exposes the ledger's corrections, activity and rules.
type HistoryService interface {
	ListCorrections(ctx context.Context, limit int) ([]domain.Correction, error)
	ListActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
	ClearCorrections(ctx context.Context) error
	ClearActivity(ctx context.Context) error
	Export(ctx context.Context) (*Export, error)
	Import(ctx context.Context, data Export) (*ImportResult, error)
	Stats(ctx context.Context) (*domain.HistoryStats, error)

	ListRules(ctx context.Context) ([]domain.Rule, error)
	AddRule(ctx context.Context, pattern, targetFolder string) (*domain.Rule, error)
	DeleteRule(ctx context.Context, id int64) error
}
