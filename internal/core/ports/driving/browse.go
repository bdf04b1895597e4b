package driving

import (
	"context"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// BrowseService inspects folders and files without changing them.
type BrowseService interface {
	ScanFolders(root string, recursive bool, maxDepth int) ([]domain.FolderEntry, error)
	ScanFiles(dir string) ([]domain.FileEntry, error)
	Preview(ctx context.Context, path string) (*domain.Preview, error)
	Hash(path string) (string, error)
	FindDuplicates(path, destFolder string) ([]string, error)
}
