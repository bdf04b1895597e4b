package driving

import "github.com/custodia-labs/sorta/internal/core/domain"

// RelocationService moves, renames, restores and trashes files.
type RelocationService interface {
	Move(src, destFolder string) (*domain.MoveResult, error)
	MoveWithAutoRename(src, destFolder string) (*domain.MoveResult, error)
	Replace(src, destFolder string) (*domain.MoveResult, error)
	RenameInPlace(src, newName string) (*domain.MoveResult, error)
	RenameAndMove(src, newName, destFolder string) (*domain.MoveResult, error)
	Undo(movedPath, originalFolder string) (*domain.MoveResult, error)
	UndoAs(movedPath, originalFolder, originalName string) (*domain.MoveResult, error)

	// Trash moves path to the platform trash and returns its new location.
	Trash(path string) (string, error)
}
