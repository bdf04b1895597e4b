package cli

import (
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// absPaths rewrites each non-empty path as an absolute one, resolved
// against the working directory.
func absPaths(paths ...*string) error {
	for _, p := range paths {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidPath, *p, err)
		}
		*p = abs
	}
	return nil
}
