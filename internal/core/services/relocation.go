package services

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure RelocationService implements the interface.
var _ driving.RelocationService = (*RelocationService)(nil)

// DefaultMaxRenameAttempts bounds the auto-rename suffix search.
const DefaultMaxRenameAttempts = 9999

// RelocationService moves, renames, restores and trashes files. Every
// operation validates its inputs before touching the filesystem.
type RelocationService struct {
	fs          afero.Fs
	trasher     driven.Trasher
	maxAttempts int
	resolve     func(string) (string, error)
	log         *zap.Logger
}

// NewRelocationService creates a relocation service over fs. Symlinks in
// destination folders are resolved only when fs is the OS filesystem.
func NewRelocationService(fs afero.Fs, trasher driven.Trasher, maxAttempts int) *RelocationService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxRenameAttempts
	}
	s := &RelocationService{
		fs:          fs,
		trasher:     trasher,
		maxAttempts: maxAttempts,
		log:         zap.NewNop(),
	}
	if _, ok := fs.(*afero.OsFs); ok {
		s.resolve = resolveExistingPrefix
	}
	return s
}

// SetLogger sets the structured logger.
func (s *RelocationService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// Move relocates src into destFolder under its current name.
func (s *RelocationService) Move(src, destFolder string) (*domain.MoveResult, error) {
	src, dest, err := s.prepare(src, destFolder)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(dest, filepath.Base(src))
	if target == src {
		return &domain.MoveResult{Source: src, Destination: target}, nil
	}
	if err := s.ensureFree(target); err != nil {
		return nil, err
	}
	return s.relocate(src, dest, target)
}

// MoveWithAutoRename relocates src into destFolder, appending _N to the
// stem when the name is taken.
func (s *RelocationService) MoveWithAutoRename(src, destFolder string) (*domain.MoveResult, error) {
	src, dest, err := s.prepare(src, destFolder)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(src)
	target := filepath.Join(dest, name)
	if target == src {
		return &domain.MoveResult{Source: src, Destination: target}, nil
	}

	taken, err := s.exists(target)
	if err != nil {
		return nil, err
	}
	for n := 1; taken; n++ {
		if n > s.maxAttempts {
			return nil, fmt.Errorf("%w: %s in %s after %d attempts",
				domain.ErrTooManyDuplicates, name, dest, s.maxAttempts)
		}
		target = filepath.Join(dest, numberedName(name, n))
		if taken, err = s.exists(target); err != nil {
			return nil, err
		}
	}
	return s.relocate(src, dest, target)
}

// Replace relocates src into destFolder, removing a regular file that
// already holds the name.
func (s *RelocationService) Replace(src, destFolder string) (*domain.MoveResult, error) {
	src, dest, err := s.prepare(src, destFolder)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(dest, filepath.Base(src))
	if target == src {
		return &domain.MoveResult{Source: src, Destination: target}, nil
	}

	info, err := s.fs.Stat(target)
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidPath, target)
	case err == nil:
		if err := s.fs.Remove(target); err != nil {
			return nil, mapOSError("remove existing", err)
		}
		s.log.Debug("replaced existing file", zap.String("path", target))
	case !errors.Is(err, iofs.ErrNotExist):
		return nil, mapOSError("stat target", err)
	}
	return s.relocate(src, dest, target)
}

// RenameInPlace renames src within its folder. Renaming to the current
// name succeeds without change.
func (s *RelocationService) RenameInPlace(src, newName string) (*domain.MoveResult, error) {
	if err := domain.ValidateFileName(newName); err != nil {
		return nil, err
	}
	src, err := s.sourceFile(src)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(filepath.Dir(src), newName)
	if target == src {
		return &domain.MoveResult{Source: src, Destination: target}, nil
	}
	if err := s.ensureFree(target); err != nil {
		return nil, err
	}
	if err := s.fs.Rename(src, target); err != nil {
		return nil, mapOSError("rename", err)
	}
	s.log.Debug("renamed", zap.String("from", src), zap.String("to", target))
	return &domain.MoveResult{Source: src, Destination: target}, nil
}

// RenameAndMove renames src to newName and moves it into destFolder. If
// the move fails the rename is reversed; if that fails too, both errors
// are returned in a *domain.RollbackError.
func (s *RelocationService) RenameAndMove(src, newName, destFolder string) (*domain.MoveResult, error) {
	if err := domain.ValidateFileName(newName); err != nil {
		return nil, err
	}
	src, dest, err := s.prepare(src, destFolder)
	if err != nil {
		return nil, err
	}
	final := filepath.Join(dest, newName)
	if final == src {
		return &domain.MoveResult{Source: src, Destination: final}, nil
	}
	if err := s.ensureFree(final); err != nil {
		return nil, err
	}

	renamed, err := s.RenameInPlace(src, newName)
	if err != nil {
		return nil, err
	}
	if renamed.Destination == final {
		return &domain.MoveResult{Source: src, Destination: final}, nil
	}

	moved, err := s.Move(renamed.Destination, dest)
	if err != nil {
		if rbErr := s.fs.Rename(renamed.Destination, src); rbErr != nil {
			s.log.Error("rollback failed", zap.String("path", renamed.Destination), zap.Error(rbErr))
			return nil, &domain.RollbackError{Op: err, Rollback: mapOSError("rollback rename", rbErr)}
		}
		s.log.Debug("rolled back rename", zap.String("path", src))
		return nil, err
	}
	return &domain.MoveResult{Source: src, Destination: moved.Destination}, nil
}

// Undo moves a relocated file back into originalFolder under its current
// name.
func (s *RelocationService) Undo(movedPath, originalFolder string) (*domain.MoveResult, error) {
	return s.UndoAs(movedPath, originalFolder, filepath.Base(movedPath))
}

// UndoAs moves a relocated file back into originalFolder as originalName,
// reversing a rename in the same step.
func (s *RelocationService) UndoAs(movedPath, originalFolder, originalName string) (*domain.MoveResult, error) {
	if err := domain.ValidateFileName(originalName); err != nil {
		return nil, err
	}
	movedPath, folder, err := s.prepare(movedPath, originalFolder)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(folder, originalName)
	if target == movedPath {
		return &domain.MoveResult{Source: movedPath, Destination: target}, nil
	}
	if err := s.ensureFree(target); err != nil {
		return nil, err
	}
	return s.relocate(movedPath, folder, target)
}

// Trash soft-deletes path through the platform trasher.
func (s *RelocationService) Trash(path string) (string, error) {
	path, err := s.sourceFile(path)
	if err != nil {
		return "", err
	}
	if s.trasher == nil {
		return "", fmt.Errorf("%w: no trash available", domain.ErrIO)
	}
	loc, err := s.trasher.Trash(path)
	if err != nil {
		return "", mapOSError("trash", err)
	}
	s.log.Debug("trashed", zap.String("path", path), zap.String("location", loc))
	return loc, nil
}

// prepare validates src as an existing regular file and canonicalises
// destFolder.
func (s *RelocationService) prepare(src, destFolder string) (string, string, error) {
	src, err := s.sourceFile(src)
	if err != nil {
		return "", "", err
	}
	dest, err := s.canonicalFolder(destFolder)
	if err != nil {
		return "", "", err
	}
	return src, dest, nil
}

// relocate creates dest and renames src to target, copying across
// devices when a rename is impossible.
func (s *RelocationService) relocate(src, dest, target string) (*domain.MoveResult, error) {
	if err := s.fs.MkdirAll(dest, 0o755); err != nil {
		return nil, mapOSError("create folder", err)
	}
	if err := s.fs.Rename(src, target); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return nil, mapOSError("move", err)
		}
		s.log.Debug("cross-device move, copying", zap.String("from", src), zap.String("to", target))
		if err := s.copyThenRemove(src, target); err != nil {
			return nil, err
		}
	}
	s.log.Debug("moved", zap.String("from", src), zap.String("to", target))
	return &domain.MoveResult{Source: src, Destination: target}, nil
}

func (s *RelocationService) copyThenRemove(src, target string) error {
	info, err := s.fs.Stat(src)
	if err != nil {
		return mapOSError("stat", err)
	}

	in, err := s.fs.Open(src)
	if err != nil {
		return mapOSError("open", err)
	}
	defer in.Close()

	out, err := s.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return mapOSError("create", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = s.fs.Remove(target)
		return mapOSError("copy", err)
	}
	if err := out.Close(); err != nil {
		_ = s.fs.Remove(target)
		return mapOSError("copy", err)
	}

	_ = s.fs.Chmod(target, info.Mode().Perm())
	_ = s.fs.Chtimes(target, info.ModTime(), info.ModTime())

	if err := s.fs.Remove(src); err != nil {
		_ = s.fs.Remove(target)
		return mapOSError("remove source", err)
	}
	return nil
}

// sourceFile validates path and requires an existing regular file.
func (s *RelocationService) sourceFile(path string) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	path = filepath.Clean(path)
	info, err := s.fs.Stat(path)
	if err != nil {
		return "", mapOSError("stat source", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", domain.ErrFileNotFound, path)
	}
	if s.resolve == nil {
		return path, nil
	}
	// Same canonical form as destination folders, so a folder reached
	// through a symlink compares equal to itself.
	dir, err := s.resolve(filepath.Dir(path))
	if err != nil {
		return "", mapOSError("resolve source", err)
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}

// canonicalFolder validates folder and, on the OS filesystem, resolves
// symlinks on its longest existing prefix.
func (s *RelocationService) canonicalFolder(folder string) (string, error) {
	if err := validatePath(folder); err != nil {
		return "", err
	}
	folder = filepath.Clean(folder)
	if s.resolve == nil {
		return folder, nil
	}
	resolved, err := s.resolve(folder)
	if err != nil {
		return "", mapOSError("resolve folder", err)
	}
	if err := validatePath(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

func (s *RelocationService) exists(path string) (bool, error) {
	_, err := s.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	return false, mapOSError("stat", err)
}

func (s *RelocationService) ensureFree(target string) error {
	taken, err := s.exists(target)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateExists, target)
	}
	return nil
}

// validatePath rejects relative paths and any path with a ".." segment.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", domain.ErrInvalidPath)
	}
	for _, seg := range strings.FieldsFunc(path, isSeparator) {
		if seg == ".." {
			return fmt.Errorf("%w: %s", domain.ErrPathTraversal, path)
		}
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s is not absolute", domain.ErrInvalidPath, path)
	}
	return nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\' || r == filepath.Separator
}

// numberedName returns stem_n.ext, or name_n for dotfiles and names
// without an extension.
func numberedName(name string, n int) string {
	suffix := "_" + strconv.Itoa(n)
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return name + suffix
	}
	return strings.TrimSuffix(name, ext) + suffix + ext
}

// resolveExistingPrefix evaluates symlinks on the longest prefix of path
// that exists and re-joins the remainder.
func resolveExistingPrefix(path string) (string, error) {
	var rest []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, iofs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// mapOSError wraps an OS error with the relocation sentinel for its kind.
func mapOSError(op string, err error) error {
	var sentinel error
	switch {
	case errors.Is(err, domain.ErrFileNotFound), errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrFileInUse), errors.Is(err, domain.ErrIO):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, iofs.ErrNotExist):
		sentinel = domain.ErrFileNotFound
	case errors.Is(err, iofs.ErrPermission):
		sentinel = domain.ErrPermissionDenied
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		sentinel = domain.ErrFileInUse
	default:
		sentinel = domain.ErrIO
	}
	return fmt.Errorf("%w: %s: %w", sentinel, op, err)
}
