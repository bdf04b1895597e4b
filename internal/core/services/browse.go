package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure BrowseService implements the interface.
var _ driving.BrowseService = (*BrowseService)(nil)

const (
	// DefaultPreviewImageMax caps images inlined as data URLs.
	DefaultPreviewImageMax = 5 * 1024 * 1024

	previewTextRunes = 200
)

// BrowseService inspects folders and files without changing them.
type BrowseService struct {
	fs         afero.Fs
	documents  driven.TextExtractor
	imageLimit int64
	log        *zap.Logger
}

// NewBrowseService creates a browse service over fs. documents may be nil,
// in which case only images get previews.
func NewBrowseService(fs afero.Fs, documents driven.TextExtractor) *BrowseService {
	return &BrowseService{
		fs:         fs,
		documents:  documents,
		imageLimit: DefaultPreviewImageMax,
		log:        zap.NewNop(),
	}
}

// SetLogger sets the structured logger.
func (s *BrowseService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// SetImageLimit sets the largest image inlined by Preview.
func (s *BrowseService) SetImageLimit(n int64) {
	if n > 0 {
		s.imageLimit = n
	}
}

// ScanFolders lists the non-hidden sub-directories of root, sorted by
// path. Without recursive only direct children are listed; with it,
// maxDepth bounds the depth (0 means unlimited).
func (s *BrowseService) ScanFolders(root string, recursive bool, maxDepth int) ([]domain.FolderEntry, error) {
	if err := s.requireDir(root); err != nil {
		return nil, err
	}
	root = filepath.Clean(root)
	if !recursive {
		maxDepth = 1
	}

	var out []domain.FolderEntry
	err := afero.Walk(s.fs, root, func(path string, info iofs.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.log.Debug("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		if path == root || !info.IsDir() {
			return nil
		}
		if domain.IsHidden(info.Name()) {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)
		depth := len(strings.Split(rel, string(filepath.Separator)))
		if maxDepth > 0 && depth > maxDepth {
			return filepath.SkipDir
		}
		out = append(out, domain.FolderEntry{Name: info.Name(), Path: path, Depth: depth})
		return nil
	})
	if err != nil {
		return nil, mapOSError("scan folders", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ScanFiles lists the non-hidden regular files directly in dir, sorted by
// name.
func (s *BrowseService) ScanFiles(dir string) ([]domain.FileEntry, error) {
	if err := s.requireDir(dir); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, mapOSError("scan files", err)
	}

	out := make([]domain.FileEntry, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() || domain.IsHidden(info.Name()) {
			continue
		}
		out = append(out, domain.FileEntry{
			Name:      info.Name(),
			Path:      filepath.Join(dir, info.Name()),
			Extension: strings.ToLower(strings.TrimPrefix(filepath.Ext(info.Name()), ".")),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Category:  domain.CategoryFor(info.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Preview returns a bounded rendering of path: a data URL for small
// images, a text excerpt for readable documents, otherwise none.
func (s *BrowseService) Preview(ctx context.Context, path string) (*domain.Preview, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, mapOSError("preview", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrFileNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if visionImages[ext] {
		if info.Size() > s.imageLimit {
			return &domain.Preview{Kind: domain.PreviewNone}, nil
		}
		data, err := afero.ReadFile(s.fs, path)
		if err != nil {
			return nil, mapOSError("preview", err)
		}
		mime := ImageMIMEType(path)
		return &domain.Preview{
			Kind:     domain.PreviewImage,
			MIMEType: mime,
			DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		}, nil
	}

	if s.documents != nil && s.documents.Supports(ext) {
		raw, err := s.documents.Extract(ctx, path)
		if err != nil {
			s.log.Debug("preview extraction failed", zap.String("path", path), zap.Error(err))
			return &domain.Preview{Kind: domain.PreviewNone}, nil
		}
		full := NormaliseSnippet(raw, 0)
		text := NormaliseSnippet(full, previewTextRunes)
		return &domain.Preview{
			Kind:      domain.PreviewText,
			Text:      text,
			Truncated: utf8.RuneCountInString(full) > previewTextRunes,
		}, nil
	}

	return &domain.Preview{Kind: domain.PreviewNone}, nil
}

// Hash returns the hex sha256 digest of the file at path.
func (s *BrowseService) Hash(path string) (string, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return "", mapOSError("hash", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", mapOSError("hash", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FindDuplicates returns the files in destFolder whose content is
// identical to path.
func (s *BrowseService) FindDuplicates(path, destFolder string) ([]string, error) {
	want, err := s.Hash(path)
	if err != nil {
		return nil, err
	}
	src, err := s.fs.Stat(path)
	if err != nil {
		return nil, mapOSError("stat", err)
	}

	files, err := s.ScanFiles(destFolder)
	if err != nil {
		if errors.Is(err, domain.ErrPathNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var dupes []string
	for _, f := range files {
		if f.Size != src.Size() || filepath.Clean(f.Path) == filepath.Clean(path) {
			continue
		}
		got, err := s.Hash(f.Path)
		if err != nil {
			s.log.Debug("hash failed", zap.String("path", f.Path), zap.Error(err))
			continue
		}
		if got == want {
			dupes = append(dupes, f.Path)
		}
	}
	return dupes, nil
}

func (s *BrowseService) requireDir(path string) error {
	info, err := s.fs.Stat(path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return fmt.Errorf("%w: %s", domain.ErrPathNotFound, path)
	case err != nil:
		return mapOSError("stat", err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", domain.ErrNotDirectory, path)
	}
	return nil
}
