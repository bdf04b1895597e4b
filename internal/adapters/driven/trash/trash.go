// Package trash moves files into the user's desktop trash.
package trash

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Trasher implements the interface.
var _ driven.Trasher = (*Trasher)(nil)

// Layout selects the trash directory convention.
type Layout int

// Supported layouts.
const (
	// LayoutFreedesktop is the XDG trash: files/ plus info/*.trashinfo.
	LayoutFreedesktop Layout = iota

	// LayoutMacOS is ~/.Trash with no metadata.
	LayoutMacOS
)

// Trasher soft-deletes files. Names already present in the trash get a
// short random suffix.
type Trasher struct {
	fs     afero.Fs
	root   string
	layout Layout
	now    func() time.Time
}

// New creates a trasher for the current platform and user.
func New(fs afero.Fs) (*Trasher, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return NewWithRoot(fs, filepath.Join(home, ".Trash"), LayoutMacOS), nil
	}
	data := os.Getenv("XDG_DATA_HOME")
	if data == "" {
		data = filepath.Join(home, ".local", "share")
	}
	return NewWithRoot(fs, filepath.Join(data, "Trash"), LayoutFreedesktop), nil
}

// NewWithRoot creates a trasher rooted at an explicit trash directory.
func NewWithRoot(fs afero.Fs, root string, layout Layout) *Trasher {
	return &Trasher{fs: fs, root: root, layout: layout, now: time.Now}
}

// Root returns the trash directory.
func (t *Trasher) Root() string {
	return t.root
}

// Trash moves path into the trash and returns its new location.
func (t *Trasher) Trash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	filesDir := t.root
	if t.layout == LayoutFreedesktop {
		filesDir = filepath.Join(t.root, "files")
		if err := t.fs.MkdirAll(filepath.Join(t.root, "info"), 0o700); err != nil {
			return "", err
		}
	}
	if err := t.fs.MkdirAll(filesDir, 0o700); err != nil {
		return "", err
	}

	name, err := t.freeName(filesDir, filepath.Base(abs))
	if err != nil {
		return "", err
	}
	dest := filepath.Join(filesDir, name)

	if t.layout == LayoutFreedesktop {
		if err := t.writeInfo(name, abs); err != nil {
			return "", err
		}
	}

	if err := t.move(abs, dest); err != nil {
		if t.layout == LayoutFreedesktop {
			_ = t.fs.Remove(t.infoPath(name))
		}
		return "", err
	}
	return dest, nil
}

// freeName returns name, or name with a random suffix when taken.
func (t *Trasher) freeName(dir, name string) (string, error) {
	candidate := name
	for i := 0; i < 8; i++ {
		taken, err := afero.Exists(t.fs, filepath.Join(dir, candidate))
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		if stem == "" {
			stem, ext = name, ""
		}
		candidate = stem + "_" + uuid.NewString()[:8] + ext
	}
	return "", fmt.Errorf("no free trash name for %s", name)
}

func (t *Trasher) infoPath(name string) string {
	return filepath.Join(t.root, "info", name+".trashinfo")
}

func (t *Trasher) writeInfo(name, original string) error {
	escaped := (&url.URL{Path: original}).EscapedPath()
	body := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escaped, t.now().Format("2006-01-02T15:04:05"))
	f, err := t.fs.OpenFile(t.infoPath(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// move renames src to dest, copying when they are on different devices.
func (t *Trasher) move(src, dest string) error {
	err := t.fs.Rename(src, dest)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := t.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := t.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = t.fs.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		_ = t.fs.Remove(dest)
		return err
	}
	return t.fs.Remove(src)
}
