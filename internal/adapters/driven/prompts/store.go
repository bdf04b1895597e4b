// Package prompts loads user-editable classification instructions from disk.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.PromptStore = (*Store)(nil)

// Store reads <dir>/<name>.txt, falling back to the defaults it was built
// with. The directory and default files are created on the first Load,
// never in the constructor.
type Store struct {
	fs       afero.Fs
	dir      string
	defaults map[string]string

	mu    sync.RWMutex
	cache map[string]string

	initOnce sync.Once
	initErr  error
}

// New creates a prompt store rooted at dir. defaults maps prompt names to
// the content written for files that do not exist yet.
func New(fs afero.Fs, dir string, defaults map[string]string) *Store {
	d := make(map[string]string, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return &Store{
		fs:       fs,
		dir:      dir,
		defaults: d,
		cache:    make(map[string]string),
	}
}

// Dir returns the prompt directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load returns the instruction for name. An empty or unreadable file
// yields the default.
func (s *Store) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	text, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}

	text, err := s.read(name)
	if err != nil || text == "" {
		if d, ok := s.defaults[name]; ok {
			return d, nil
		}
		if err == nil {
			err = os.ErrNotExist
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		text = cached
	} else {
		s.cache[name] = text
	}
	s.mu.Unlock()
	return text, nil
}

// Reload drops cached prompts so the next Load reads from disk.
func (s *Store) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Err reports why the directory could not be initialised, if it could not.
func (s *Store) Err() error {
	s.initOnce.Do(s.initialise)
	return s.initErr
}

func (s *Store) initialise() {
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, content := range s.defaults {
		path := s.path(name)
		if ok, _ := afero.Exists(s.fs, path); ok {
			continue
		}
		if err := afero.WriteFile(s.fs, path, []byte(content+"\n"), 0o600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}
	if err := s.writeReadme(); err != nil {
		s.initErr = err
	}
}

func (s *Store) read(name string) (string, error) {
	data, err := afero.ReadFile(s.fs, s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *Store) writeReadme() error {
	path := filepath.Join(s.dir, "README.md")
	if ok, _ := afero.Exists(s.fs, path); ok {
		return nil
	}

	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# sorta prompts\n\n")
	b.WriteString("Each file holds the instruction that opens the classification prompt\n")
	b.WriteString("for one kind of evidence:\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s.txt`\n", name)
	}
	b.WriteString("\nEdit a file to change how files are classified. Delete it, or leave it\n")
	b.WriteString("empty, to go back to the built-in instruction. The folder list, the\n")
	b.WriteString("JSON response format and past corrections are always appended.\n")
	return afero.WriteFile(s.fs, path, []byte(b.String()), 0o600)
}
