// Package ledger records which fingerprint was last successfully installed
// for each package.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

const LedgerName = "install.toml"
const APIVersion = "1"

// Ledger is the on-disk structure of install.toml.
// Example:
//
//	api_version = "1"
//
//	[installed]
//	sdl = "Git('https://github.com/libsdl-org/SDL.git',release-2.26.1),ConfigureAndMake()"
type Ledger struct {
	ApiVersion string            `toml:"api_version"`
	Installed  map[string]string `toml:"installed"`
}

// LedgerIOError reports an unreadable or unwritable ledger file.
// A missing file is not an error.
type LedgerIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *LedgerIOError) Error() string {
	return fmt.Sprintf("failed to %s ledger %s: %v", e.Op, e.Path, e.Err)
}

func (e *LedgerIOError) Unwrap() error { return e.Err }

// New creates a new Ledger instance with default values.
func New() *Ledger {
	return &Ledger{
		ApiVersion: APIVersion,
		Installed:  make(map[string]string),
	}
}

// Load reads the ledger at path. A missing file yields an empty ledger.
func Load(path string) (*Ledger, error) {
	lf := New()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return lf, nil
	}
	if err != nil {
		return nil, &LedgerIOError{Path: path, Op: "read", Err: err}
	}

	if _, err := toml.Decode(string(data), lf); err != nil {
		return nil, &LedgerIOError{Path: path, Op: "decode", Err: err}
	}
	if lf.ApiVersion == "" {
		lf.ApiVersion = APIVersion
	}
	if lf.Installed == nil {
		lf.Installed = make(map[string]string)
	}
	return lf, nil
}

// Save writes lf to path. The content goes to a temporary file in the same
// directory which is then renamed over path, so readers see either the old
// or the new ledger.
func Save(path string, lf *Ledger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &LedgerIOError{Path: path, Op: "create directory for", Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return &LedgerIOError{Path: path, Op: "create", Err: err}
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if err := toml.NewEncoder(tmp).Encode(lf); err != nil {
		_ = tmp.Close()
		cleanup()
		return &LedgerIOError{Path: path, Op: "encode", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return &LedgerIOError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &LedgerIOError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return &LedgerIOError{Path: path, Op: "replace", Err: err}
	}
	return nil
}

// Store binds a loaded ledger to its file.
// Concurrent modification of the file by another process is not detected.
type Store struct {
	path   string
	ledger *Ledger
}

// Open loads the ledger at path once.
func Open(path string) (*Store, error) {
	lf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, ledger: lf}, nil
}

func (s *Store) Path() string { return s.path }

// Get returns the recorded fingerprint for name.
func (s *Store) Get(name string) (string, bool) {
	fp, ok := s.ledger.Installed[name]
	return fp, ok
}

// Set records fp for name in memory. Call Persist to write it out.
func (s *Store) Set(name, fp string) {
	if s.ledger.Installed == nil {
		s.ledger.Installed = make(map[string]string)
	}
	s.ledger.Installed[name] = fp
}

// Delete forgets name in memory. Call Persist to write it out.
func (s *Store) Delete(name string) {
	delete(s.ledger.Installed, name)
}

// Persist writes the current state to disk.
func (s *Store) Persist() error {
	s.ledger.ApiVersion = APIVersion
	return Save(s.path, s.ledger)
}

// Names returns the recorded package names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.ledger.Installed))
	for name := range s.ledger.Installed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
