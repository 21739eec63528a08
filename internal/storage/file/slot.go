// Package file stores the snapshot slot as a file in a data directory.
package file

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/stall-orders/internal/storage/snapshot"
)

var _ snapshot.Slot = (*Slot)(nil)

// Slot keeps one named snapshot in <dir>/<name>.json.
type Slot struct {
	path string
}

// NewSlot returns a Slot for name under dir, creating dir if needed.
func NewSlot(dir, name string) (*Slot, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, errors.Errorf("invalid slot name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &Slot{path: filepath.Join(dir, name+".json")}, nil
}

// Path returns the snapshot file path.
func (s *Slot) Path() string {
	return s.path
}

// Read returns the file contents, or nil when the file does not exist.
func (s *Slot) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}
	return data, nil
}

// Write replaces the file through a temp file and rename, so readers never
// see a half-written snapshot.
func (s *Slot) Write(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrapf(err, "rename to %s", s.path)
	}
	return nil
}

// Ping checks that the data directory is reachable.
func (s *Slot) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Close is a no-op.
func (s *Slot) Close() error {
	return nil
}
