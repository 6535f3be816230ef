// Package storage keeps uploaded PDFs on an afero filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"cocreview/domain/core"
)

// Store implements ports.BlobStore on an afero filesystem rooted at a
// directory.
type Store struct {
	fs afero.Fs
}

// NewDiskStore stores files under dir on the OS filesystem.
func NewDiskStore(dir string) (*Store, error) {
	osfs := afero.NewOsFs()
	if err := osfs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return NewStore(afero.NewBasePathFs(osfs, dir)), nil
}

// NewMemStore keeps files in memory.
func NewMemStore() *Store {
	return NewStore(afero.NewMemMapFs())
}

// NewStore wraps an existing filesystem.
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Save writes r under key, replacing any existing file.
func (s *Store) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, err := cleanKey(key)
	if err != nil {
		return 0, err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return 0, err
	}
	f, err := s.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(p)
		return 0, err
	}
	return n, nil
}

// Open returns the file stored under key.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(p)
	if os.IsNotExist(err) {
		return nil, core.NewNotFoundError("file", key)
	}
	return f, err
}

// Delete removes the file stored under key. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Key builds the storage key of a document's PDF.
func Key(labID core.LabID, id core.DocumentID) string {
	return labID.String() + "/" + id.String() + ".pdf"
}

func cleanKey(key string) (string, error) {
	p := path.Clean("/" + strings.TrimSpace(key))
	if p == "/" || strings.Contains(key, "..") {
		return "", core.NewValidationError("key", fmt.Sprintf("invalid storage key %q", key))
	}
	return p, nil
}
