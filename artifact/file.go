package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore writes artifacts below a base directory. Relative paths are
// resolved against BaseDir; absolute paths are used as given.
type FileStore struct {
	BaseDir string
	// Perm is applied to written files. Defaults to 0o644.
	Perm fs.FileMode
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at baseDir ("" means the working
// directory).
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{BaseDir: baseDir, Perm: 0o644}
}

func (s *FileStore) resolve(path string) (string, error) {
	if path == "" {
		return "", errors.New("artifact: empty path")
	}
	if filepath.IsAbs(path) || s.BaseDir == "" {
		return filepath.Clean(path), nil
	}
	return filepath.Join(s.BaseDir, path), nil
}

// Save writes data to path atomically: the content goes to a temporary file
// in the target directory which is then renamed over the destination.
func (s *FileStore) Save(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("artifact: write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("artifact: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close: %w", err)
	}

	perm := s.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("artifact: chmod: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("artifact: rename: %w", err)
	}
	return nil
}

// Get reads the artifact at path.
func (s *FileStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}
