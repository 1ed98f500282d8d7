package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalClient stores artifacts as files in a single directory.
type LocalClient struct {
	dir string
}

// NewLocalClient constructs a filesystem backend rooted at dir.
func NewLocalClient(dir string) (*LocalClient, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage directory is required")
	}
	return &LocalClient{dir: dir}, nil
}

// EnsureBucket creates the storage directory if it is absent.
func (l *LocalClient) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes an artifact file, replacing any existing one. Writes go
// through a temp file so readers never observe a partial artifact.
func (l *LocalClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := l.EnsureBucket(ctx); err != nil {
		return err
	}
	path, err := l.resolve(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get opens a stored artifact file.
func (l *LocalClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored artifact file.
func (l *LocalClient) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

// Bucket returns the storage directory.
func (l *LocalClient) Bucket() string {
	return l.dir
}

// resolve maps a key to a path inside the directory. Keys are plain file
// names; anything with a path separator is rejected.
func (l *LocalClient) resolve(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(l.dir, key), nil
}
