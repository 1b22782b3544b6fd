package filesystem

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"
)

// LocalFS implements FileSystem on the local disk below a root directory.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at dir. The directory is created on first use.
func NewLocalFS(dir string) (*LocalFS, error) {
	if dir == "" {
		return nil, errors.New("root directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &LocalFS{root: abs}, nil
}

func (l *LocalFS) Root() string {
	return l.root
}

func (l *LocalFS) path(name string) string {
	return filepath.Join(l.root, filepath.FromSlash(name))
}

func (l *LocalFS) CreateFolder(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p := l.path(name)
	if info, err := os.Stat(p); err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a folder", name)
		}
		return false, nil
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return false, fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return true, nil
}

func (l *LocalFS) FolderExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(l.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (l *LocalFS) DeleteFolder(ctx context.Context, name string) error {
	exists, err := l.FolderExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("folder %s: %w", name, fs.ErrNotExist)
	}
	return os.RemoveAll(l.path(name))
}

func (l *LocalFS) CreateFile(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	file, err := os.OpenFile(l.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create file %s: %w", name, err)
	}
	return true, file.Close()
}

func (l *LocalFS) OpenRead(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(l.path(name))
}

func (l *LocalFS) CreateTemp(ctx context.Context) (TempFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.path(TempFolder), 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp folder: %w", err)
	}

	name := path.Join(TempFolder, uuid.NewString())
	file, err := os.OpenFile(l.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &localTempFile{File: file, name: name}, nil
}

func (l *LocalFS) Replace(ctx context.Context, tempName, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(l.path(tempName), l.path(name))
}

func (l *LocalFS) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Remove(l.path(name))
}

func (l *LocalFS) ListFiles(ctx context.Context, folder string) ([]string, error) {
	return l.list(ctx, folder, false)
}

func (l *LocalFS) ListFolders(ctx context.Context, folder string) ([]string, error) {
	return l.list(ctx, folder, true)
}

func (l *LocalFS) ModTime(ctx context.Context, name string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(l.path(name))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (l *LocalFS) list(ctx context.Context, folder string, dirs bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.path(folder))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() == dirs {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

type localTempFile struct {
	*os.File
	name string
}

func (t *localTempFile) Name() string {
	return t.name
}

func (t *localTempFile) Close() error {
	if err := t.File.Sync(); err != nil {
		_ = t.File.Close()
		return err
	}
	return t.File.Close()
}
