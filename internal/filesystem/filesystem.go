// Package filesystem provides the file and folder primitives the store is built on.
//
// All names are slash separated and relative to the root folder of a FileSystem. Buckets
// are never written in place: a merge writes a fresh temporary file and promotes it with
// Replace, which is the only synchronization primitive the store relies on.
//
// # Implementations
//
//   - [LocalFS]: production implementation on top of the os package
//   - [FaultyFS]: test wrapper that injects I/O failures
//   - [MockFileSystem]: gomock mock for asserting which calls are (not) made
package filesystem

import (
	"context"
	"io"
	"time"
)

//go:generate mockgen -destination=filesystem_mock.go -package=filesystem -source=filesystem.go

// TempFolder is the folder, relative to the root, holding temporary files.
const TempFolder = ".temp"

// TempFile is a freshly created file open for sequential writing.
type TempFile interface {
	io.Writer
	// Name is the name of the file relative to the root; pass it to Replace or Delete.
	Name() string
	Close() error
}

// FileSystem abstracts the file operations used by the store.
type FileSystem interface {
	// Root returns the location of the root folder.
	Root() string
	// CreateFolder creates the folder if it does not exist, reporting whether it did.
	CreateFolder(ctx context.Context, name string) (bool, error)
	FolderExists(ctx context.Context, name string) (bool, error)
	// DeleteFolder removes the folder and everything in it.
	DeleteFolder(ctx context.Context, name string) error
	// CreateFile creates an empty file if it does not exist, reporting whether it did.
	CreateFile(ctx context.Context, name string) (bool, error)
	// OpenRead opens a file for sequential reading. The handle stays valid and keeps
	// reading the old content even if the file is replaced meanwhile.
	OpenRead(ctx context.Context, name string) (io.ReadCloser, error)
	// CreateTemp creates a uniquely named file in TempFolder.
	CreateTemp(ctx context.Context) (TempFile, error)
	// Replace atomically moves the temporary file over name.
	Replace(ctx context.Context, tempName, name string) error
	Delete(ctx context.Context, name string) error
	// ListFiles returns the names of the files directly inside folder.
	ListFiles(ctx context.Context, folder string) ([]string, error)
	// ListFolders returns the names of the folders directly inside folder.
	ListFolders(ctx context.Context, folder string) ([]string, error)
	// ModTime returns the time the file was last written.
	ModTime(ctx context.Context, name string) (time.Time, error)
}
