package filesystem

import (
	"io"
	"io/fs"
)

// File is an open read-only file
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer
	Stat() (fs.FileInfo, error)
}

// FS is the set of filesystem operations reshader performs on game and data
// directories.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (File, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Create(name string, perm fs.FileMode) (io.WriteCloser, error)

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
	MkdirTemp(dir, pattern string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error

	// Lstat falls back to Stat on implementations without symlinks
	Lstat(name string) (fs.FileInfo, error)
}

// Exists reports whether name exists, without following a final symlink.
func Exists(fsys FS, name string) bool {
	_, err := fsys.Lstat(name)
	return err == nil
}

// IsDir reports whether name exists and is a directory.
func IsDir(fsys FS, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.IsDir()
}
