package ports

import (
	"errors"
	"io"
	"time"
)

// ErrFileNotFound is returned by Open on file infos that do not exist.
var ErrFileNotFound = errors.New("file does not exist")

// FileInfo describes a file or directory exposed by a FileProvider.
type FileInfo interface {
	// Exists reports whether the file or directory exists.
	Exists() bool

	// Size returns the file length in bytes, or -1 for a directory or a
	// missing file.
	Size() int64

	// Name returns the base name of the file or directory.
	Name() string

	// ModTime returns the last modification time.
	ModTime() time.Time

	// IsDir reports whether the entry is a directory.
	IsDir() bool

	// PhysicalPath returns the path on disk, or "" when the file is not
	// directly accessible.
	PhysicalPath() string

	// Open creates a read stream for the file content.
	Open() (io.ReadCloser, error)
}

// DirectoryContents is the result of listing a directory.
type DirectoryContents interface {
	// Exists reports whether the directory exists.
	Exists() bool

	// Entries returns the directory entries.
	Entries() []FileInfo
}

// FileProvider is the read-and-watch surface over a file namespace.
type FileProvider interface {
	// GetFileInfo returns metadata for the file at subpath. Missing paths
	// yield a not-found sentinel, never an error.
	GetFileInfo(subpath string) FileInfo

	// GetDirectoryContents lists the directory at subpath. Missing
	// directories yield a sentinel with Exists() == false.
	GetDirectoryContents(subpath string) DirectoryContents

	// Watch returns a change token for the given filter. The filter is a
	// relative path or a glob pattern; filters that cannot be watched yield
	// the no-op token.
	Watch(filter string) ChangeToken
}

// NotFoundFileInfo is the sentinel FileInfo for missing files.
type NotFoundFileInfo struct {
	FileName string
}

// NewNotFoundFileInfo creates a not-found sentinel for the given name.
func NewNotFoundFileInfo(name string) NotFoundFileInfo {
	return NotFoundFileInfo{FileName: name}
}

func (f NotFoundFileInfo) Exists() bool         { return false }
func (f NotFoundFileInfo) Size() int64          { return -1 }
func (f NotFoundFileInfo) Name() string         { return f.FileName }
func (f NotFoundFileInfo) ModTime() time.Time   { return time.Time{} }
func (f NotFoundFileInfo) IsDir() bool          { return false }
func (f NotFoundFileInfo) PhysicalPath() string { return "" }

// Open always fails for a not-found file.
func (f NotFoundFileInfo) Open() (io.ReadCloser, error) {
	return nil, ErrFileNotFound
}

// NotFoundDirectoryContents is the sentinel for missing directories.
type NotFoundDirectoryContents struct{}

func (NotFoundDirectoryContents) Exists() bool        { return false }
func (NotFoundDirectoryContents) Entries() []FileInfo { return nil }

// EnumerableDirectoryContents wraps a concrete entry slice.
type EnumerableDirectoryContents struct {
	entries []FileInfo
}

// NewEnumerableDirectoryContents creates directory contents over entries.
func NewEnumerableDirectoryContents(entries []FileInfo) EnumerableDirectoryContents {
	return EnumerableDirectoryContents{entries: entries}
}

func (d EnumerableDirectoryContents) Exists() bool        { return true }
func (d EnumerableDirectoryContents) Entries() []FileInfo { return d.entries }
