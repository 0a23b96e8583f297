package ports

//go:generate mockery --name FileSystemWatcher --output ../../../test/mocks --outpkg mocks

// FileSystemWatcher abstracts the OS-level file event source consumed by the
// physical files watcher. Implementations deliver events for a single watched
// directory tree; paths in handlers are absolute.
type FileSystemWatcher interface {
	// OnFileChange registers a handler invoked for every create, write,
	// delete or attribute change under the watched directory.
	OnFileChange(handler func(fullPath string))

	// OnFileRename registers a handler invoked when an entry is renamed,
	// with the old and new absolute paths. Implementations that cannot pair
	// renames may deliver them as two change events instead.
	OnFileRename(handler func(oldFullPath, newFullPath string))

	// OnError registers a handler invoked when the underlying watcher fails.
	OnError(handler func(err error))

	// EnableRaisingEvents starts or stops event delivery. Implementations
	// must tolerate repeated calls with the same value.
	EnableRaisingEvents(enabled bool)

	// WatchedDirectory returns the absolute root this watcher observes.
	WatchedDirectory() string

	// Close releases OS resources. The watcher cannot be reused afterwards.
	Close() error
}
