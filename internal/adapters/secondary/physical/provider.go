package physical

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/matcher"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// ErrNotADirectory is returned when a provider root does not name a directory.
var ErrNotADirectory = errors.New("root is not a directory")

// ErrIsDirectory is returned when opening a read stream on a directory.
var ErrIsDirectory = errors.New("cannot open a directory for reading")

// ChangeTokenFactory produces change tokens for filters. Both the event-driven
// FilesWatcher and the polling watcher satisfy it.
type ChangeTokenFactory interface {
	CreateFileChangeToken(filter string) ports.ChangeToken
}

// Provider implements the FileProvider interface over a physical directory
// tree. Reads resolve against the root; watching delegates to the attached
// token factory.
type Provider struct {
	root    string
	watcher ChangeTokenFactory
}

// NewProvider creates a provider rooted at the given directory. The watcher
// may be nil, in which case Watch always returns the no-op token.
func NewProvider(root string, watcher ChangeTokenFactory) (*Provider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrNotADirectory
	}
	return &Provider{root: abs, watcher: watcher}, nil
}

// Root returns the absolute root directory.
func (p *Provider) Root() string {
	return p.root
}

// GetFileInfo returns metadata for the file at subpath. Missing, escaping,
// absolute and dot-prefixed paths yield the not-found sentinel.
func (p *Provider) GetFileInfo(subpath string) ports.FileInfo {
	full, ok := p.resolve(subpath)
	if !ok {
		return ports.NewNotFoundFileInfo(filepath.Base(subpath))
	}

	info, err := os.Stat(full)
	if err != nil {
		return ports.NewNotFoundFileInfo(filepath.Base(full))
	}
	return fileInfo{stat: info, fullPath: full}
}

// GetDirectoryContents lists the directory at subpath. Dot-prefixed entries
// are filtered out, matching the watcher's exclusion rules.
func (p *Provider) GetDirectoryContents(subpath string) ports.DirectoryContents {
	full, ok := p.resolve(subpath)
	if !ok {
		return ports.NotFoundDirectoryContents{}
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return ports.NotFoundDirectoryContents{}
	}

	infos := make([]ports.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info.
			continue
		}
		infos = append(infos, fileInfo{stat: stat, fullPath: filepath.Join(full, entry.Name())})
	}
	return ports.NewEnumerableDirectoryContents(infos)
}

// Watch returns a change token for the filter.
func (p *Provider) Watch(filter string) ports.ChangeToken {
	if p.watcher == nil {
		return ports.NoopToken
	}
	return p.watcher.CreateFileChangeToken(filter)
}

// resolve maps a subpath to an absolute path under the root, rejecting
// anything the provider does not serve.
func (p *Provider) resolve(subpath string) (string, bool) {
	normalized := matcher.NormalizePath(subpath)
	if normalized != "" && isInvalidFilter(normalized) {
		return "", false
	}
	base := filepath.Base(normalized)
	if strings.HasPrefix(base, ".") && base != "." {
		return "", false
	}
	return filepath.Join(p.root, filepath.FromSlash(normalized)), true
}

// fileInfo adapts an os.FileInfo to the provider surface.
type fileInfo struct {
	stat     os.FileInfo
	fullPath string
}

func (f fileInfo) Exists() bool { return true }

func (f fileInfo) Size() int64 {
	if f.stat.IsDir() {
		return -1
	}
	return f.stat.Size()
}

func (f fileInfo) Name() string         { return f.stat.Name() }
func (f fileInfo) ModTime() time.Time   { return f.stat.ModTime() }
func (f fileInfo) IsDir() bool          { return f.stat.IsDir() }
func (f fileInfo) PhysicalPath() string { return f.fullPath }

// Open creates a read stream for the file content.
func (f fileInfo) Open() (io.ReadCloser, error) {
	if f.stat.IsDir() {
		return nil, ErrIsDirectory
	}
	// #nosec G304 - paths are resolved and validated against the provider root
	return os.Open(f.fullPath)
}
