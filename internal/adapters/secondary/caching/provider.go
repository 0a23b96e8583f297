package caching

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// DefaultCacheSize bounds each of the two caches when no size is given.
const DefaultCacheSize = 256

// Provider wraps another FileProvider with bounded LRU caches for file
// metadata and directory listings. Cache keys are the case-sensitive subpath
// strings. When a watch filter is configured, both caches are purged every
// time the base provider reports a change under that filter.
type Provider struct {
	base        ports.FileProvider
	watchFilter string
	logger      *slog.Logger

	fileInfos *lru.Cache[string, ports.FileInfo]
	dirs      *lru.Cache[string, ports.DirectoryContents]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	closed    atomic.Bool
}

// NewProvider creates a caching provider over base. size bounds each cache
// (non-positive selects the default). watchFilter may be empty to disable
// watch-driven invalidation.
func NewProvider(base ports.FileProvider, size int, watchFilter string, logger *slog.Logger) (*Provider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	fileInfos, err := lru.New[string, ports.FileInfo](size)
	if err != nil {
		return nil, fmt.Errorf("creating file info cache: %w", err)
	}
	dirs, err := lru.New[string, ports.DirectoryContents](size)
	if err != nil {
		return nil, fmt.Errorf("creating directory cache: %w", err)
	}

	p := &Provider{
		base:        base,
		watchFilter: watchFilter,
		logger:      logger.With("component", "caching_provider"),
		fileInfos:   fileInfos,
		dirs:        dirs,
	}
	p.arm()
	return p, nil
}

// GetFileInfo returns the cached metadata for subpath, consulting the base
// provider on a miss.
func (p *Provider) GetFileInfo(subpath string) ports.FileInfo {
	if info, ok := p.fileInfos.Get(subpath); ok {
		p.hits.Add(1)
		return info
	}
	p.misses.Add(1)

	info := p.base.GetFileInfo(subpath)
	if evicted := p.fileInfos.Add(subpath, info); evicted {
		p.evictions.Add(1)
	}
	return info
}

// GetDirectoryContents returns the cached listing for subpath, consulting
// the base provider on a miss.
func (p *Provider) GetDirectoryContents(subpath string) ports.DirectoryContents {
	if contents, ok := p.dirs.Get(subpath); ok {
		p.hits.Add(1)
		return contents
	}
	p.misses.Add(1)

	contents := p.base.GetDirectoryContents(subpath)
	if evicted := p.dirs.Add(subpath, contents); evicted {
		p.evictions.Add(1)
	}
	return contents
}

// Watch delegates to the base provider.
func (p *Provider) Watch(filter string) ports.ChangeToken {
	return p.base.Watch(filter)
}

// Invalidate drops every cached entry.
func (p *Provider) Invalidate() {
	p.fileInfos.Purge()
	p.dirs.Purge()
}

// Stats reports cache effectiveness counters.
func (p *Provider) Stats() entities.CacheStats {
	hits := p.hits.Load()
	misses := p.misses.Load()
	stats := entities.CacheStats{
		Hits:      hits,
		Misses:    misses,
		Evictions: p.evictions.Load(),
		Size:      p.fileInfos.Len() + p.dirs.Len(),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total) * 100
	}
	return stats
}

// Close stops watch-driven invalidation. Cached entries remain readable.
func (p *Provider) Close() {
	p.closed.Store(true)
}

// arm subscribes to the base provider for the invalidation filter. Tokens
// are one-shot, so each firing re-subscribes for the next change.
func (p *Provider) arm() {
	if p.watchFilter == "" || p.closed.Load() {
		return
	}

	tok := p.base.Watch(p.watchFilter)
	if tok == nil || !tok.ActiveChangeCallbacks() {
		return
	}

	tok.RegisterChangeCallback(func(interface{}) {
		if p.closed.Load() {
			return
		}
		p.logger.Debug("invalidating caches", "filter", p.watchFilter)
		p.Invalidate()
		go p.arm()
	}, nil)
}
