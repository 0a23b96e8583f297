package composite

import (
	"path"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/token"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// Provider implements the FileProvider interface over an ordered list of
// underlying providers. Reads resolve first-match-wins; directory listings
// merge; Watch fans out and aggregates the resulting tokens.
type Provider struct {
	providers []ports.FileProvider
}

// NewProvider creates a composite over the given providers, consulted in
// order.
func NewProvider(providers ...ports.FileProvider) *Provider {
	return &Provider{providers: providers}
}

// Providers returns the underlying providers in consultation order.
func (p *Provider) Providers() []ports.FileProvider {
	return p.providers
}

// GetFileInfo returns the first existing file info for subpath, or the
// not-found sentinel when no provider has it.
func (p *Provider) GetFileInfo(subpath string) ports.FileInfo {
	for _, provider := range p.providers {
		if info := provider.GetFileInfo(subpath); info.Exists() {
			return info
		}
	}
	return ports.NewNotFoundFileInfo(path.Base(subpath))
}

// GetDirectoryContents concatenates the entries of every provider whose
// directory exists, deduplicating by entry name with the first occurrence
// winning. The result exists when any provider's directory does.
func (p *Provider) GetDirectoryContents(subpath string) ports.DirectoryContents {
	exists := false
	seen := make(map[string]struct{})
	var merged []ports.FileInfo

	for _, provider := range p.providers {
		contents := provider.GetDirectoryContents(subpath)
		if !contents.Exists() {
			continue
		}
		exists = true
		for _, entry := range contents.Entries() {
			if _, ok := seen[entry.Name()]; ok {
				continue
			}
			seen[entry.Name()] = struct{}{}
			merged = append(merged, entry)
		}
	}

	if !exists {
		return ports.NotFoundDirectoryContents{}
	}
	return ports.NewEnumerableDirectoryContents(merged)
}

// Watch fans the filter out to every provider and aggregates the tokens that
// can actually fire. When none can, the no-op token is returned.
func (p *Provider) Watch(filter string) ports.ChangeToken {
	var active []ports.ChangeToken
	for _, provider := range p.providers {
		tok := provider.Watch(filter)
		if tok != nil && tok.ActiveChangeCallbacks() {
			active = append(active, tok)
		}
	}
	if len(active) == 0 {
		return ports.NoopToken
	}
	return token.NewCompositeChangeToken(active)
}
