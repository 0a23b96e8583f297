package matcher

import (
	"errors"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// ErrInvalidPattern is returned when a glob pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// DoublestarFactory implements the MatcherFactory interface using
// doublestar-compatible globs. Matching is ordinal and case-insensitive:
// both the pattern and every candidate path are lower-cased before
// comparison.
type DoublestarFactory struct{}

// NewDoublestarFactory creates a new doublestar matcher factory.
func NewDoublestarFactory() *DoublestarFactory {
	return &DoublestarFactory{}
}

// Compile builds a matcher for the glob pattern.
func (f *DoublestarFactory) Compile(pattern string) (ports.PathMatcher, error) {
	normalized := NormalizePattern(pattern)
	if normalized == "" || !doublestar.ValidatePattern(normalized) {
		return nil, ErrInvalidPattern
	}
	return &doublestarMatcher{pattern: normalized}, nil
}

// doublestarMatcher tests relative paths against one compiled pattern.
type doublestarMatcher struct {
	pattern string
}

// Match reports whether the relative path matches the pattern.
func (m *doublestarMatcher) Match(relativePath string) bool {
	candidate := strings.ToLower(NormalizePath(relativePath))
	if candidate == "" {
		return false
	}
	matched, err := doublestar.Match(m.pattern, candidate)
	return err == nil && matched
}

// Pattern returns the normalized pattern the matcher was compiled from.
func (m *doublestarMatcher) Pattern() string {
	return m.pattern
}

// NormalizePath converts separators to forward slashes and strips a leading
// "./" prefix. It does not resolve ".." segments.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, "./")
	return p
}

// NormalizePattern canonicalizes a filter for matching: separators become
// forward slashes, a trailing separator means "this directory and everything
// under it" and expands to "**/*", each "*.*" segment collapses to "*", and
// the result is lower-cased for ordinal case-insensitive matching.
func NormalizePattern(pattern string) string {
	pattern = NormalizePath(pattern)

	if strings.HasSuffix(pattern, "/") {
		pattern += "**/*"
	}

	segments := strings.Split(pattern, "/")
	for i, segment := range segments {
		if segment == "*.*" {
			segments[i] = "*"
		}
	}
	pattern = strings.Join(segments, "/")

	return strings.ToLower(pattern)
}
