package polling

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/token"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// WildcardChangeToken is a one-shot polling token for a glob pattern. Each
// evaluation enumerates the matching files, orders them deterministically and
// hashes the (path, last-write time) stream; a change in set identity or any
// timestamp flips the token. The first evaluation establishes the baseline
// and never reports a change.
type WildcardChangeToken struct {
	root          string
	matcher       ports.PathMatcher
	clock         ports.Clock
	backingSource *token.CancellationSource

	mu           sync.Mutex
	lastScan     time.Time
	previousHash []byte
	changed      bool
}

// NewWildcardChangeToken creates a token scanning root for the pattern,
// backed by the source the owning watcher will cancel.
func NewWildcardChangeToken(root string, m ports.PathMatcher, clock ports.Clock, source *token.CancellationSource) *WildcardChangeToken {
	return &WildcardChangeToken{
		root:          root,
		matcher:       m,
		clock:         clock,
		backingSource: source,
		lastScan:      clock.Now(),
	}
}

// UpdateHasChanged rescans the pattern and OR-accumulates the change flag.
// Returns the flag.
func (t *WildcardChangeToken) UpdateHasChanged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.changed {
		return true
	}

	matches := t.enumerate()
	sortOrdinalIgnoreCase(matches)

	timestampNewer := false
	digester := sha256.New()
	for _, match := range matches {
		if match.modTime.After(t.lastScan) {
			timestampNewer = true
		}
		writeEntry(digester, match)
	}
	digest := digester.Sum(nil)

	if t.previousHash != nil && (timestampNewer || !bytes.Equal(digest, t.previousHash)) {
		t.changed = true
	}

	t.previousHash = digest
	t.lastScan = t.clock.Now()
	return t.changed
}

// HasChanged reports the accumulated change flag without rescanning.
func (t *WildcardChangeToken) HasChanged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changed
}

// ActiveChangeCallbacks always reports true.
func (t *WildcardChangeToken) ActiveChangeCallbacks() bool {
	return true
}

// RegisterChangeCallback delegates to the backing source.
func (t *WildcardChangeToken) RegisterChangeCallback(callback func(state interface{}), state interface{}) ports.Subscription {
	return t.backingSource.Register(callback, state)
}

// Source returns the backing cancellation source for the owning watcher.
func (t *WildcardChangeToken) Source() *token.CancellationSource {
	return t.backingSource
}

// matchedFile is one file in a wildcard scan.
type matchedFile struct {
	relativePath string
	modTime      time.Time
}

// enumerate walks the root collecting files whose relative path matches the
// pattern. Dot-prefixed files and directories are skipped; I/O errors during
// the walk drop the affected entries.
func (t *WildcardChangeToken) enumerate() []matchedFile {
	var matches []matchedFile
	_ = filepath.WalkDir(t.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := entry.Name()
		if path != t.root && strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !t.matcher.Match(rel) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		matches = append(matches, matchedFile{relativePath: rel, modTime: info.ModTime()})
		return nil
	})
	return matches
}

// sortOrdinalIgnoreCase orders matches by lower-cased path, breaking ties on
// the raw path, so the hash is independent of enumeration order.
func sortOrdinalIgnoreCase(matches []matchedFile) {
	sort.Slice(matches, func(i, j int) bool {
		left := strings.ToLower(matches[i].relativePath)
		right := strings.ToLower(matches[j].relativePath)
		if left != right {
			return left < right
		}
		return matches[i].relativePath < matches[j].relativePath
	})
}

// hashSeparator delimits fields in the hashed stream.
const hashSeparator = uint16(0xFFFF)

// writeEntry feeds one file into the digest: the path as little-endian
// 2-byte code units, a separator, the last-write time in nanoseconds, and a
// second separator.
func writeEntry(digester hash.Hash, match matchedFile) {
	var buf [8]byte
	for _, unit := range utf16.Encode([]rune(match.relativePath)) {
		binary.LittleEndian.PutUint16(buf[:2], unit)
		digester.Write(buf[:2])
	}
	binary.LittleEndian.PutUint16(buf[:2], hashSeparator)
	digester.Write(buf[:2])

	binary.LittleEndian.PutUint64(buf[:], uint64(match.modTime.UnixNano()))
	digester.Write(buf[:])

	binary.LittleEndian.PutUint16(buf[:2], hashSeparator)
	digester.Write(buf[:2])
}
