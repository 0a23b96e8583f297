package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"backslashes become slashes", `sub\*.txt`, "sub/*.txt"},
		{"leading dot slash trimmed", "./sub/*.txt", "sub/*.txt"},
		{"trailing slash expands recursively", "sub/", "sub/**/*"},
		{"trailing backslash expands recursively", `sub\`, "sub/**/*"},
		{"star dot star is star", "*.*", "*"},
		{"star dot star segment", "sub/*.*", "sub/*"},
		{"lower cased", "Sub/*.TXT", "sub/*.txt"},
		{"double star preserved", "**/*.cs", "**/*.cs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePattern(tt.pattern))
		})
	}
}

func TestDoublestarMatcher(t *testing.T) {
	factory := NewDoublestarFactory()

	compile := func(t *testing.T, pattern string) func(string) bool {
		t.Helper()
		m, err := factory.Compile(pattern)
		require.NoError(t, err)
		return m.Match
	}

	t.Run("single star stays within a segment", func(t *testing.T) {
		match := compile(t, "*.txt")
		assert.True(t, match("a.txt"))
		assert.False(t, match("sub/a.txt"))
	})

	t.Run("double star crosses segments", func(t *testing.T) {
		match := compile(t, "**/*.cs")
		assert.True(t, match("x/y/z.cs"))
		assert.True(t, match("a.cs"))
		assert.False(t, match("x/y/z.txt"))
	})

	t.Run("question mark matches one character", func(t *testing.T) {
		match := compile(t, "a?.txt")
		assert.True(t, match("ab.txt"))
		assert.False(t, match("abc.txt"))
	})

	t.Run("trailing separator matches all descendants", func(t *testing.T) {
		match := compile(t, "sub/")
		assert.True(t, match("sub/a.txt"))
		assert.True(t, match("sub/deep/er/a.txt"))
		assert.False(t, match("other/a.txt"))
	})

	t.Run("star dot star equals star", func(t *testing.T) {
		match := compile(t, "*.*")
		assert.True(t, match("a.txt"))
		assert.True(t, match("noext"))
		assert.False(t, match("sub/a.txt"))
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		match := compile(t, "Sub/*.TXT")
		assert.True(t, match("sub/a.txt"))
		assert.True(t, match("SUB/A.TXT"))
	})

	t.Run("mirrored separators match identically", func(t *testing.T) {
		match := compile(t, `sub\a.txt`)
		assert.True(t, match("sub/a.txt"))
		assert.True(t, match(`sub\a.txt`))
	})

	t.Run("empty candidate never matches", func(t *testing.T) {
		match := compile(t, "**/*")
		assert.False(t, match(""))
	})

	t.Run("pattern is reported normalized", func(t *testing.T) {
		m, err := factory.Compile(`Sub\`)
		require.NoError(t, err)
		assert.Equal(t, "sub/**/*", m.Pattern())
	})
}
