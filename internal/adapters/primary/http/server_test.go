package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// staticProvider serves a fixed file map for handler tests.
type staticProvider struct {
	files map[string]ports.FileInfo
	dirs  map[string][]ports.FileInfo
}

func (s *staticProvider) GetFileInfo(subpath string) ports.FileInfo {
	if info, ok := s.files[subpath]; ok {
		return info
	}
	return ports.NewNotFoundFileInfo(subpath)
}

func (s *staticProvider) GetDirectoryContents(subpath string) ports.DirectoryContents {
	entries, ok := s.dirs[subpath]
	if !ok {
		return ports.NotFoundDirectoryContents{}
	}
	return ports.NewEnumerableDirectoryContents(entries)
}

func (s *staticProvider) Watch(filter string) ports.ChangeToken {
	return ports.NoopToken
}

type staticFileInfo struct {
	ports.NotFoundFileInfo
	name string
	size int64
}

func (f staticFileInfo) Exists() bool { return true }
func (f staticFileInfo) Name() string { return f.name }
func (f staticFileInfo) Size() int64  { return f.size }

func newTestServer() *Server {
	provider := &staticProvider{
		files: map[string]ports.FileInfo{
			"sub/a.txt": staticFileInfo{name: "a.txt", size: 5},
		},
		dirs: map[string][]ports.FileInfo{
			"sub": {staticFileInfo{name: "a.txt", size: 5}},
		},
	}
	return NewServer(provider, &entities.ServerConfig{Host: "localhost", Port: 0}, nil)
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer()

	recorder := httptest.NewRecorder()
	server.setupRoutes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleFileInfo(t *testing.T) {
	server := newTestServer()

	t.Run("existing file", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.setupRoutes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/files/sub/a.txt", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		var body fileInfoResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.True(t, body.Exists)
		assert.Equal(t, "a.txt", body.Name)
		assert.Equal(t, int64(5), body.Size)
	})

	t.Run("missing file is 404 with sentinel body", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.setupRoutes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/files/missing.txt", nil))

		require.Equal(t, http.StatusNotFound, recorder.Code)
		var body fileInfoResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.False(t, body.Exists)
	})
}

func TestHandleDirectory(t *testing.T) {
	server := newTestServer()

	t.Run("existing directory", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.setupRoutes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/dirs/sub", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		var body directoryResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.True(t, body.Exists)
		require.Len(t, body.Entries, 1)
		assert.Equal(t, "a.txt", body.Entries[0].Name)
	})

	t.Run("missing directory", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.setupRoutes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/dirs/none", nil))
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestHandleStats(t *testing.T) {
	server := newTestServer()

	t.Run("no source is 404", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.setupRoutes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("attached source is served", func(t *testing.T) {
		server.SetStatsSource(fixedStats{})
		recorder := httptest.NewRecorder()
		server.setupRoutes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		var stats entities.CacheStats
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &stats))
		assert.Equal(t, int64(7), stats.Hits)
	})
}

type fixedStats struct{}

func (fixedStats) Stats() entities.CacheStats {
	return entities.CacheStats{Hits: 7, Misses: 3, HitRate: 70}
}

func TestNotifyChangeBroadcasts(t *testing.T) {
	server := newTestServer()

	ctx := t.Context()
	go server.connMgr.Run(ctx)

	conn := &Connection{ID: "c1", Send: make(chan entities.ChangeEvent, 1)}
	server.connMgr.RegisterConnection(conn)

	require.Eventually(t, func() bool {
		return server.connMgr.ConnectionCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	server.NotifyChange(entities.ChangeEvent{Filter: "**/*", Kind: entities.WatchKindEvent, Timestamp: time.Now()})

	select {
	case event := <-conn.Send:
		assert.Equal(t, "**/*", event.Filter)
	case <-time.After(2 * time.Second):
		t.Fatal("event not broadcast")
	}
}
