package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// fileInfoResponse is the JSON shape for file metadata.
type fileInfoResponse struct {
	Exists       bool      `json:"exists"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"mod_time"`
	IsDir        bool      `json:"is_dir"`
	PhysicalPath string    `json:"physical_path,omitempty"`
}

// directoryResponse is the JSON shape for directory listings.
type directoryResponse struct {
	Exists  bool               `json:"exists"`
	Entries []fileInfoResponse `json:"entries"`
}

func toFileInfoResponse(info ports.FileInfo) fileInfoResponse {
	return fileInfoResponse{
		Exists:       info.Exists(),
		Name:         info.Name(),
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		PhysicalPath: info.PhysicalPath(),
	}
}

// handleHealth reports liveness and the connected client count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.connMgr.ConnectionCount(),
	})
}

// handleStats reports cache statistics when a source is attached.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	source := s.stats
	s.mu.Unlock()

	if source == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no stats source"})
		return
	}
	s.writeJSON(w, http.StatusOK, source.Stats())
}

// handleFileInfo serves file metadata from the provider.
func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	subpath := mux.Vars(r)["subpath"]
	info := s.provider.GetFileInfo(subpath)

	status := http.StatusOK
	if !info.Exists() {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, toFileInfoResponse(info))
}

// handleDirectory serves a directory listing from the provider.
func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	subpath := mux.Vars(r)["subpath"]
	contents := s.provider.GetDirectoryContents(subpath)

	response := directoryResponse{Exists: contents.Exists(), Entries: []fileInfoResponse{}}
	for _, entry := range contents.Entries() {
		response.Entries = append(response.Entries, toFileInfoResponse(entry))
	}

	status := http.StatusOK
	if !response.Exists {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, response)
}

// writeJSON encodes a response body, logging encode failures.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("encoding response", "error", err)
	}
}
