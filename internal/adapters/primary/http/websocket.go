package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// wireEvent is the JSON shape of one change event on the socket.
type wireEvent struct {
	Filter    string    `json:"filter"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// createUpgrader creates a WebSocket upgrader with origin validation
func (s *Server) createUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.config.CORSOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// handleEvents upgrades the connection and streams change events to it.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := s.createUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Connection{
		ID:   uuid.NewString(),
		Send: make(chan entities.ChangeEvent, 16),
	}
	s.connMgr.RegisterConnection(client)
	s.logger.Debug("client connected", "client", client.ID)

	go s.writePump(conn, client)
	go s.readPump(conn, client)
}

// writePump forwards change events to the peer and keeps it alive with
// pings. It exits when the Send channel closes.
func (s *Server) writePump(conn *websocket.Conn, client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload := wireEvent{
				Filter:    event.Filter,
				Kind:      event.Kind.String(),
				Timestamp: event.Timestamp,
			}
			if err := conn.WriteJSON(payload); err != nil {
				s.connMgr.Unregister(client.ID)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.connMgr.Unregister(client.ID)
				return
			}
		}
	}
}

// readPump discards client messages and unregisters on disconnect.
func (s *Server) readPump(conn *websocket.Conn, client *Connection) {
	defer func() {
		s.connMgr.Unregister(client.ID)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.logger.Debug("client disconnected", "client", client.ID)
			return
		}
	}
}
