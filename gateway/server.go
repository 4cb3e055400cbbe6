package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arrebarritra/inviwo/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds the per-client queue; a client that cannot keep
	// up is dropped rather than stalling the broadcast.
	sendBuffer = 64
)

// Server fans out events to connected websocket clients
type Server struct {
	addr     string
	path     string
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	server  *http.Server
}

// NewServer creates a gateway server; empty addr and path default to
// ":8080" and "/ws"
func NewServer(addr, path string, logger *slog.Logger) *Server {
	if addr == "" {
		addr = ":8080"
	}
	if path == "" {
		path = "/ws"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:   addr,
		path:   path,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The gateway serves local editor frontends.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Handler returns the websocket upgrade handler, for mounting on an
// existing mux
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

// Start runs the HTTP server; it blocks until Stop or failure
func (s *Server) Start() error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("server already running"),
			"Server", "Start", "lifecycle check")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWS)
	s.server = &http.Server{Addr: s.addr, Handler: mux}
	server := s.server
	s.mu.Unlock()

	s.logger.Info("gateway listening", "addr", s.addr, "path", s.path)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Server", "Start",
			fmt.Sprintf("serve on %s", s.addr))
	}
	return nil
}

// Stop disconnects all clients and closes the server
func (s *Server) Stop() error {
	s.mu.Lock()
	for conn, send := range s.clients {
		close(send)
		delete(s.clients, conn)
	}
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Close(); err != nil {
		return errors.WrapTransient(err, "Server", "Stop", "close HTTP server")
	}
	return nil
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends an event to every connected client. Clients with a
// full send queue are dropped.
func (s *Server) Broadcast(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("event encoding failed", "type", e.Type, "error", err)
		return
	}

	var stale []*websocket.Conn
	s.mu.RLock()
	for conn, send := range s.clients {
		select {
		case send <- data:
		default:
			stale = append(stale, conn)
		}
	}
	s.mu.RUnlock()

	for _, conn := range stale {
		s.logger.Warn("dropping slow gateway client", "remote", conn.RemoteAddr())
		s.removeClient(conn)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan []byte, sendBuffer)
	s.mu.Lock()
	s.clients[conn] = send
	s.mu.Unlock()
	s.logger.Info("gateway client connected", "remote", conn.RemoteAddr())

	go s.writePump(conn, send)
	go s.readPump(conn)
}

// writePump owns all writes to one connection
func (s *Server) writePump(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.removeClient(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.removeClient(conn)
				return
			}
		}
	}
}

// readPump discards inbound frames and notices when the client goes away
func (s *Server) readPump(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.removeClient(conn)
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	send, ok := s.clients[conn]
	if ok {
		close(send)
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	if ok {
		s.logger.Info("gateway client disconnected", "remote", conn.RemoteAddr())
	}
}
