package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"scenesync/internal/config"
	"scenesync/internal/router"
	"scenesync/internal/session"
	"scenesync/internal/version"
)

// Server accepts WebSocket connections and feeds them to the router.
type Server struct {
	cfg      config.ServerConfig
	rt       *router.Router
	rooms    *session.RoomRegistry
	clients  *session.ClientRegistry
	logger   *slog.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// New creates a Server. The registries are only read for health reporting;
// all mutation goes through the router.
func New(cfg config.ServerConfig, rt *router.Router, clients *session.ClientRegistry, rooms *session.RoomRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		rt:      rt,
		rooms:   rooms,
		clients: clients,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	if cfg.AllowAnyOrigin {
		s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the HTTP handler: the WebSocket endpoint plus health and
// debug endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.WSPath, s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/debug/rooms", s.handleDebugRooms)
	return mux
}

// Start begins serving and blocks until the listener fails or Stop is
// called. A closed-server error is not reported as a failure.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr, "ws_path", s.cfg.WSPath)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// handleWS upgrades the connection and runs its read loop. The read loop is
// the connection's single reader, preserving per-connection message order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	wc := newWSConn(conn, s.cfg.WriteTimeout)
	s.logger.Debug("connection opened", "remote", r.RemoteAddr)

	conn.SetReadLimit(s.cfg.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	done := make(chan struct{})
	go s.pingLoop(wc, done)

	defer func() {
		close(done)
		wc.close()
		s.rt.HandleDisconnect(wc)
		s.logger.Debug("connection closed", "remote", r.RemoteAddr)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		s.rt.HandleMessage(wc, data)
	}
}

// pingLoop keeps the connection alive and lets the read deadline detect
// dead peers.
func (s *Server) pingLoop(wc *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			wc.writeMu.Lock()
			err := wc.conn.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(s.cfg.WriteTimeout),
			)
			wc.writeMu.Unlock()
			if err != nil {
				s.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

// handleHealth reports server liveness and component stats.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status     string         `json:"status"`
		Version    string         `json:"version"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Version:    version.Version,
		Components: make(map[string]any),
	}

	health.Components["rooms"] = s.rooms.Stats()
	health.Components["clients"] = map[string]int{"connected": s.clients.Len()}
	health.Components["router"] = s.rt.Stats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleDebugRooms dumps live room summaries.
func (s *Server) handleDebugRooms(w http.ResponseWriter, r *http.Request) {
	summaries := s.rooms.Summaries()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(summaries),
		"rooms": summaries,
	})
}
