// Package server exposes the room engines over WebSocket. Clients
// speak the Message envelope; engine events are relayed into the same
// envelope by the per-room broadcaster.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"pokerroomd/internal/game"
)

const shutdownTimeout = 5 * time.Second

// Server accepts WebSocket clients and routes engine events to them.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	rooms       *Rooms
	metrics     *Metrics
	metricsPath string
}

// NewServer creates a WebSocket server listening on addr once Run is
// called.
func NewServer(addr string, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	go s.run()
	return s
}

// SetRooms wires the room registry. Must be called before Run.
func (s *Server) SetRooms(rooms *Rooms) {
	s.rooms = rooms
}

// Rooms returns the room registry.
func (s *Server) Rooms() *Rooms {
	return s.rooms
}

// SetMetrics enables prometheus exposure at path.
func (s *Server) SetMetrics(m *Metrics, path string) {
	s.metrics = m
	s.metricsPath = path
}

// Handler builds the HTTP mux: /ws, /health, and metrics when
// enabled.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil && s.metricsPath != "" {
		mux.Handle(s.metricsPath, s.metrics.Handler())
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("Listening", "addr", s.addr)

	select {
	case err := <-errc:
		s.cancel()
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeConnections()
		s.cancel()
		return err
	}
}

// Stop cancels the lifecycle loop and closes every connection. Run
// performs the same teardown; Stop covers servers driven through
// Handler directly.
func (s *Server) Stop() {
	s.cancel()
	s.closeConnections()
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

// run handles connection lifecycle.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			if s.metrics != nil {
				s.metrics.ConnectedClients.Inc()
			}
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()
			if ok {
				// The seat stays; an absent player folds on timeout
				// until they reconnect.
				_ = conn.Close()
				if s.metrics != nil {
					s.metrics.ConnectedClients.Dec()
				}
				s.logger.Info("Client disconnected", "user", conn.UserID(), "total", total)
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s, s.logger)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		select {
		case <-client.ctx.Done():
			select {
			case s.unregister <- client:
			case <-s.ctx.Done():
			}
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// BroadcastToRoom sends an engine event to every connection in a room.
func (s *Server) BroadcastToRoom(roomID, event string, payload interface{}) {
	if s.metrics != nil {
		s.metrics.ObserveBroadcast(roomID, event, payload)
	}

	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		s.logger.Error("Failed to encode event", "event", event, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.RoomID() == roomID {
			if err := conn.Send(msg); err == nil {
				count++
			}
		}
	}
	s.logger.Debug("Broadcast", "room", roomID, "type", event, "recipients", count)
}

// SendToUser sends an engine event to every socket a user holds in a
// room.
func (s *Server) SendToUser(roomID, userID, event string, payload interface{}) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		s.logger.Error("Failed to encode event", "event", event, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.RoomID() == roomID && conn.UserID() == userID {
			_ = conn.Send(msg)
		}
	}
}

func (s *Server) observeSeated(roomID string, players int) {
	if s.metrics != nil {
		s.metrics.SeatedPlayers.WithLabelValues(roomID).Set(float64(players))
	}
}

// RoomBroadcaster returns the game.Broadcaster for one room.
func (s *Server) RoomBroadcaster(roomID string) game.Broadcaster {
	return &roomBroadcaster{server: s, roomID: roomID}
}

type roomBroadcaster struct {
	server *Server
	roomID string
}

var _ game.Broadcaster = (*roomBroadcaster)(nil)

func (b *roomBroadcaster) Broadcast(event string, payload interface{}) {
	b.server.BroadcastToRoom(b.roomID, event, payload)
}

func (b *roomBroadcaster) SendPrivate(userID string, event string, payload interface{}) {
	b.server.SendToUser(b.roomID, userID, event, payload)
}
