package inspect

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"

	"github.com/zeusync/behave/internal/core/observability/log"
)

var ErrClosed = errors.New("inspector closed")

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server fans frames out to websocket viewers. Slow viewers miss frames instead
// of blocking the broadcaster.
type Server struct {
	upgrader websocket.Upgrader
	logger   log.Log

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewServer(logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger.Named("inspect"),
		clients: make(map[*client]struct{}),
	}
}

// Handler upgrades requests to websocket viewers.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !s.add(c) {
		_ = conn.Close()
		return
	}
	s.logger.Debug("viewer connected", log.String("remote", conn.RemoteAddr().String()))

	go s.readLoop(c)
	s.writeLoop(c)
}

// readLoop only detects disconnects; viewers have nothing to say.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.remove(c)
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()

	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.remove(c)
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "inspector closed"))
}

func (s *Server) add(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
		s.logger.Debug("viewer disconnected")
	}
}

// Broadcast encodes v as JSON once and queues it for every viewer.
func (s *Server) Broadcast(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode frame")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
		}
	}
	return nil
}

// Clients returns the number of connected viewers.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every viewer and refuses new ones.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}
