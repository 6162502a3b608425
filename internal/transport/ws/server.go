package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server апгрейдит HTTP-запросы в websocket и гоняет read loop.
// Вся маршрутизация событий — в Router, транспорт здесь заканчивается.
type Server struct {
	upgrader  websocket.Upgrader
	registry  *Registry
	router    *Router
	readLimit int64
}

func NewServer(registry *Registry, router *Router, readLimit int64) *Server {
	if readLimit <= 0 {
		readLimit = 1 << 20
	}
	return &Server{
		registry: registry,
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		readLimit: readLimit,
	}
}

// WS endpoint: GET /ws/chat
func (s *Server) HandleChat(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, ChannelChat)
}

// WS endpoint: GET /ws/location
func (s *Server) HandleLocation(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, ChannelLocation)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, channel Channel) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "channel", channel, "err", err)
		return
	}

	c := newWSConn(conn, channel)
	s.registry.Track(c)
	slog.Info("connection opened", "conn", c.ID(), "channel", channel)

	s.readLoop(r, c)

	// cleanup идемпотентен: liveness-эвикция могла успеть раньше
	s.router.Cleanup(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.ID(), "err", err)
	}
	slog.Info("connection closed", "conn", c.ID(), "channel", channel)
}

func (s *Server) readLoop(r *http.Request, c *wsConn) {
	c.conn.SetReadLimit(s.readLimit)
	c.conn.SetPongHandler(func(string) error {
		c.SetAlive(true)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.router.Handle(r.Context(), c, data)
	}
}
