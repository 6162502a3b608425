package ws

import (
	"sync"
	"time"

	"github.com/cwrk-planet/realtime-service/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Channel — логический канал подключения
type Channel string

const (
	ChannelChat     Channel = "chat"
	ChannelLocation Channel = "location"
)

type Conn interface {
	ID() string
	Channel() Channel
	Identity() (domain.Identity, bool)
	BindIdentity(domain.Identity)
	Send(msg Envelope) error
	Ping() error
	Alive() bool
	SetAlive(bool)
	Close() error
}

type wsConn struct {
	id      string
	channel Channel
	conn    *websocket.Conn

	sendMu chan struct{}
	closed chan struct{}

	mu       sync.Mutex
	identity domain.Identity
	authed   bool
	alive    bool
}

func newWSConn(c *websocket.Conn, channel Channel) *wsConn {
	return &wsConn{
		id:      uuid.NewString(),
		channel: channel,
		conn:    c,
		sendMu:  make(chan struct{}, 1),
		closed:  make(chan struct{}),
		alive:   true,
	}
}

func (c *wsConn) ID() string       { return c.id }
func (c *wsConn) Channel() Channel { return c.channel }

func (c *wsConn) Identity() (domain.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity, c.authed
}

func (c *wsConn) BindIdentity(id domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
	c.authed = true
}

func (c *wsConn) Send(msg Envelope) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

// Ping шлёт control-фрейм; в gorilla он может идти параллельно с WriteJSON
func (c *wsConn) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (c *wsConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *wsConn) SetAlive(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = v
}

// Close идемпотентен: eviction и обычный close могут гоняться
func (c *wsConn) Close() error {
	c.mu.Lock()
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	c.mu.Unlock()

	return c.conn.Close()
}
