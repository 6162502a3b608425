package ws

import (
	"log/slog"
)

// PresenceBroadcaster рассылает userStatus всем открытым соединениям,
// включая ещё не аутентифицированные, кроме самого переходящего.
type PresenceBroadcaster struct {
	registry *Registry
}

func NewPresenceBroadcaster(registry *Registry) *PresenceBroadcaster {
	return &PresenceBroadcaster{registry: registry}
}

func (b *PresenceBroadcaster) Broadcast(userID string, online bool, except Conn) {
	msg := Envelope{
		Event: EventUserStatus,
		Data:  userStatusData{UserID: userID, IsOnline: online},
	}
	for _, c := range b.registry.Conns() {
		if c == except {
			continue
		}
		if err := c.Send(msg); err != nil { // best-effort
			slog.Debug("presence send failed", "conn", c.ID(), "err", err)
		}
	}
}
