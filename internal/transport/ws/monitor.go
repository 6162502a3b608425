package ws

import (
	"context"
	"log/slog"
	"time"
)

// LivenessMonitor периодически пингует все открытые соединения.
// Кто не ответил pong-ом за цикл — принудительно закрывается и
// проходит тот же cleanup, что и при обычном close.
type LivenessMonitor struct {
	registry *Registry
	cleanup  func(Conn)
	interval time.Duration
}

func NewLivenessMonitor(registry *Registry, cleanup func(Conn), interval time.Duration) *LivenessMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &LivenessMonitor{
		registry: registry,
		cleanup:  cleanup,
		interval: interval,
	}
}

func (m *LivenessMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *LivenessMonitor) Sweep() {
	for _, c := range m.registry.Conns() {
		if !c.Alive() {
			slog.Info("evicting dead connection", "conn", c.ID(), "channel", c.Channel())
			_ = c.Close()
			m.cleanup(c)
			continue
		}
		c.SetAlive(false)
		if err := c.Ping(); err != nil {
			slog.Debug("ping failed", "conn", c.ID(), "err", err)
			_ = c.Close()
			m.cleanup(c)
		}
	}
}
