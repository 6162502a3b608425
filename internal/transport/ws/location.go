package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/realtime-service/internal/domain"
)

// LocationCache — последняя известная координата по identity,
// most-recent-write-wins, живёт до конца процесса
type LocationCache struct {
	mu      sync.RWMutex
	records map[string]domain.Location
}

func NewLocationCache() *LocationCache {
	return &LocationCache{records: make(map[string]domain.Location)}
}

func (l *LocationCache) Set(userID string, loc domain.Location) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[userID] = loc
}

func (l *LocationCache) Get(userID string) (domain.Location, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	loc, ok := l.records[userID]
	return loc, ok
}

func (rt *Router) handleLocationUpdate(ctx context.Context, c Conn, id domain.Identity, raw []byte) {
	var p locationUpdatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}
	// без координат событие молча игнорируется
	if p.Lat == nil || p.Lng == nil {
		return
	}

	loc := domain.Location{Lat: *p.Lat, Lng: *p.Lng}
	rt.locations.Set(id.ID, loc)

	// зеркалирование в хранилище best-effort, фан-аут от него не зависит
	if err := rt.store.UpdateUserLocation(ctx, id.ID, loc.Lat, loc.Lng); err != nil {
		slog.Debug("location persist failed", "user", id.ID, "err", err)
	}

	out := Envelope{
		Event: EventLocationUpdate,
		Data:  locationData{UserID: id.ID, Lat: loc.Lat, Lng: loc.Lng},
	}
	for _, sub := range rt.subs.Subscribers(id.ID) {
		if err := sub.Send(out); err != nil {
			slog.Debug("location fanout failed", "conn", sub.ID(), "err", err)
		}
	}
}

func (rt *Router) handleSubscribe(c Conn, raw []byte) {
	var p subscribePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}
	if p.TargetUserID == "" {
		return
	}
	rt.subs.Subscribe(p.TargetUserID, c)
}
