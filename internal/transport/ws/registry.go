package ws

import (
	"sync"
)

// Registry — единственный источник правды «кто онлайн».
// Отдельно держит все открытые соединения (для presence и liveness)
// и привязку identity → канал → соединение.
type Registry struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}
	users map[string]map[Channel]Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[Conn]struct{}),
		users: make(map[string]map[Channel]Conn),
	}
}

// Track регистрирует открытое соединение до аутентификации
func (r *Registry) Track(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
}

// Register привязывает identity к соединению. Повторная аутентификация
// на том же канале вытесняет прежнее соединение; закрытие вытесненного
// происходит уже после снятия блокировки.
func (r *Registry) Register(userID string, c Conn) {
	r.mu.Lock()

	byChannel, ok := r.users[userID]
	if !ok {
		byChannel = make(map[Channel]Conn)
		r.users[userID] = byChannel
	}

	var evicted Conn
	if prior, ok := byChannel[c.Channel()]; ok && prior != c {
		evicted = prior
		delete(r.conns, prior)
	}
	byChannel[c.Channel()] = c
	r.conns[c] = struct{}{}

	r.mu.Unlock()

	if evicted != nil {
		_ = evicted.Close()
	}
}

func (r *Registry) Lookup(userID string, ch Channel) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.users[userID][ch]
	return c, ok
}

// Remove удаляет соединение; повторный вызов — no-op. Запись identity
// снимается только если всё ещё указывает на это соединение (после
// вытеснения она уже принадлежит новому).
func (r *Registry) Remove(c Conn) (userID string, hadIdentity bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, tracked := r.conns[c]; !tracked {
		return "", false
	}
	delete(r.conns, c)

	id, ok := c.Identity()
	if !ok {
		return "", false
	}
	if r.dropBinding(id.ID, c) {
		return id.ID, true
	}
	return "", false
}

// Unbind снимает привязку identity → канал, если она всё ещё указывает
// на это соединение. Само соединение остаётся открытым и отслеживаемым;
// нужен при повторной аутентификации под другим identity.
func (r *Registry) Unbind(userID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropBinding(userID, c)
}

// вызывается под r.mu
func (r *Registry) dropBinding(userID string, c Conn) bool {
	if cur, ok := r.users[userID][c.Channel()]; ok && cur == c {
		delete(r.users[userID], c.Channel())
		if len(r.users[userID]) == 0 {
			delete(r.users, userID)
		}
		return true
	}
	return false
}

// Conns — снапшот всех открытых соединений
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}
