package ws

import (
	"sync"
)

// SubscriptionIndex — targetUserID → множество подписанных соединений.
// Подписка живёт, пока жив подписчик; отключение цели её не снимает.
type SubscriptionIndex struct {
	mu   sync.RWMutex
	subs map[string]map[Conn]struct{}
}

func NewSubscriptionIndex() *SubscriptionIndex {
	return &SubscriptionIndex{subs: make(map[string]map[Conn]struct{})}
}

func (s *SubscriptionIndex) Subscribe(targetUserID string, c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.subs[targetUserID]
	if !ok {
		set = make(map[Conn]struct{})
		s.subs[targetUserID] = set
	}
	set[c] = struct{}{}
}

func (s *SubscriptionIndex) Subscribers(targetUserID string) []Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.subs[targetUserID]
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// DropSubscriber снимает соединение со всех целей; вызывается при close
func (s *SubscriptionIndex) DropSubscriber(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for target, set := range s.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(s.subs, target)
		}
	}
}
