package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cwrk-planet/realtime-service/internal/domain"
)

// fakeConn — соединение без транспорта для тестов ядра
type fakeConn struct {
	mu       sync.Mutex
	id       string
	channel  Channel
	identity domain.Identity
	authed   bool
	alive    bool
	closed   bool
	pings    int
	sent     []Envelope
}

func newFakeConn(id string, channel Channel) *fakeConn {
	return &fakeConn{id: id, channel: channel, alive: true}
}

func (c *fakeConn) ID() string       { return c.id }
func (c *fakeConn) Channel() Channel { return c.channel }

func (c *fakeConn) Identity() (domain.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity, c.authed
}

func (c *fakeConn) BindIdentity(id domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
	c.authed = true
}

func (c *fakeConn) Send(msg Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("conn closed")
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("conn closed")
	}
	c.pings++
	return nil
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *fakeConn) SetAlive(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = v
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) envelopes() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) events() []string {
	var out []string
	for _, e := range c.envelopes() {
		out = append(out, e.Event)
	}
	return out
}

func (c *fakeConn) lastError() string {
	var msg string
	for _, e := range c.envelopes() {
		if e.Event == EventError {
			msg = e.Message
		}
	}
	return msg
}

func (c *fakeConn) count(event string) int {
	n := 0
	for _, e := range c.envelopes() {
		if e.Event == event {
			n++
		}
	}
	return n
}

// fakeVerifier — токен → identity по таблице
type fakeVerifier struct {
	identities map[string]domain.Identity
}

func (v *fakeVerifier) Verify(token string) (domain.Identity, error) {
	id, ok := v.identities[token]
	if !ok {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return id, nil
}

// fakeStore — хранилище в памяти со счётчиками вызовов
type fakeStore struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room // ключ "a|b" в нормализованном порядке
	chats map[string][]domain.Chat
	users map[string]domain.UserSummary
	locs  map[string]domain.Location

	findRoomCalls   int
	createRoomCalls int
	createChatCalls int
	listChatsCalls  int
	markReadCalls   int
	unreadCalls     int

	failCreateChat bool
	failLocation   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: make(map[string]*domain.Room),
		chats: make(map[string][]domain.Chat),
		users: make(map[string]domain.UserSummary),
		locs:  make(map[string]domain.Location),
	}
}

func pairID(a, b string) string {
	x, y := domain.PairKey(a, b)
	return x + "|" + y
}

func (s *fakeStore) FindRoom(_ context.Context, userA, userB string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findRoomCalls++
	room, ok := s.rooms[pairID(userA, userB)]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (s *fakeStore) CreateRoom(_ context.Context, userA, userB string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createRoomCalls++
	a, b := domain.PairKey(userA, userB)
	room := &domain.Room{ID: pairID(a, b), UserA: a, UserB: b}
	s.rooms[room.ID] = room
	return room, nil
}

func (s *fakeStore) CreateChat(_ context.Context, roomID, senderID, receiverID, text string, images []string) (*domain.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createChatCalls++
	if s.failCreateChat {
		return nil, errors.New("store unavailable")
	}
	chat := domain.Chat{
		ID:         fmt.Sprintf("chat-%d", s.createChatCalls),
		RoomID:     roomID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Images:     images,
	}
	s.chats[roomID] = append(s.chats[roomID], chat)
	return &chat, nil
}

func (s *fakeStore) ListChats(_ context.Context, roomID string) ([]domain.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listChatsCalls++
	return s.chats[roomID], nil
}

func (s *fakeStore) MarkRead(_ context.Context, roomID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markReadCalls++
	msgs := s.chats[roomID]
	for i := range msgs {
		if msgs[i].ReceiverID == receiverID {
			msgs[i].Read = true
		}
	}
	return nil
}

func (s *fakeStore) UnreadChats(_ context.Context, roomID, receiverID string) ([]domain.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreadCalls++
	var out []domain.Chat
	for _, m := range s.chats[roomID] {
		if m.ReceiverID == receiverID && !m.Read {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) ListRoomsFor(_ context.Context, userID string) ([]domain.RoomWithLastChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RoomWithLastChat
	for _, room := range s.rooms {
		if room.UserA != userID && room.UserB != userID {
			continue
		}
		item := domain.RoomWithLastChat{Room: *room}
		if msgs := s.chats[room.ID]; len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			item.LastChat = &last
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *fakeStore) UserSummaries(_ context.Context, ids []string) ([]domain.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserSummary
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateUserLocation(_ context.Context, userID string, lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLocation {
		return errors.New("store unavailable")
	}
	s.locs[userID] = domain.Location{Lat: lat, Lng: lng}
	return nil
}
