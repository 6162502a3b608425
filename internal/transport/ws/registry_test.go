package ws

import (
	"testing"

	"github.com/cwrk-planet/realtime-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedConn(id string, channel Channel, userID string) *fakeConn {
	c := newFakeConn(id, channel)
	c.BindIdentity(domain.Identity{ID: userID, Role: domain.RoleClient})
	return c
}

func TestRegistryRegisterEvictsSameChannel(t *testing.T) {
	r := NewRegistry()

	old := authedConn("c1", ChannelChat, "u1")
	r.Track(old)
	r.Register("u1", old)

	fresh := authedConn("c2", ChannelChat, "u1")
	r.Track(fresh)
	r.Register("u1", fresh)

	assert.True(t, old.isClosed(), "prior connection on the same channel must be closed")

	got, ok := r.Lookup("u1", ChannelChat)
	require.True(t, ok)
	assert.Same(t, fresh, got.(*fakeConn))
	assert.Len(t, r.Conns(), 1)
}

func TestRegistryRegisterKeepsOtherChannel(t *testing.T) {
	r := NewRegistry()

	chat := authedConn("c1", ChannelChat, "u1")
	r.Track(chat)
	r.Register("u1", chat)

	loc := authedConn("c2", ChannelLocation, "u1")
	r.Track(loc)
	r.Register("u1", loc)

	assert.False(t, chat.isClosed(), "connection on another channel must survive")

	got, ok := r.Lookup("u1", ChannelChat)
	require.True(t, ok)
	assert.Same(t, chat, got.(*fakeConn))

	got, ok = r.Lookup("u1", ChannelLocation)
	require.True(t, ok)
	assert.Same(t, loc, got.(*fakeConn))
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	r := NewRegistry()

	c := authedConn("c1", ChannelChat, "u1")
	r.Track(c)
	r.Register("u1", c)

	userID, had := r.Remove(c)
	require.True(t, had)
	assert.Equal(t, "u1", userID)

	// повторное удаление — no-op
	userID, had = r.Remove(c)
	assert.False(t, had)
	assert.Empty(t, userID)

	_, ok := r.Lookup("u1", ChannelChat)
	assert.False(t, ok)
}

func TestRegistryRemoveOfEvictedKeepsNewEntry(t *testing.T) {
	r := NewRegistry()

	old := authedConn("c1", ChannelChat, "u1")
	r.Track(old)
	r.Register("u1", old)

	fresh := authedConn("c2", ChannelChat, "u1")
	r.Track(fresh)
	r.Register("u1", fresh)

	// закрытие вытесненного соединения не должно снимать новую запись
	userID, had := r.Remove(old)
	assert.False(t, had)
	assert.Empty(t, userID)

	got, ok := r.Lookup("u1", ChannelChat)
	require.True(t, ok)
	assert.Same(t, fresh, got.(*fakeConn))
}

func TestRegistryUnbindKeepsConnTracked(t *testing.T) {
	r := NewRegistry()

	c := authedConn("c1", ChannelChat, "u1")
	r.Track(c)
	r.Register("u1", c)

	assert.True(t, r.Unbind("u1", c))

	_, ok := r.Lookup("u1", ChannelChat)
	assert.False(t, ok)
	assert.Len(t, r.Conns(), 1, "connection itself must stay tracked")
	assert.False(t, c.isClosed())

	// повторный Unbind — no-op
	assert.False(t, r.Unbind("u1", c))
}

func TestRegistryUnbindIgnoresForeignBinding(t *testing.T) {
	r := NewRegistry()

	old := authedConn("c1", ChannelChat, "u1")
	r.Track(old)
	r.Register("u1", old)

	fresh := authedConn("c2", ChannelChat, "u1")
	r.Track(fresh)
	r.Register("u1", fresh)

	// привязка уже принадлежит новому соединению
	assert.False(t, r.Unbind("u1", old))

	got, ok := r.Lookup("u1", ChannelChat)
	require.True(t, ok)
	assert.Same(t, fresh, got.(*fakeConn))
}

func TestRegistryRemoveUnauthenticated(t *testing.T) {
	r := NewRegistry()

	c := newFakeConn("c1", ChannelChat)
	r.Track(c)

	userID, had := r.Remove(c)
	assert.False(t, had)
	assert.Empty(t, userID)
	assert.Empty(t, r.Conns())
}
