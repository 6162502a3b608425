package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cwrk-planet/realtime-service/internal/domain"
)

type CredentialVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// Store — внешний коллаборатор для чатов/комнат/профилей/координат
type Store interface {
	FindRoom(ctx context.Context, userA, userB string) (*domain.Room, error)
	CreateRoom(ctx context.Context, userA, userB string) (*domain.Room, error)
	CreateChat(ctx context.Context, roomID, senderID, receiverID, text string, images []string) (*domain.Chat, error)
	ListChats(ctx context.Context, roomID string) ([]domain.Chat, error)
	MarkRead(ctx context.Context, roomID, receiverID string) error
	UnreadChats(ctx context.Context, roomID, receiverID string) ([]domain.Chat, error)
	ListRoomsFor(ctx context.Context, userID string) ([]domain.RoomWithLastChat, error)
	UserSummaries(ctx context.Context, ids []string) ([]domain.UserSummary, error)
	UpdateUserLocation(ctx context.Context, userID string, lat, lng float64) error
}

// Router разбирает входящие конверты, держит auth-гейт и диспатчит
// события по обработчикам. Все зависимости инжектируются — ядро
// тестируется без реального транспорта.
type Router struct {
	registry  *Registry
	subs      *SubscriptionIndex
	presence  *PresenceBroadcaster
	locations *LocationCache
	verifier  CredentialVerifier
	store     Store
}

func NewRouter(
	registry *Registry,
	subs *SubscriptionIndex,
	presence *PresenceBroadcaster,
	locations *LocationCache,
	verifier CredentialVerifier,
	store Store,
) *Router {
	return &Router{
		registry:  registry,
		subs:      subs,
		presence:  presence,
		locations: locations,
		verifier:  verifier,
		store:     store,
	}
}

func (rt *Router) Handle(ctx context.Context, c Conn, raw []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}

	if env.Event == EventAuthenticate {
		rt.handleAuthenticate(c, raw)
		return
	}

	id, ok := c.Identity()
	if !ok {
		_ = c.Send(errorEnvelope("Please authenticate first"))
		return
	}

	switch env.Event {
	case EventLocationUpdate:
		rt.handleLocationUpdate(ctx, c, id, raw)
	case EventSubscribeToLocation:
		rt.handleSubscribe(c, raw)
	case EventMessage:
		rt.handleChatMessage(ctx, c, id, raw)
	case EventFetchChats:
		rt.handleFetchChats(ctx, c, id, raw)
	case EventUnreadMessages:
		rt.handleUnreadMessages(ctx, c, id, raw)
	case EventMessageList:
		rt.handleMessageList(ctx, c, id)
	case EventCallUser:
		rt.handleCallUser(c, id, raw)
	case EventAnswerCall:
		rt.handleAnswerCall(c, id, raw)
	case EventIceCandidate:
		rt.handleIceCandidate(c, id, raw)
	case EventDisconnectCall:
		rt.handleDisconnectCall(c, id, raw)
	default:
		slog.Debug("unknown event", "event", env.Event, "conn", c.ID())
		_ = c.Send(errorEnvelope("Unknown event type"))
	}
}

// Политика отказа аутентификации одна для всех каналов:
// error-конверт, затем закрытие соединения.
func (rt *Router) handleAuthenticate(c Conn, raw []byte) {
	var p authenticatePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Token == "" {
		_ = c.Send(errorEnvelope("Invalid or expired token"))
		_ = c.Close()
		return
	}

	id, err := rt.verifier.Verify(p.Token)
	if err != nil {
		slog.Debug("authenticate failed", "conn", c.ID(), "err", err)
		_ = c.Send(errorEnvelope("Invalid or expired token"))
		_ = c.Close()
		return
	}

	// повторная аутентификация под другим identity: старая привязка
	// снимается сразу, иначе она переживёт закрытие соединения
	if prev, ok := c.Identity(); ok && prev.ID != id.ID {
		if rt.registry.Unbind(prev.ID, c) {
			rt.presence.Broadcast(prev.ID, false, c)
			slog.Info("user went offline", "user", prev.ID, "channel", c.Channel())
		}
	}

	c.BindIdentity(id)
	rt.registry.Register(id.ID, c)

	_ = c.Send(Envelope{
		Event: EventAuthenticated,
		Data:  authenticatedData{UserID: id.ID, Role: string(id.Role), Name: id.Name},
	})
	rt.presence.Broadcast(id.ID, true, c)

	slog.Info("user authenticated", "user", id.ID, "role", id.Role, "channel", c.Channel())
}

// Cleanup — терминальная, идемпотентная очистка соединения; общий путь
// для естественного close и liveness-эвикции
func (rt *Router) Cleanup(c Conn) {
	rt.subs.DropSubscriber(c)

	userID, hadIdentity := rt.registry.Remove(c)
	if hadIdentity {
		rt.presence.Broadcast(userID, false, c)
		slog.Info("user went offline", "user", userID, "channel", c.Channel())
	}
}
