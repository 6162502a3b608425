package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/cwrk-planet/realtime-service/internal/domain"
)

// resolveRoom находит или создаёт комнату пары; блокировок реестра
// здесь нет — вызовы хранилища не должны тормозить другие соединения
func (rt *Router) resolveRoom(ctx context.Context, userA, userB string, create bool) (*domain.Room, error) {
	room, err := rt.store.FindRoom(ctx, userA, userB)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, domain.ErrRoomNotFound) {
		return nil, err
	}
	if !create {
		return nil, err
	}
	return rt.store.CreateRoom(ctx, userA, userB)
}

func (rt *Router) handleChatMessage(ctx context.Context, c Conn, id domain.Identity, raw []byte) {
	var p chatMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}
	if p.ReceiverID == "" || (strings.TrimSpace(p.Message) == "" && len(p.Images) == 0) {
		_ = c.Send(errorEnvelope("Invalid message payload"))
		return
	}

	room, err := rt.resolveRoom(ctx, id.ID, p.ReceiverID, true)
	if err != nil {
		slog.Error("resolve room failed", "sender", id.ID, "receiver", p.ReceiverID, "err", err)
		_ = c.Send(errorEnvelope("Failed to send message"))
		return
	}

	chat, err := rt.store.CreateChat(ctx, room.ID, id.ID, p.ReceiverID, p.Message, p.Images)
	if err != nil {
		slog.Error("persist chat failed", "room", room.ID, "sender", id.ID, "err", err)
		_ = c.Send(errorEnvelope("Failed to send message"))
		return
	}

	out := Envelope{Event: EventMessage, Data: chat}
	if rc, ok := rt.registry.Lookup(p.ReceiverID, c.Channel()); ok {
		if err := rc.Send(out); err != nil {
			slog.Debug("chat delivery failed", "receiver", p.ReceiverID, "err", err)
		}
	}
	// эхо отправителю — всегда, независимо от статуса получателя
	_ = c.Send(out)
}

func (rt *Router) handleFetchChats(ctx context.Context, c Conn, id domain.Identity, raw []byte) {
	var p receiverPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}
	if p.ReceiverID == "" {
		_ = c.Send(errorEnvelope("receiverId is required"))
		return
	}

	room, err := rt.resolveRoom(ctx, id.ID, p.ReceiverID, false)
	if errors.Is(err, domain.ErrRoomNotFound) {
		_ = c.Send(Envelope{Event: EventNoRoomFound})
		return
	}
	if err != nil {
		slog.Error("find room failed", "user", id.ID, "peer", p.ReceiverID, "err", err)
		_ = c.Send(errorEnvelope("Failed to fetch chats"))
		return
	}

	chats, err := rt.store.ListChats(ctx, room.ID)
	if err != nil {
		slog.Error("list chats failed", "room", room.ID, "err", err)
		_ = c.Send(errorEnvelope("Failed to fetch chats"))
		return
	}
	// входящие помечаются прочитанными; сбой не рушит выдачу истории
	if err := rt.store.MarkRead(ctx, room.ID, id.ID); err != nil {
		slog.Warn("mark read failed", "room", room.ID, "user", id.ID, "err", err)
	}

	_ = c.Send(Envelope{Event: EventChats, Data: chats})
}

func (rt *Router) handleUnreadMessages(ctx context.Context, c Conn, id domain.Identity, raw []byte) {
	var p receiverPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}
	if p.ReceiverID == "" {
		_ = c.Send(errorEnvelope("receiverId is required"))
		return
	}

	room, err := rt.resolveRoom(ctx, id.ID, p.ReceiverID, false)
	if errors.Is(err, domain.ErrRoomNotFound) {
		_ = c.Send(Envelope{
			Event: EventNoUnreadMessages,
			Data:  unreadData{Count: 0, Messages: []domain.Chat{}},
		})
		return
	}
	if err != nil {
		slog.Error("find room failed", "user", id.ID, "peer", p.ReceiverID, "err", err)
		_ = c.Send(errorEnvelope("Failed to fetch unread messages"))
		return
	}

	msgs, err := rt.store.UnreadChats(ctx, room.ID, id.ID)
	if err != nil {
		slog.Error("list unread failed", "room", room.ID, "err", err)
		_ = c.Send(errorEnvelope("Failed to fetch unread messages"))
		return
	}
	if msgs == nil {
		msgs = []domain.Chat{}
	}

	_ = c.Send(Envelope{
		Event: EventUnreadMessages,
		Data:  unreadData{Count: len(msgs), Messages: msgs},
	})
}

func (rt *Router) handleMessageList(ctx context.Context, c Conn, id domain.Identity) {
	rooms, err := rt.store.ListRoomsFor(ctx, id.ID)
	if err != nil {
		slog.Error("list rooms failed", "user", id.ID, "err", err)
		_ = c.Send(errorEnvelope("Failed to fetch message list"))
		return
	}

	peerIDs := make([]string, 0, len(rooms))
	for _, r := range rooms {
		peerIDs = append(peerIDs, r.Room.Other(id.ID))
	}

	summaries, err := rt.store.UserSummaries(ctx, peerIDs)
	if err != nil {
		slog.Error("user summaries failed", "user", id.ID, "err", err)
		_ = c.Send(errorEnvelope("Failed to fetch message list"))
		return
	}
	byID := make(map[string]domain.UserSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}

	items := make([]dialogItem, 0, len(rooms))
	for _, r := range rooms {
		peer := r.Room.Other(id.ID)
		summary, ok := byID[peer]
		if !ok {
			// профиль мог быть удалён; диалог всё равно отдаём
			summary = domain.UserSummary{ID: peer}
		}
		items = append(items, dialogItem{
			RoomID:      r.Room.ID,
			User:        summary,
			LastMessage: r.LastChat,
		})
	}

	_ = c.Send(Envelope{Event: EventMessageList, Data: items})
}
