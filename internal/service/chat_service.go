package service

import (
	"context"
	"strings"

	"github.com/cwrk-planet/realtime-service/internal/domain"
	"github.com/cwrk-planet/realtime-service/internal/postgres"
)

const maxMessageLen = 4000

// ChatService — адаптер долговременного хранилища для ws-роутера:
// комнаты, сообщения, профили и зеркало координат.
type ChatService struct {
	roomRepo *postgres.RoomRepository
	chatRepo *postgres.ChatRepository
	userRepo *postgres.UserRepository
}

func NewChatService(roomRepo *postgres.RoomRepository, chatRepo *postgres.ChatRepository, userRepo *postgres.UserRepository) *ChatService {
	return &ChatService{
		roomRepo: roomRepo,
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

func (s *ChatService) FindRoom(ctx context.Context, userA, userB string) (*domain.Room, error) {
	return s.roomRepo.FindByPair(ctx, userA, userB)
}

func (s *ChatService) CreateRoom(ctx context.Context, userA, userB string) (*domain.Room, error) {
	return s.roomRepo.CreatePair(ctx, userA, userB)
}

func (s *ChatService) CreateChat(ctx context.Context, roomID, senderID, receiverID, text string, images []string) (*domain.Chat, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(images) == 0 {
		return nil, domain.ErrEmptyMessage
	}
	if len(text) > maxMessageLen {
		return nil, domain.ErrMessageTooLong
	}
	return s.chatRepo.Save(ctx, roomID, senderID, receiverID, text, images)
}

func (s *ChatService) ListChats(ctx context.Context, roomID string) ([]domain.Chat, error) {
	return s.chatRepo.ListByRoom(ctx, roomID)
}

func (s *ChatService) UnreadChats(ctx context.Context, roomID, receiverID string) ([]domain.Chat, error) {
	return s.chatRepo.ListUnread(ctx, roomID, receiverID)
}

func (s *ChatService) MarkRead(ctx context.Context, roomID, receiverID string) error {
	return s.chatRepo.MarkRead(ctx, roomID, receiverID)
}

func (s *ChatService) ListRoomsFor(ctx context.Context, userID string) ([]domain.RoomWithLastChat, error) {
	return s.roomRepo.ListForUser(ctx, userID)
}

func (s *ChatService) UserSummaries(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	return s.userRepo.Summaries(ctx, ids)
}

func (s *ChatService) UpdateUserLocation(ctx context.Context, userID string, lat, lng float64) error {
	return s.userRepo.UpdateLocation(ctx, userID, lat, lng)
}
