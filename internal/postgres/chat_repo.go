package postgres

import (
	"context"

	"github.com/cwrk-planet/realtime-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Save(ctx context.Context, roomID, senderID, receiverID, text string, images []string) (*domain.Chat, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO room_messages (room_id, sender_id, receiver_id, text, images)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, room_id, sender_id, receiver_id, text, images, is_read, created_at
	`, roomID, senderID, receiverID, text, images)

	var m domain.Chat
	if err := scanChat(row, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByRoom возвращает историю комнаты в порядке отправки
func (r *ChatRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Chat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, room_id, sender_id, receiver_id, text, images, is_read, created_at
		FROM room_messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectChats(rows)
}

func (r *ChatRepository) ListUnread(ctx context.Context, roomID, receiverID string) ([]domain.Chat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, room_id, sender_id, receiver_id, text, images, is_read, created_at
		FROM room_messages
		WHERE room_id = $1 AND receiver_id = $2 AND is_read = false
		ORDER BY created_at ASC, id ASC
	`, roomID, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectChats(rows)
}

func (r *ChatRepository) MarkRead(ctx context.Context, roomID, receiverID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE room_messages
		SET is_read = true
		WHERE room_id = $1 AND receiver_id = $2 AND is_read = false
	`, roomID, receiverID)
	return err
}

func scanChat(row pgx.Row, m *domain.Chat) error {
	return row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Images, &m.Read, &m.CreatedAt)
}

func collectChats(rows pgx.Rows) ([]domain.Chat, error) {
	var out []domain.Chat
	for rows.Next() {
		var m domain.Chat
		if err := scanChat(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
