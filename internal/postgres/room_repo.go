package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/realtime-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) FindByPair(ctx context.Context, userA, userB string) (*domain.Room, error) {
	a, b := domain.PairKey(userA, userB)

	var rm domain.Room
	query := `SELECT id, user_a, user_b, created_at FROM rooms WHERE user_a=$1 AND user_b=$2`
	err := r.db.QueryRow(ctx, query, a, b).
		Scan(&rm.ID, &rm.UserA, &rm.UserB, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// CreatePair идемпотентна: гонка двух первых сообщений пары не создаст дубликат
func (r *RoomRepository) CreatePair(ctx context.Context, userA, userB string) (*domain.Room, error) {
	a, b := domain.PairKey(userA, userB)

	var rm domain.Room
	query := `
		INSERT INTO rooms (user_a, user_b)
		VALUES ($1, $2)
		ON CONFLICT (user_a, user_b) DO UPDATE SET user_a = EXCLUDED.user_a
		RETURNING id, user_a, user_b, created_at`
	err := r.db.QueryRow(ctx, query, a, b).
		Scan(&rm.ID, &rm.UserA, &rm.UserB, &rm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// ListForUser возвращает комнаты пользователя вместе с последним сообщением каждой
func (r *RoomRepository) ListForUser(ctx context.Context, userID string) ([]domain.RoomWithLastChat, error) {
	query := `
		SELECT r.id, r.user_a, r.user_b, r.created_at,
		       m.id, m.room_id, m.sender_id, m.receiver_id, m.text, m.images, m.is_read, m.created_at
		FROM rooms r
		LEFT JOIN LATERAL (
			SELECT id, room_id, sender_id, receiver_id, text, images, is_read, created_at
			FROM room_messages
			WHERE room_id = r.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) m ON true
		WHERE r.user_a = $1 OR r.user_b = $1
		ORDER BY COALESCE(m.created_at, r.created_at) DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomWithLastChat
	for rows.Next() {
		var item domain.RoomWithLastChat
		var (
			msgID       *string
			msgRoomID   *string
			msgSender   *string
			msgReceiver *string
			msgText     *string
			msgImages   []string
			msgRead     *bool
			msgCreated  *time.Time
		)
		if err := rows.Scan(
			&item.Room.ID, &item.Room.UserA, &item.Room.UserB, &item.Room.CreatedAt,
			&msgID, &msgRoomID, &msgSender, &msgReceiver, &msgText, &msgImages, &msgRead, &msgCreated,
		); err != nil {
			return nil, err
		}
		if msgID != nil {
			item.LastChat = &domain.Chat{
				ID:         *msgID,
				RoomID:     *msgRoomID,
				SenderID:   *msgSender,
				ReceiverID: *msgReceiver,
				Text:       *msgText,
				Images:     msgImages,
				Read:       *msgRead,
				CreatedAt:  *msgCreated,
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
