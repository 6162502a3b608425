package postgres

import (
	"context"

	"github.com/cwrk-planet/realtime-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// UpdateLocation — зеркало последней координаты; источник правды в памяти брокера
func (r *UserRepository) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET last_lat = $2, last_lng = $3, location_updated_at = now()
		WHERE id = $1
	`, userID, lat, lng)
	return err
}

func (r *UserRepository) Summaries(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, avatar_url
		FROM users
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserSummary
	for rows.Next() {
		var u domain.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
