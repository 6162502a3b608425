package domain

import "time"

// Room — парная комната двух пользователей; пара неупорядоченная,
// в БД хранится с UserA < UserB
type Room struct {
	ID        string    `json:"id"`
	UserA     string    `json:"userA"`
	UserB     string    `json:"userB"`
	CreatedAt time.Time `json:"createdAt"`
}

// PairKey нормализует порядок пары
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Other возвращает собеседника для userID
func (r Room) Other(userID string) string {
	if r.UserA == userID {
		return r.UserB
	}
	return r.UserA
}

type RoomWithLastChat struct {
	Room     Room  `json:"room"`
	LastChat *Chat `json:"lastChat,omitempty"`
}
