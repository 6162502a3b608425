package domain

import "time"

type Chat struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"message"`
	Images     []string  `json:"images,omitempty"`
	Read       bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}
