package ws

import (
	"encoding/json"

	"github.com/cwrk-planet/realtime-service/internal/domain"
)

// Входящие события
const (
	EventAuthenticate        = "authenticate"
	EventLocationUpdate      = "locationUpdate" // также исходящее для подписчиков
	EventSubscribeToLocation = "subscribeToLocation"
	EventMessage             = "message" // также исходящее (эхо и доставка)
	EventFetchChats          = "fetchChats"
	EventUnreadMessages      = "unReadMessages" // также исходящее
	EventMessageList         = "messageList"    // также исходящее
	EventCallUser            = "callUser"
	EventAnswerCall          = "answerCall"
	EventIceCandidate        = "iceCandidate" // также исходящее
	EventDisconnectCall      = "disconnectCall"
)

// Исходящие события
const (
	EventAuthenticated    = "authenticated"
	EventUserStatus       = "userStatus"
	EventIncomingCall     = "incomingCall"
	EventCallAnswered     = "callAnswered"
	EventCallDisconnected = "callDisconnected"
	EventChats            = "chats"
	EventNoRoomFound      = "noRoomFound"
	EventNoUnreadMessages = "noUnreadMessages"
	EventError            = "error"
)

type Envelope struct {
	Event   string `json:"event"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func errorEnvelope(msg string) Envelope {
	return Envelope{Event: EventError, Message: msg}
}

// Поля событий лежат на верхнем уровне конверта; тег разбирается первым,
// затем конверт декодируется в типизированный payload
type inboundEnvelope struct {
	Event string `json:"event"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

// указатели — чтобы отличать отсутствующее поле от нулевой координаты
type locationUpdatePayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type subscribePayload struct {
	TargetUserID string `json:"targetUserId"`
}

type chatMessagePayload struct {
	ReceiverID string   `json:"receiverId"`
	Message    string   `json:"message"`
	Images     []string `json:"images,omitempty"`
}

type receiverPayload struct {
	ReceiverID string `json:"receiverId"`
}

type callUserPayload struct {
	ToUserID string          `json:"toUserId"`
	Offer    json.RawMessage `json:"offer"`
	CallType string          `json:"callType"`
}

type answerCallPayload struct {
	ToUserID string          `json:"toUserId"`
	Answer   json.RawMessage `json:"answer"`
}

type iceCandidatePayload struct {
	ToUserID  string          `json:"toUserId"`
	Candidate json.RawMessage `json:"candidate"`
}

type disconnectCallPayload struct {
	ToUserID string `json:"toUserId"`
}

type authenticatedData struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

type userStatusData struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type locationData struct {
	UserID string  `json:"userId"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

type incomingCallData struct {
	FromUserID string          `json:"fromUserId"`
	Offer      json.RawMessage `json:"offer"`
	CallType   string          `json:"callType"`
}

type callAnsweredData struct {
	FromUserID string          `json:"fromUserId"`
	Answer     json.RawMessage `json:"answer"`
}

type iceCandidateData struct {
	FromUserID string          `json:"fromUserId"`
	Candidate  json.RawMessage `json:"candidate"`
}

type callDisconnectedData struct {
	FromUserID string `json:"fromUserId"`
}

type unreadData struct {
	Count    int           `json:"count"`
	Messages []domain.Chat `json:"messages"`
}

type dialogItem struct {
	RoomID      string             `json:"roomId"`
	User        domain.UserSummary `json:"user"`
	LastMessage *domain.Chat       `json:"lastMessage,omitempty"`
}
