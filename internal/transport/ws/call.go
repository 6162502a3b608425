package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/cwrk-planet/realtime-service/internal/domain"
)

// Сигналинг звонков: сервер только ретранслирует метаданные между
// клиентом и хостом, медиапоток сюда не заходит.

func (rt *Router) handleCallUser(c Conn, id domain.Identity, raw []byte) {
	var p callUserPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}

	if id.Role != domain.RoleClient {
		_ = c.Send(errorEnvelope("Only clients can initiate a call"))
		return
	}
	if p.CallType != "audio" && p.CallType != "video" {
		_ = c.Send(errorEnvelope("Invalid or missing callType"))
		return
	}

	target, ok := rt.registry.Lookup(p.ToUserID, c.Channel())
	if !ok {
		_ = c.Send(errorEnvelope("Host not available or invalid recipient"))
		return
	}
	tid, ok := target.Identity()
	if !ok || tid.Role != domain.RoleHost {
		_ = c.Send(errorEnvelope("Host not available or invalid recipient"))
		return
	}

	err := target.Send(Envelope{
		Event: EventIncomingCall,
		Data:  incomingCallData{FromUserID: id.ID, Offer: p.Offer, CallType: p.CallType},
	})
	if err != nil {
		slog.Debug("incomingCall relay failed", "to", p.ToUserID, "err", err)
		_ = c.Send(errorEnvelope("Host not available or invalid recipient"))
	}
}

func (rt *Router) handleAnswerCall(c Conn, id domain.Identity, raw []byte) {
	var p answerCallPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}

	target, ok := rt.registry.Lookup(p.ToUserID, c.Channel())
	if !ok {
		// получателя нет — без клиентской ошибки
		slog.Debug("answerCall target offline", "from", id.ID, "to", p.ToUserID)
		return
	}
	_ = target.Send(Envelope{
		Event: EventCallAnswered,
		Data:  callAnsweredData{FromUserID: id.ID, Answer: p.Answer},
	})
}

func (rt *Router) handleIceCandidate(c Conn, id domain.Identity, raw []byte) {
	var p iceCandidatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}

	target, ok := rt.registry.Lookup(p.ToUserID, c.Channel())
	if !ok {
		slog.Debug("iceCandidate target offline", "from", id.ID, "to", p.ToUserID)
		return
	}
	_ = target.Send(Envelope{
		Event: EventIceCandidate,
		Data:  iceCandidateData{FromUserID: id.ID, Candidate: p.Candidate},
	})
}

func (rt *Router) handleDisconnectCall(c Conn, id domain.Identity, raw []byte) {
	var p disconnectCallPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		_ = c.Send(errorEnvelope("Invalid message format"))
		return
	}

	target, ok := rt.registry.Lookup(p.ToUserID, c.Channel())
	if !ok {
		slog.Debug("disconnectCall target offline", "from", id.ID, "to", p.ToUserID)
		return
	}
	_ = target.Send(Envelope{
		Event: EventCallDisconnected,
		Data:  callDisconnectedData{FromUserID: id.ID},
	})
}
