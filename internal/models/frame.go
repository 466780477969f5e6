package models

// Frame type tags exchanged over the websocket.
const (
	FrameChatMessage     = "chat_message"
	FrameWebRTCOffer     = "webrtc_offer"
	FrameWebRTCAnswer    = "webrtc_answer"
	FrameWebRTCCandidate = "webrtc_ice_candidate"
	FrameCallEnded       = "call_ended"
	FrameCallDeclined    = "call_declined"
)

// signalingFrames is the closed set of call-signaling kinds the relay forwards
// without persisting.
var signalingFrames = map[string]struct{}{
	FrameWebRTCOffer:     {},
	FrameWebRTCAnswer:    {},
	FrameWebRTCCandidate: {},
	FrameCallEnded:       {},
	FrameCallDeclined:    {},
}

// IsSignalingFrame reports whether t names a known call-signaling frame kind.
func IsSignalingFrame(t string) bool {
	_, ok := signalingFrames[t]
	return ok
}

// ChatFrame is the inbound chat message shape.
type ChatFrame struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// ChatEnvelope is the outbound chat message shape, delivered to the recipient
// and echoed back to the sender with the server-assigned timestamp.
type ChatEnvelope struct {
	Type        string `json:"type"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
	Timestamp   string `json:"timestamp"` // RFC 3339 with offset
}
