package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Vjnishad/mescon/internal/metrics"
	"github.com/Vjnishad/mescon/internal/models"
)

// MessageStore is the slice of the data store the engine needs: append only.
// The relay never reads history.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
}

// Engine classifies inbound frames and routes them through the registry.
// Chat frames are persisted before any delivery attempt; signaling frames are
// forwarded verbatim with the sender identity overwritten and are never
// persisted.
type Engine struct {
	registry *Registry
	store    MessageStore
	logger   zerolog.Logger
	nowFn    func() time.Time
}

// NewEngine creates a relay engine.
func NewEngine(registry *Registry, store MessageStore, logger zerolog.Logger) *Engine {
	return &Engine{
		registry: registry,
		store:    store,
		logger:   logger.With().Str("component", "relay").Logger(),
		nowFn:    time.Now,
	}
}

// Registry returns the connection registry the engine routes through.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// HandleFrame processes one inbound frame from the connection owned by
// sender. Malformed or unrecognized frames are counted and ignored; nothing is
// ever reported back to the sender.
func (e *Engine) HandleFrame(ctx context.Context, sender string, raw []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		metrics.FramesIgnored.WithLabelValues("malformed").Inc()
		e.logger.Debug().Str("sender", sender).Msg("dropping malformed frame")
		return
	}

	switch {
	case head.Type == models.FrameChatMessage:
		e.handleChat(ctx, sender, raw)
	case models.IsSignalingFrame(head.Type):
		e.handleSignaling(sender, head.Type, raw)
	default:
		metrics.FramesIgnored.WithLabelValues("unknown_type").Inc()
		e.logger.Debug().Str("sender", sender).Str("type", head.Type).Msg("dropping frame of unknown type")
	}
}

// handleChat persists the message, then delivers the server-stamped envelope
// to the recipient and echoes it back to the sender. Persistence strictly
// precedes both deliveries so a message is never observed live without being
// durable first.
func (e *Engine) handleChat(ctx context.Context, sender string, raw []byte) {
	var frame models.ChatFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		metrics.FramesIgnored.WithLabelValues("malformed").Inc()
		return
	}
	if frame.RecipientID == "" || frame.Text == "" {
		metrics.FramesIgnored.WithLabelValues("missing_fields").Inc()
		return
	}

	now := e.nowFn().UTC()
	msg := &models.Message{
		ID:          ulid.Make().String(),
		SenderID:    sender,
		RecipientID: frame.RecipientID,
		Text:        frame.Text,
		Timestamp:   now,
	}

	if err := e.store.AppendMessage(ctx, msg); err != nil {
		e.logger.Error().Err(err).Str("sender", sender).Msg("message append failed, not delivering")
		return
	}

	envelope, err := json.Marshal(models.ChatEnvelope{
		Type:        models.FrameChatMessage,
		SenderID:    sender,
		RecipientID: frame.RecipientID,
		Text:        frame.Text,
		Timestamp:   now.Format(time.RFC3339Nano),
	})
	if err != nil {
		e.logger.Error().Err(err).Msg("envelope marshal failed")
		return
	}

	metrics.MessagesRelayed.Inc()
	if !e.registry.Send(frame.RecipientID, envelope) {
		metrics.DeliveriesDropped.Inc()
	}
	// Echo to the sender's own connection so their client sees the
	// server-assigned timestamp.
	if !e.registry.Send(sender, envelope) {
		metrics.DeliveriesDropped.Inc()
	}
}

// handleSignaling forwards a call-signaling frame to its recipient. The
// sender_id field is always overwritten with the authenticated identity; a
// client-supplied value is never trusted.
func (e *Engine) handleSignaling(sender, kind string, raw []byte) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		metrics.FramesIgnored.WithLabelValues("malformed").Inc()
		return
	}

	var recipient string
	if v, ok := fields["recipient_id"]; ok {
		_ = json.Unmarshal(v, &recipient)
	}
	if recipient == "" {
		metrics.FramesIgnored.WithLabelValues("missing_fields").Inc()
		return
	}

	senderJSON, _ := json.Marshal(sender)
	fields["sender_id"] = senderJSON

	envelope, err := json.Marshal(fields)
	if err != nil {
		e.logger.Error().Err(err).Msg("signaling marshal failed")
		return
	}

	metrics.SignalingForwarded.WithLabelValues(kind).Inc()
	if !e.registry.Send(recipient, envelope) {
		metrics.DeliveriesDropped.Inc()
	}
}
