package relay

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Vjnishad/mescon/internal/auth"
	"github.com/Vjnishad/mescon/internal/metrics"
)

// Handler upgrades authenticated websocket requests and runs the connection
// pumps.
type Handler struct {
	engine   *Engine
	tokens   *auth.Tokens
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket endpoint handler. checkOrigin decides
// whether an Origin header is acceptable; CORS policy lives with the router.
func NewHandler(engine *Engine, tokens *auth.Tokens, logger zerolog.Logger, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		engine: engine,
		tokens: tokens,
		logger: logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeWS handles GET /chat/ws?token=... The credential is verified before
// the upgrade is accepted, so a bad token gets a plain 401 and the registry
// never sees the connection.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		metrics.AuthRejects.Inc()
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.logger.Debug().Err(err).Msg("upgrade failed")
		return
	}

	client := newClient(identity, conn, h.engine, h.logger)
	h.engine.Registry().Register(identity, client)
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Set(float64(h.engine.Registry().Len()))
	h.logger.Info().Str("identity", identity).Int("active", h.engine.Registry().Len()).Msg("connection established")

	go client.writePump()
	go func() {
		// The request context dies when this handler returns (the socket is
		// hijacked); the connection outlives it.
		client.readPump(context.Background())
		metrics.ConnectionsActive.Set(float64(h.engine.Registry().Len()))
	}()
}
