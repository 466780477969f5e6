package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

var (
	errPeerClosed = errors.New("relay: peer closed")
	errBufferFull = errors.New("relay: send buffer full")
)

// Client binds one websocket transport to one authenticated identity. It
// implements Peer; Send enqueues onto the writer pump and never touches the
// socket directly.
type Client struct {
	identity string
	conn     *websocket.Conn
	engine   *Engine
	logger   zerolog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(identity string, conn *websocket.Conn, engine *Engine, logger zerolog.Logger) *Client {
	return &Client{
		identity: identity,
		conn:     conn,
		engine:   engine,
		logger:   logger.With().Str("identity", identity).Logger(),
		send:     make(chan []byte, sendBuffer),
	}
}

// Send hands a payload to the writer pump. Fails without blocking when the
// connection is closed or the buffer is full; the registry treats either as a
// dropped delivery.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errPeerClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errBufferFull
	}
}

// close makes the send channel unusable exactly once. The writer pump drains
// and exits when the channel closes.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump consumes inbound frames until the transport fails or the peer
// disconnects, then tears the connection down. Any read error, protocol
// violation included, takes the same exit path: guarded unregister, pump
// shutdown, socket close.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.engine.Registry().Unregister(c.identity, c)
		c.close()
		c.conn.Close()
		c.logger.Info().Int("active", c.engine.Registry().Len()).Msg("connection closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		c.engine.HandleFrame(ctx, c.identity, raw)
	}
}

// writePump writes queued payloads and keepalive pings to the socket. Exits
// when the send channel closes or any write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn().Err(err).Msg("websocket write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
