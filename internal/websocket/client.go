package websocket

import (
	"encoding/json"
	"time"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/session"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client relays one session's events to a websocket peer. The peer only
// listens; anything it sends is discarded.
type Client struct {
	Conn         *websocket.Conn
	SessionID    string
	Blocks       []session.Block
	Subscription *session.Subscription
	Logger       logger.ILogger
}

// readPump keeps the read deadline alive and notices when the peer leaves.
func (c *Client) readPump() {
	defer func() {
		c.Subscription.Detach()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.Logger.Warn("WEBSOCKET", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}
	}
}

// writePump sends the stored blocks, then every event until the terminal one.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for i := range c.Blocks {
		if err := c.writeEvent(session.Event{Type: session.EventBlock, Block: &c.Blocks[i]}); err != nil {
			return
		}
	}

	events := c.Subscription.Events()
	for {
		select {
		case ev, ok := <-events:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.writeEvent(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeEvent(ev session.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, payload)
}
