package websocket

import (
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/session"

	"github.com/gofiber/websocket/v2"
)

// ServeSession streams a session over c until the turn ends or the peer
// disconnects. Disconnecting only detaches the subscription.
func ServeSession(c *websocket.Conn, sessionID string, blocks []session.Block, sub *session.Subscription, log logger.ILogger) {
	client := &Client{
		Conn:         c,
		SessionID:    sessionID,
		Blocks:       blocks,
		Subscription: sub,
		Logger:       log,
	}

	go client.writePump()
	client.readPump()
}
