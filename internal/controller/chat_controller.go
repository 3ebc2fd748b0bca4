package controller

import (
	"bufio"
	"encoding/json"

	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/internal/service"
	internalWS "desirefinder-be/internal/websocket"
	"desirefinder-be/pkg/agent/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	Reconnect(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.ISearchService
	logger  logger.ILogger
}

func NewChatController(service service.ISearchService, logger logger.ILogger) IChatController {
	return &chatController{service: service, logger: logger}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("/message", serverutils.JwtMiddleware, c.SendMessage)
	h.Post("/reconnect/:id", c.Reconnect)
	h.Get("/ws/:id", c.ServeWs)
	h.Get("/:chatId/messages", serverutils.JwtMiddleware, c.GetMessages)
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	stream, err := c.service.StartTurn(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return c.streamNDJSON(ctx, stream)
}

// Reconnect re-attaches to a live session by its id.
func (c *chatController) Reconnect(ctx *fiber.Ctx) error {
	stream, err := c.service.Attach(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return c.streamNDJSON(ctx, stream)
}

func (c *chatController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	stream, err := c.service.Attach(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeSession(conn, stream.SessionID, stream.Blocks, stream.Subscription, c.logger)
	})(ctx)
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	chatId, err := uuid.Parse(ctx.Params("chatId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid chat id")
	}

	res, err := c.service.GetMessages(ctx.Context(), userId, chatId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

// streamNDJSON writes one JSON event per line: first the blocks already
// stored, then live events until the terminal one. A write failure means the
// client left; the turn keeps running.
func (c *chatController) streamNDJSON(ctx *fiber.Ctx, stream *service.TurnStream) error {
	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set("X-Session-Id", stream.SessionID)
	ctx.Set("X-Accel-Buffering", "no")

	sub := stream.Subscription
	blocks := stream.Blocks
	log := c.logger

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Detach()
		enc := json.NewEncoder(w)

		for i := range blocks {
			if err := writeEvent(w, enc, session.Event{Type: session.EventBlock, Block: &blocks[i]}); err != nil {
				return
			}
		}
		for ev := range sub.Events() {
			if err := writeEvent(w, enc, ev); err != nil {
				log.Debug("CHAT", "Client detached from stream", map[string]interface{}{
					"session_id": stream.SessionID,
					"error":      err.Error(),
				})
				return
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, enc *json.Encoder, ev session.Event) error {
	if err := enc.Encode(ev); err != nil {
		return err
	}
	return w.Flush()
}
