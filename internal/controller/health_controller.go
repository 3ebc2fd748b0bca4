package controller

import (
	"time"

	"desirefinder-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

// LiveSessions reports how many sessions the registry holds.
type LiveSessions interface {
	Len() int
}

type healthController struct {
	sessions  LiveSessions
	startedAt time.Time
}

func NewHealthController(sessions LiveSessions) IHealthController {
	return &healthController{sessions: sessions, startedAt: time.Now()}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
		"status":       "ok",
		"uptime":       time.Since(c.startedAt).Round(time.Second).String(),
		"liveSessions": c.sessions.Len(),
	}))
}
