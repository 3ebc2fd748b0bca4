package controller

import (
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICreditController interface {
	RegisterRoutes(r fiber.Router)
	Balance(ctx *fiber.Ctx) error
}

type creditController struct {
	service service.ICreditService
}

func NewCreditController(service service.ICreditService) ICreditController {
	return &creditController{service: service}
}

func (c *creditController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/credits/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.Balance)
}

func (c *creditController) Balance(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Balance(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get credits", res))
}
