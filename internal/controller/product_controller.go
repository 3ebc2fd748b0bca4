package controller

import (
	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProductController interface {
	RegisterRoutes(r fiber.Router)
	Import(ctx *fiber.Ctx) error
}

type productController struct {
	service service.ICheckoutService
}

func NewProductController(service service.ICheckoutService) IProductController {
	return &productController{service: service}
}

func (c *productController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/product/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/import", c.Import)
}

func (c *productController) Import(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ImportProductRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Import(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Order created", res))
}
