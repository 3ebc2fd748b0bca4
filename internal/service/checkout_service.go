package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/internal/repository/specification"
	"desirefinder-be/internal/repository/unitofwork"
	"desirefinder-be/pkg/dropshipping"
	"desirefinder-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Revalidator interface {
	Revalidate(ctx context.Context, stored dropshipping.Product, baseline float64) (*dropshipping.Revalidation, error)
}

type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev events.OrderCreated) error
}

// RevalidationObserver counts purchase-time price checks by outcome.
type RevalidationObserver interface {
	RevalidationOutcome(outcome string)
}

const (
	RevalidationOK                  = "ok"
	RevalidationRepriced            = "repriced"
	RevalidationProviderUnavailable = "provider_unavailable"
	RevalidationGone                = "gone"
	RevalidationDrift               = "drift"
	RevalidationOutOfStock          = "out_of_stock"
)

type ICheckoutService interface {
	// Import is the ghost cart: the product row is created on first purchase,
	// re-checked against the supplier and turned into a pending order.
	Import(ctx context.Context, userId uuid.UUID, req *dto.ImportProductRequest) (*dto.ImportProductResponse, error)
}

type checkoutService struct {
	uowFactory  unitofwork.RepositoryFactory
	credits     ICreditService
	revalidator Revalidator
	gateway     PaymentGateway
	publisher   OrderEventPublisher
	observer    RevalidationObserver
	logger      logger.ILogger
}

func NewCheckoutService(
	uowFactory unitofwork.RepositoryFactory,
	credits ICreditService,
	revalidator Revalidator,
	gateway PaymentGateway,
	publisher OrderEventPublisher,
	observer RevalidationObserver,
	logger logger.ILogger,
) ICheckoutService {
	return &checkoutService{
		uowFactory:  uowFactory,
		credits:     credits,
		revalidator: revalidator,
		gateway:     gateway,
		publisher:   publisher,
		observer:    observer,
		logger:      logger,
	}
}

func (s *checkoutService) Import(ctx context.Context, userId uuid.UUID, req *dto.ImportProductRequest) (*dto.ImportProductResponse, error) {
	if req.SupplierProductId == "" && req.ProductData == nil {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, "Missing supplierProductId or productData", nil)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	if _, err := s.credits.EnsureUser(ctx, userId); err != nil {
		return nil, err
	}

	product, err := s.findOrCreateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	check, err := s.revalidator.Revalidate(ctx, productFromEntity(product), req.ExpectedCost)
	if err != nil {
		return nil, s.abort(product, err)
	}

	now := time.Now()
	switch {
	case check.ProviderUnavailable:
		s.observe(RevalidationProviderUnavailable)
	case check.ShouldPersist:
		s.observe(RevalidationRepriced)
		product.SupplierPrice = check.Live.SupplierPrice
		product.Price = check.Live.Price
		product.InStock = check.Live.Available()
		product.LastValidatedAt = &now
		product.UpdatedAt = &now
	default:
		s.observe(RevalidationOK)
		product.LastValidatedAt = &now
		product.UpdatedAt = &now
	}

	order := &entity.Order{
		Id:            uuid.New(),
		UserId:        userId,
		ProductId:     product.Id,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		SupplierPrice: check.SupplierPrice(),
		Currency:      product.Currency,
		Status:        entity.OrderStatusPending,
		CreatedAt:     now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if !check.ProviderUnavailable {
		if err := uow.ProductRepository().Update(ctx, product); err != nil {
			return nil, fmt.Errorf("update product price: %w", err)
		}
	}
	if err := uow.OrderRepository().Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if s.gateway != nil {
		link, err := s.gateway.CreatePayment(ctx, order, product)
		if err != nil {
			s.logger.Error("CHECKOUT", "Failed to create payment link", map[string]interface{}{
				"order_id": order.Id.String(),
				"error":    err.Error(),
			})
			return nil, serverutils.WrapAppError(fiber.StatusBadGateway, "Payment provider unavailable", err)
		}
		order.PaymentToken = &link.Token
		order.PaymentUrl = &link.RedirectURL
		if err := s.uowFactory.NewUnitOfWork(ctx).OrderRepository().Update(ctx, order); err != nil {
			return nil, fmt.Errorf("store payment link: %w", err)
		}
	}

	if s.publisher != nil {
		// the order already exists; a broker outage is only logged
		_ = s.publisher.PublishOrderCreated(ctx, events.OrderCreated{
			OrderId:           order.Id,
			UserId:            userId,
			ProductId:         product.Id,
			SupplierProductId: product.SupplierProductId,
			Source:            product.Source,
			UnitPrice:         order.UnitPrice,
			SupplierPrice:     order.SupplierPrice,
			Currency:          order.Currency,
		})
	}

	s.logger.Info("CHECKOUT", "Order created", map[string]interface{}{
		"order_id":            order.Id.String(),
		"supplier_product_id": product.SupplierProductId,
		"drift_percent":       check.DriftPercent,
		"price_verified":      !check.ProviderUnavailable,
	})

	res := &dto.ImportProductResponse{
		OrderId:       order.Id,
		ProductId:     product.Id,
		Name:          product.Name,
		UnitPrice:     order.UnitPrice,
		Currency:      order.Currency,
		Status:        order.Status,
		PriceVerified: !check.ProviderUnavailable,
		ValidatedAt:   product.LastValidatedAt,
	}
	if order.PaymentToken != nil {
		res.PaymentToken = *order.PaymentToken
		res.PaymentUrl = *order.PaymentUrl
	}
	return res, nil
}

func (s *checkoutService) findOrCreateProduct(ctx context.Context, req *dto.ImportProductRequest) (*entity.Product, error) {
	supplierId := req.SupplierProductId
	if supplierId == "" {
		supplierId = req.ProductData.SupplierID()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if supplierId != "" {
		product, err := uow.ProductRepository().FindOne(ctx, specification.BySupplierProductID{SupplierProductID: supplierId})
		if err != nil {
			return nil, err
		}
		if product != nil {
			return product, nil
		}
	}

	if req.ProductData == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "Product not found and could not be created", nil)
	}

	product := productToEntity(dropshipping.ApplyMarkup(*req.ProductData))
	if product.SupplierProductId == "" {
		product.SupplierProductId = uuid.NewString()
	}
	if err := uow.ProductRepository().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *checkoutService) abort(product *entity.Product, err error) error {
	fields := map[string]interface{}{
		"supplier_product_id": product.SupplierProductId,
		"error":               err.Error(),
	}

	var drift *dropshipping.DriftError
	switch {
	case errors.As(err, &drift):
		s.observe(RevalidationDrift)
		s.logger.Warn("CHECKOUT", "Purchase aborted on price drift", fields)
		return &serverutils.AppError{
			Code:    fiber.StatusConflict,
			Message: "Price changed significantly. Please refresh the product page.",
			Details: dto.PriceDriftDetails{
				PriceChange: fmt.Sprintf("%.1f%%", drift.DriftPercent),
				OldPrice:    drift.OldPrice,
				NewPrice:    drift.NewPrice,
			},
			Err: err,
		}
	case errors.Is(err, dropshipping.ErrProductGone):
		s.observe(RevalidationGone)
		s.logger.Warn("CHECKOUT", "Purchase aborted, product gone", fields)
		return serverutils.WrapAppError(fiber.StatusConflict, "Product is no longer available. Please try another product.", err)
	case errors.Is(err, dropshipping.ErrOutOfStock):
		s.observe(RevalidationOutOfStock)
		s.logger.Warn("CHECKOUT", "Purchase aborted, out of stock", fields)
		return serverutils.WrapAppError(fiber.StatusConflict, "Product is no longer in stock. Please try another product.", err)
	default:
		return err
	}
}

func (s *checkoutService) observe(outcome string) {
	if s.observer != nil {
		s.observer.RevalidationOutcome(outcome)
	}
}

func productFromEntity(p *entity.Product) dropshipping.Product {
	inStock := p.InStock
	return dropshipping.Product{
		ID:                p.SupplierProductId,
		SupplierProductID: p.SupplierProductId,
		Source:            p.Source,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		SupplierPrice:     p.SupplierPrice,
		Currency:          p.Currency,
		ImageURL:          p.ImageUrl,
		BuyURL:            p.BuyUrl,
		Vendor:            p.Vendor,
		Category:          p.Category,
		Rating:            p.Rating,
		Orders:            p.Orders,
		ShippingDays:      p.ShippingDays,
		InStock:           &inStock,
	}
}

func productToEntity(p dropshipping.Product) *entity.Product {
	name := p.Name
	if name == "" {
		name = "Product"
	}
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	return &entity.Product{
		Id:                uuid.New(),
		SupplierProductId: p.SupplierID(),
		Source:            p.Source,
		Name:              name,
		Description:       p.Description,
		ImageUrl:          p.ImageURL,
		BuyUrl:            p.BuyURL,
		Vendor:            p.Vendor,
		Category:          p.Category,
		Currency:          currency,
		Price:             p.Price,
		SupplierPrice:     p.SupplierPrice,
		Rating:            p.Rating,
		Orders:            p.Orders,
		ShippingDays:      p.ShippingDays,
		InStock:           p.Available(),
		CreatedAt:         time.Now(),
	}
}
