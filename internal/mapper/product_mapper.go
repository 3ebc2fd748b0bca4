package mapper

import (
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/model"
)

type ProductMapper struct{}

func NewProductMapper() *ProductMapper {
	return &ProductMapper{}
}

func (m *ProductMapper) ToEntity(p *model.Product) *entity.Product {
	if p == nil {
		return nil
	}
	return &entity.Product{
		Id:                p.Id,
		SupplierProductId: p.SupplierProductId,
		Source:            p.Source,
		Name:              p.Name,
		Description:       p.Description,
		ImageUrl:          p.ImageUrl,
		BuyUrl:            p.BuyUrl,
		Vendor:            p.Vendor,
		Category:          p.Category,
		Currency:          p.Currency,
		Price:             p.Price,
		SupplierPrice:     p.SupplierPrice,
		Rating:            p.Rating,
		Orders:            p.Orders,
		ShippingDays:      p.ShippingDays,
		InStock:           p.InStock,
		LastValidatedAt:   p.LastValidatedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         updatedAtPtr(p.UpdatedAt),
	}
}

func (m *ProductMapper) ToModel(p *entity.Product) *model.Product {
	if p == nil {
		return nil
	}
	return &model.Product{
		Id:                p.Id,
		SupplierProductId: p.SupplierProductId,
		Source:            p.Source,
		Name:              p.Name,
		Description:       p.Description,
		ImageUrl:          p.ImageUrl,
		BuyUrl:            p.BuyUrl,
		Vendor:            p.Vendor,
		Category:          p.Category,
		Currency:          p.Currency,
		Price:             p.Price,
		SupplierPrice:     p.SupplierPrice,
		Rating:            p.Rating,
		Orders:            p.Orders,
		ShippingDays:      p.ShippingDays,
		InStock:           p.InStock,
		LastValidatedAt:   p.LastValidatedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         updatedAtValue(p.UpdatedAt),
	}
}

func (m *ProductMapper) OrderToEntity(o *model.Order) *entity.Order {
	if o == nil {
		return nil
	}
	return &entity.Order{
		Id:            o.Id,
		UserId:        o.UserId,
		ProductId:     o.ProductId,
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice,
		SupplierPrice: o.SupplierPrice,
		Currency:      o.Currency,
		Status:        o.Status,
		PaymentToken:  o.PaymentToken,
		PaymentUrl:    o.PaymentUrl,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     updatedAtPtr(o.UpdatedAt),
	}
}

func (m *ProductMapper) OrderToModel(o *entity.Order) *model.Order {
	if o == nil {
		return nil
	}
	return &model.Order{
		Id:            o.Id,
		UserId:        o.UserId,
		ProductId:     o.ProductId,
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice,
		SupplierPrice: o.SupplierPrice,
		Currency:      o.Currency,
		Status:        o.Status,
		PaymentToken:  o.PaymentToken,
		PaymentUrl:    o.PaymentUrl,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     updatedAtValue(o.UpdatedAt),
	}
}
