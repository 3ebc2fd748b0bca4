package dto

import (
	"time"

	"desirefinder-be/pkg/dropshipping"

	"github.com/google/uuid"
)

// ImportProductRequest carries either a known supplier id or the vetted
// product payload from a search result. ExpectedCost, when set, is the
// supplier price the client last showed the user.
type ImportProductRequest struct {
	SupplierProductId string                `json:"supplierProductId"`
	ProductData       *dropshipping.Product `json:"productData"`
	ExpectedCost      float64               `json:"expectedCost" validate:"gte=0"`
	Quantity          int                   `json:"quantity" validate:"omitempty,min=1,max=10"`
}

type ImportProductResponse struct {
	OrderId       uuid.UUID  `json:"orderId"`
	ProductId     uuid.UUID  `json:"productId"`
	Name          string     `json:"name"`
	UnitPrice     float64    `json:"unitPrice"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaymentToken  string     `json:"paymentToken,omitempty"`
	PaymentUrl    string     `json:"paymentUrl,omitempty"`
	PriceVerified bool       `json:"priceVerified"`
	ValidatedAt   *time.Time `json:"validatedAt,omitempty"`
}

// PriceDriftDetails is the payload of a 409 when the supplier price moved
// beyond tolerance.
type PriceDriftDetails struct {
	PriceChange string  `json:"priceChange"`
	OldPrice    float64 `json:"oldPrice"`
	NewPrice    float64 `json:"newPrice"`
}
