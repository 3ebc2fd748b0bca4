package entity

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	Id                uuid.UUID
	SupplierProductId string
	Source            string
	Name              string
	Description       string
	ImageUrl          string
	BuyUrl            string
	Vendor            string
	Category          string
	Currency          string
	Price             float64
	SupplierPrice     float64
	Rating            float64
	Orders            int
	ShippingDays      *int
	InStock           bool
	LastValidatedAt   *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

const OrderStatusPending = "PENDING"

type Order struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	ProductId     uuid.UUID
	Quantity      int
	UnitPrice     float64
	SupplierPrice float64
	Currency      string
	Status        string
	PaymentToken  *string
	PaymentUrl    *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
