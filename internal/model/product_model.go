package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a vetted supplier product that a user imported at least once.
type Product struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SupplierProductId string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Source            string    `gorm:"type:varchar(50);not null"`
	Name              string    `gorm:"type:text;not null"`
	Description       string    `gorm:"type:text"`
	ImageUrl          string    `gorm:"type:text"`
	BuyUrl            string    `gorm:"type:text"`
	Vendor            string    `gorm:"type:varchar(255)"`
	Category          string    `gorm:"type:varchar(255)"`
	Currency          string    `gorm:"type:varchar(10);not null;default:'USD'"`
	Price             float64   `gorm:"type:numeric(12,2);not null"` // marked-up retail price
	SupplierPrice     float64   `gorm:"type:numeric(12,2);not null"`
	Rating            float64
	Orders            int
	ShippingDays      *int
	InStock           bool `gorm:"default:true"`
	LastValidatedAt   *time.Time
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

type Order struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity      int       `gorm:"not null;default:1"`
	UnitPrice     float64   `gorm:"type:numeric(12,2);not null"`
	SupplierPrice float64   `gorm:"type:numeric(12,2);not null"`
	Currency      string    `gorm:"type:varchar(10);not null"`
	Status        string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentToken  *string   `gorm:"type:varchar(255)"`
	PaymentUrl    *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
