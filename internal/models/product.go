// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string          `json:"name" gorm:"size:100;not null"`
	Description string          `json:"description" gorm:"size:500;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Category    string          `json:"category" gorm:"size:50;not null;index"`
	Unit        string          `json:"unit" gorm:"size:20;not null"`
	ImageURL    string          `json:"image_url" gorm:"size:255"`
	Tags        pq.StringArray  `json:"tags,omitempty" gorm:"type:text[]"`
	// No column default: the services always write availability
	// explicitly, and a default would shadow an explicit false on
	// insert for zero-quantity products.
	IsAvailable bool      `json:"is_available" gorm:"not null"`
	SellerID    uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`

	// Relationships
	Seller *User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}
