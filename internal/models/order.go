// internal/models/order.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order covers exactly one seller. A cart spanning N sellers is split
// into N orders at placement time.
type Order struct {
	BaseModel
	BuyerID         uuid.UUID       `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID        uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	DeliveryAddress string          `json:"delivery_address" gorm:"size:255;not null"`
	PaymentStatus   PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`

	// Relationships
	Buyer  *User       `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller *User       `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Items  []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem captures the unit price at commit time. Rows are immutable
// after creation so later product price changes never drift the ledger.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
