package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase order lifecycle.
const (
	POStatusOpen      = "open"
	POStatusReceived  = "received"
	POStatusCancelled = "cancelled"
)

// PurchaseOrder is a simple header + owned item lines document.
type PurchaseOrder struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PONumber   string          `gorm:"uniqueIndex;not null"`
	SupplierID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status     string          `gorm:"not null;default:'open'"` // open | received | cancelled
	TotalCost  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Remarks    string
	CreatorID  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Supplier *Party              `gorm:"foreignKey:SupplierID"`
	Items    []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// PurchaseOrderItem is one line of a purchase order.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt       time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (PurchaseOrderItem) TableName() string { return "purchase_order_items" }
