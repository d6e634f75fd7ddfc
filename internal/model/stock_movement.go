package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement types — one per flow that touches Product.CurrentStock.
const (
	MovementBOMCreate         = "bom_create"
	MovementProductionIssue   = "production_issue"
	MovementProductionReceipt = "production_receipt"
	MovementScrap             = "scrap"
	MovementDispatch          = "dispatch"
	MovementAdjustment        = "adjustment"
)

// StockMovement records every change to a product's stock.
// Created inside the same transaction as the stock mutation itself so the
// audit trail can never drift from the actual stock level.
type StockMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        string          `gorm:"not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,2);not null"` // positive = in, negative = out
	StockBefore decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // bom, production process or dispatch id
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
