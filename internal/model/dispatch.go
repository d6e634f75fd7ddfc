package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delivery status values for a dispatch record.
const (
	DeliveryDispatch  = "Dispatch"
	DeliveryDelivered = "Delivered"
)

// Dispatch ships the finished goods of a completed production run (or a sales
// order). Creating one consumes finished-good stock; a second dispatch for the
// same reference is a conflict.
type Dispatch struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductionProcessID *uuid.UUID `gorm:"type:uuid;index"`
	SaleID              *uuid.UUID `gorm:"type:uuid;index"`
	ItemID              uuid.UUID  `gorm:"type:uuid;not null"`
	Quantity            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryStatus      string          `gorm:"not null;default:'Dispatch'"`
	TaskStatus          string          `gorm:"not null;default:'Pending'"`
	CreatorID           uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Item *Product `gorm:"foreignKey:ItemID"`
}

func (Dispatch) TableName() string { return "dispatches" }
