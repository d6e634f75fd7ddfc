package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock change direction recorded on a product after the last mutation.
const (
	ChangeIncrease = "increase"
	ChangeDecrease = "decrease"
)

// Product is a catalog line item: raw material, finished good or scrap.
// CurrentStock is only ever moved by deltas (BOM builder, production engine,
// dispatch) — never set to an absolute value by those flows.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductCode string    `gorm:"uniqueIndex;not null"` // e.g. RMT00001, generated per category
	Name        string    `gorm:"index;not null"`
	Description *string
	Category     string          `gorm:"not null"` // raw_material | finished_good | scrap
	UOM          string          `gorm:"not null;default:'pcs'"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	MinStock     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// ChangeType/QuantityChanged audit the most recent stock delta.
	ChangeType      string          `gorm:"type:varchar(10)"`
	QuantityChanged decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Approved        bool            `gorm:"not null;default:false"`
	Active          bool            `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
