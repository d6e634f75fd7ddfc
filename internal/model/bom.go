package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ManpowerEntry assigns a number of people (optionally a specific user) to a BOM.
type ManpowerEntry struct {
	User   *uuid.UUID `json:"user"`
	Number string     `json:"number"`
}

// ResourceRef points at a machine/tool needed by the BOM.
type ResourceRef struct {
	ResourceID    uuid.UUID `json:"resource_id"`
	Type          string    `json:"type"`
	Specification string    `json:"specification"`
}

// BOM is the bill of materials: the recipe of raw materials, scrap and output
// quantity/cost for producing one finished good. It exclusively owns its line
// rows; deleting a BOM cascades to lines and shortage records.
type BOM struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BOMCode    string          `gorm:"uniqueIndex;not null"` // BOM001, BOM002, …
	BOMName    string          `gorm:"index;not null"`
	PartsCount int             `gorm:"not null"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Approved   bool            `gorm:"not null;default:false"`
	ApprovedBy *uuid.UUID      `gorm:"type:uuid"`
	CreatorID  uuid.UUID       `gorm:"type:uuid;not null"`

	// Ordered production step names; snapshotted into a process at run start.
	Processes []string        `gorm:"serializer:json;type:jsonb"`
	Manpower  []ManpowerEntry `gorm:"serializer:json;type:jsonb"`
	Resources []ResourceRef   `gorm:"serializer:json;type:jsonb"`

	OtherCharges decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Remarks      string

	// Back-reference set once a production run is created for this BOM.
	ProductionProcessID *uuid.UUID `gorm:"type:uuid"`
	IsProductionStarted bool       `gorm:"not null;default:false"`

	FinishedGood   *FinishedGoodLine  `gorm:"foreignKey:BOMID"`
	RawMaterials   []RawMaterialLine  `gorm:"foreignKey:BOMID"`
	ScrapMaterials []ScrapMaterialLine `gorm:"foreignKey:BOMID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BOM) TableName() string { return "boms" }

// FinishedGoodLine is the single output line of a BOM. Quantity already
// includes the negative-raw-material credit adjustment applied at create/update.
type FinishedGoodLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BOMID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description   string
	Quantity      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cost          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Comments      string
	SupportingDoc string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Item *Product `gorm:"foreignKey:ItemID"`
}

func (FinishedGoodLine) TableName() string { return "bom_finished_goods" }

// RawMaterialLine is one input line of a BOM. Quantity is signed: a negative
// quantity is a credit against the BOM and inflates the finished-good yield.
type RawMaterialLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BOMID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description   string
	Quantity      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPartCost decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	AssemblyPhase string
	Comments      string
	SupportingDoc string
	ApprovedByAdmin     bool `gorm:"not null;default:false"`
	ApprovedByInventory bool `gorm:"not null;default:false"`
	InProduction        bool `gorm:"not null;default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Item *Product `gorm:"foreignKey:ItemID"`
	BOM  *BOM     `gorm:"foreignKey:BOMID"`
}

func (RawMaterialLine) TableName() string { return "bom_raw_materials" }

// ScrapMaterialLine is a by-product line of a BOM.
type ScrapMaterialLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BOMID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description   string
	Quantity      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPartCost decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	IsProductionStarted bool `gorm:"not null;default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Item *Product `gorm:"foreignKey:ItemID"`
}

func (ScrapMaterialLine) TableName() string { return "bom_scrap_materials" }

// InventoryShortage is a derived ledger row: one per (bom, raw material line)
// whose required quantity exceeded available stock at the last check. Never
// authoritative for stock — upserted and deleted by the shortage tracker.
type InventoryShortage struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BOMID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_shortage_bom_line,unique"`
	RawMaterialLineID uuid.UUID       `gorm:"type:uuid;not null;index:idx_shortage_bom_line,unique"`
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShortageQuantity  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	BOM  *BOM     `gorm:"foreignKey:BOMID"`
	Item *Product `gorm:"foreignKey:ItemID"`
}

func (InventoryShortage) TableName() string { return "inventory_shortages" }
