package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Production process status machine, in canonical order. Strings are part of
// the API contract and match what clients already send.
const (
	StatusRawMaterialApprovalPending = "raw material approval pending"
	StatusInventoryAllocated         = "Inventory Allocated"
	StatusRequestForAllowInventory   = "request for allow inventory"
	StatusInventoryInTransit         = "inventory in transit"
	StatusProductionStarted          = "production started"
	StatusWorkInProgress             = "work in progress"
	StatusCompleted                  = "completed"
	StatusDispatched                 = "dispatched"
)

// FinishedGoodSnapshot freezes the BOM's output estimate at run creation.
// ProducedQuantity only ever moves by reconciliation deltas.
type FinishedGoodSnapshot struct {
	ItemID            uuid.UUID       `json:"item"`
	EstimatedQuantity decimal.Decimal `json:"estimated_quantity"`
	ProducedQuantity  decimal.Decimal `json:"produced_quantity"`
}

// RawMaterialSnapshot freezes one input estimate; UsedQuantity accumulates
// the reconciled consumption.
type RawMaterialSnapshot struct {
	ItemID            uuid.UUID       `json:"item"`
	EstimatedQuantity decimal.Decimal `json:"estimated_quantity"`
	UsedQuantity      decimal.Decimal `json:"used_quantity"`
}

// ScrapSnapshot freezes one scrap estimate; ProducedQuantity accumulates the
// reconciled scrap output.
type ScrapSnapshot struct {
	ItemID            uuid.UUID       `json:"item"`
	EstimatedQuantity decimal.Decimal `json:"estimated_quantity"`
	ProducedQuantity  decimal.Decimal `json:"produced_quantity"`
}

// ProcessStep tracks start/done flags for one named production step.
type ProcessStep struct {
	Process string `json:"process"`
	Start   bool   `json:"start"`
	Done    bool   `json:"done"`
}

// ProductionProcess is one production run of a BOM. The snapshots are value
// copies taken at creation — later BOM edits never retroactively change an
// in-flight run's actuals (estimates may be refreshed explicitly by the BOM
// builder). Snapshot data is embedded, so deleting a process needs no cascade.
type ProductionProcess struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BOMID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    string    `gorm:"not null;default:'raw material approval pending'"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null"`
	Approved  bool      `gorm:"not null;default:false"`

	FinishedGood   FinishedGoodSnapshot  `gorm:"serializer:json;type:jsonb"`
	RawMaterials   []RawMaterialSnapshot `gorm:"serializer:json;type:jsonb"`
	ScrapMaterials []ScrapSnapshot       `gorm:"serializer:json;type:jsonb"`
	Processes      []ProcessStep         `gorm:"serializer:json;type:jsonb"`

	ProductionStartedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time

	BOM *BOM `gorm:"foreignKey:BOMID"`
}

func (ProductionProcess) TableName() string { return "production_processes" }
