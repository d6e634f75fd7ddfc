package dto

import (
	"github.com/shopspring/decimal"
)

type CreateProcessRequest struct {
	BOM    string `json:"bom" validate:"required"`
	Status string `json:"status"`
}

// ProcessStepUpdate overlays start/done flags onto the snapshot step with the
// same process name. Nil pointers leave the existing flag untouched.
type ProcessStepUpdate struct {
	Process string `json:"process" validate:"required"`
	Start   *bool  `json:"start"`
	Done    *bool  `json:"done"`
}

type FinishedGoodUpdate struct {
	ProducedQuantity decimal.Decimal `json:"produced_quantity"`
}

type RawMaterialUpdate struct {
	Item         string          `json:"item" validate:"required"`
	UsedQuantity decimal.Decimal `json:"used_quantity"`
}

type ScrapMaterialUpdate struct {
	Item             string          `json:"item" validate:"required"`
	ProducedQuantity decimal.Decimal `json:"produced_quantity"`
}

// ProcessBOMPayload is the nested "bom" object of an update call: the newly
// reported actuals that get reconciled against the snapshot.
type ProcessBOMPayload struct {
	FinishedGood   *FinishedGoodUpdate   `json:"finished_good"`
	RawMaterials   []RawMaterialUpdate   `json:"raw_materials" validate:"omitempty,dive"`
	ScrapMaterials []ScrapMaterialUpdate `json:"scrap_materials" validate:"omitempty,dive"`
	Processes      []ProcessStepUpdate   `json:"processes" validate:"omitempty,dive"`
}

type UpdateProcessRequest struct {
	ID     string            `json:"_id" validate:"required"`
	Status string            `json:"status" validate:"required"`
	BOM    ProcessBOMPayload `json:"bom"`
}

// StatusOverrideRequest drives the administrative raw status overwrite and the
// guardless transitions (allocation request, in-transit, start production).
type StatusOverrideRequest struct {
	ID     string `json:"_id" validate:"required"`
	Status string `json:"status"`
}

// ── Responses ────────────────────────────────────────────────────────────────

type SnapshotLineResponse struct {
	Item              string          `json:"item"`
	ItemName          string          `json:"item_name,omitempty"`
	EstimatedQuantity decimal.Decimal `json:"estimated_quantity"`
	UsedQuantity      decimal.Decimal `json:"used_quantity,omitempty"`
	ProducedQuantity  decimal.Decimal `json:"produced_quantity,omitempty"`
}

type ProcessStepResponse struct {
	Process string `json:"process"`
	Start   bool   `json:"start"`
	Done    bool   `json:"done"`
}

type ProcessResponse struct {
	ID                  string                 `json:"_id"`
	BOMID               string                 `json:"bom"`
	BOMName             string                 `json:"bom_name,omitempty"`
	Status              string                 `json:"status"`
	Approved            bool                   `json:"approved"`
	Creator             string                 `json:"creator"`
	FinishedGood        SnapshotLineResponse   `json:"finished_good"`
	RawMaterials        []SnapshotLineResponse `json:"raw_materials"`
	ScrapMaterials      []SnapshotLineResponse `json:"scrap_materials,omitempty"`
	Processes           []ProcessStepResponse  `json:"processes,omitempty"`
	ProductionStartedAt string                 `json:"productionStartedAt,omitempty"`
	CreatedAt           string                 `json:"created_at"`
}
