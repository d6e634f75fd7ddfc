package dto

import (
	"github.com/shopspring/decimal"
)

// FinishedGoodRequest describes the single output line of a BOM.
type FinishedGoodRequest struct {
	Item          string          `json:"item" validate:"required"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity" validate:"required"`
	Cost          decimal.Decimal `json:"cost"`
	Comments      string          `json:"comments"`
	SupportingDoc string          `json:"supporting_doc"`
}

// BOMLineRequest is one raw-material or scrap line. ID is only meaningful on
// update, where it selects the existing line to mutate (upsert-by-id merge).
type BOMLineRequest struct {
	ID            string          `json:"_id"`
	Item          string          `json:"item" validate:"required"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalPartCost decimal.Decimal `json:"total_part_cost"`
	AssemblyPhase string          `json:"assembly_phase"`
	Comments      string          `json:"comments"`
	SupportingDoc string          `json:"supporting_doc"`
}

// ManpowerRequest mirrors model.ManpowerEntry on the wire.
type ManpowerRequest struct {
	User   string `json:"user"`
	Number string `json:"number"`
}

// ResourceRequest mirrors model.ResourceRef on the wire.
type ResourceRequest struct {
	ResourceID    string `json:"resource_id"`
	Type          string `json:"type"`
	Specification string `json:"specification"`
}

type CreateBOMRequest struct {
	BOMName        string              `json:"bom_name" validate:"required"`
	PartsCount     int                 `json:"parts_count"`
	TotalCost      decimal.Decimal     `json:"total_cost"`
	RawMaterials   []BOMLineRequest    `json:"raw_materials" validate:"required,min=1,dive"`
	ScrapMaterials []BOMLineRequest    `json:"scrap_materials" validate:"omitempty,dive"`
	FinishedGood   FinishedGoodRequest `json:"finished_good" validate:"required"`
	Processes      []string            `json:"processes"`
	Manpower       []ManpowerRequest   `json:"manpower"`
	Resources      []ResourceRequest   `json:"resources"`
	OtherCharges   decimal.Decimal     `json:"other_charges"`
	Remarks        string              `json:"remarks"`
}

// UpdateBOMRequest uses pointers/nil slices for "leave untouched" semantics.
// Lines omitted from RawMaterials/ScrapMaterials are NOT deleted.
type UpdateBOMRequest struct {
	BOMName        string               `json:"bom_name"`
	PartsCount     *int                 `json:"parts_count"`
	TotalCost      *decimal.Decimal     `json:"total_cost"`
	Approved       *bool                `json:"approved"`
	RawMaterials   []BOMLineRequest     `json:"raw_materials" validate:"omitempty,dive"`
	ScrapMaterials []BOMLineRequest     `json:"scrap_materials" validate:"omitempty,dive"`
	FinishedGood   *FinishedGoodRequest `json:"finished_good"`
	Processes      []string             `json:"processes"`
	Manpower       []ManpowerRequest    `json:"manpower"`
	Resources      []ResourceRequest    `json:"resources"`
	Remarks        *string              `json:"remarks"`
}

// AutoBOMQuery carries the clone parameters from the query string.
type AutoBOMQuery struct {
	ProductID string           `form:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `form:"quantity" validate:"required"`
	Price     *decimal.Decimal `form:"price"`
}

// ── Responses ────────────────────────────────────────────────────────────────

type BOMLineResponse struct {
	ID                  string          `json:"_id"`
	Item                string          `json:"item"`
	ItemName            string          `json:"item_name,omitempty"`
	Description         string          `json:"description,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	TotalPartCost       decimal.Decimal `json:"total_part_cost"`
	AssemblyPhase       string          `json:"assembly_phase,omitempty"`
	ApprovedByAdmin     bool            `json:"approvedByAdmin,omitempty"`
	ApprovedByInventory bool            `json:"approvedByInventoryPersonnel,omitempty"`
	InProduction        bool            `json:"in_production,omitempty"`
	IsProductionStarted bool            `json:"is_production_started,omitempty"`
}

type FinishedGoodResponse struct {
	ID       string          `json:"_id"`
	Item     string          `json:"item"`
	ItemName string          `json:"item_name,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
}

type BOMResponse struct {
	ID                  string               `json:"_id"`
	BOMCode             string               `json:"bom_id"`
	BOMName             string               `json:"bom_name"`
	PartsCount          int                  `json:"parts_count"`
	TotalCost           decimal.Decimal      `json:"total_cost"`
	Approved            bool                 `json:"approved"`
	ApprovedBy          string               `json:"approved_by,omitempty"`
	Creator             string               `json:"creator"`
	Processes           []string             `json:"processes,omitempty"`
	FinishedGood        FinishedGoodResponse `json:"finished_good"`
	RawMaterials        []BOMLineResponse    `json:"raw_materials"`
	ScrapMaterials      []BOMLineResponse    `json:"scrap_materials,omitempty"`
	ProductionProcessID string               `json:"production_process,omitempty"`
	IsProductionStarted bool                 `json:"is_production_started"`
	CreatedAt           string               `json:"created_at"`
	UpdatedAt           string               `json:"updated_at"`
}

// BOMMutationResponse is returned by create/update. Message carries the
// advisory "Insufficient stock of X" fragments when shortages were recorded.
type BOMMutationResponse struct {
	Message  string       `json:"message"`
	Shortage bool         `json:"shortage"`
	BOM      *BOMResponse `json:"bom,omitempty"`
}

type BOMListResponse struct {
	BOMs  []BOMResponse `json:"boms"`
	Count int           `json:"count"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type BOMFilter struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type ShortageResponse struct {
	BOMName          string          `json:"bom_name"`
	ItemID           string          `json:"item"`
	ItemName         string          `json:"item_name"`
	ShortageQuantity decimal.Decimal `json:"shortage_quantity"`
	CurrentStock     decimal.Decimal `json:"current_stock"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	UpdatedAt        string          `json:"updated_at"`
}

type ShortageListResponse struct {
	Shortages []ShortageResponse `json:"shortages"`
	Count     int                `json:"count"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

// UnapprovedRawMaterialResponse flattens a pending raw-material line with its
// BOM context for the approval screens.
type UnapprovedRawMaterialResponse struct {
	ID           string          `json:"_id"`
	BOMID        string          `json:"bom_id"`
	BOMName      string          `json:"bom_name"`
	BOMStatus    string          `json:"bom_status,omitempty"`
	ItemID       string          `json:"item"`
	ItemName     string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Price        decimal.Decimal `json:"price"`
}

// ApproveRawMaterialRequest identifies the line being approved.
type ApproveRawMaterialRequest struct {
	ID string `json:"_id" validate:"required"`
}

// WeeklyBOMEntry is one cell of the weekday grouping.
type WeeklyBOMEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}
