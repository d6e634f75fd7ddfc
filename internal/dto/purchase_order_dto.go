package dto

import (
	"github.com/shopspring/decimal"
)

type POItemRequest struct {
	Product   string          `json:"product" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

type CreatePORequest struct {
	Supplier string          `json:"supplier" validate:"required"`
	Items    []POItemRequest `json:"items" validate:"required,min=1,dive"`
	Remarks  string          `json:"remarks"`
}

type UpdatePORequest struct {
	Status  string `json:"status" validate:"omitempty,oneof=open received cancelled"`
	Remarks string `json:"remarks"`
}

type POItemResponse struct {
	ID          string          `json:"_id"`
	Product     string          `json:"product"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type POResponse struct {
	ID        string           `json:"_id"`
	PONumber  string           `json:"po_number"`
	Supplier  string           `json:"supplier"`
	Status    string           `json:"status"`
	TotalCost decimal.Decimal  `json:"total_cost"`
	Remarks   string           `json:"remarks,omitempty"`
	Items     []POItemResponse `json:"items"`
	CreatedAt string           `json:"created_at"`
}

type POFilter struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
}

type POListResponse struct {
	Data  []POResponse `json:"data"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}
