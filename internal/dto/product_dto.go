package dto

import (
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  *string         `json:"description"`
	Category     string          `json:"category" validate:"required,oneof=raw_material finished_good scrap"`
	UOM          string          `json:"uom"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
}

type UpdateProductRequest struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Category    string           `json:"category" validate:"omitempty,oneof=raw_material finished_good scrap"`
	UOM         string           `json:"uom"`
	Price       *decimal.Decimal `json:"price"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	Approved    *bool            `json:"approved"`
}

// AdjustStockRequest applies a signed delta to current stock.
type AdjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta" validate:"required"`
	Reason string          `json:"reason"`
}

type ProductFilter struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "false" = inactive, "all" = everything, default active
}

type ProductResponse struct {
	ID           string          `json:"_id"`
	ProductCode  string          `json:"product_id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Category     string          `json:"category"`
	UOM          string          `json:"uom"`
	Price        decimal.Decimal `json:"price"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	ChangeType      string          `json:"change_type,omitempty"`
	QuantityChanged decimal.Decimal `json:"quantity_changed"`
	Approved        bool            `json:"approved"`
	Active          bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type StockMovementResponse struct {
	ID          string          `json:"_id"`
	ProductID   string          `json:"product"`
	ProductName string          `json:"product_name,omitempty"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	StockBefore decimal.Decimal `json:"stock_before"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   string          `json:"created_at"`
}
