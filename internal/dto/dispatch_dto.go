package dto

import (
	"github.com/shopspring/decimal"
)

// CreateDispatchRequest ships finished goods out of the warehouse. Item may be
// omitted when a production process is referenced — the process's finished
// good is dispatched.
type CreateDispatchRequest struct {
	ProductionProcessID string          `json:"production_process_id"`
	SaleID              string          `json:"sale_id"`
	Item                string          `json:"item"`
	Quantity            decimal.Decimal `json:"quantity" validate:"required"`
}

type UpdateDispatchRequest struct {
	DeliveryStatus string `json:"delivery_status" validate:"omitempty,oneof=Dispatch Delivered"`
	TaskStatus     string `json:"task_status"`
}

type DispatchResponse struct {
	ID                  string          `json:"_id"`
	ProductionProcessID string          `json:"production_process_id,omitempty"`
	SaleID              string          `json:"sale_id,omitempty"`
	ItemID              string          `json:"item"`
	ItemName            string          `json:"item_name,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	DeliveryStatus      string          `json:"delivery_status"`
	TaskStatus          string          `json:"task_status"`
	CreatedAt           string          `json:"created_at"`
}
