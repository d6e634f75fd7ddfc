package service

import (
	"context"

	"fabriq/internal/dto"
	"fabriq/internal/model"
	"fabriq/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecomputeShortage returns how much of required cannot be covered by the
// available stock. Never negative: surplus stock is not a shortage.
func RecomputeShortage(required, available decimal.Decimal) decimal.Decimal {
	diff := required.Sub(available)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// ShortageTracker maintains the derived shortage ledger. It owns no stock
// state of its own — rows exist only as long as a raw-material line's
// requirement exceeds the catalog stock observed at the last check.
type ShortageTracker struct {
	shortages repository.ShortageRepository
}

func NewShortageTracker(shortages repository.ShortageRepository) *ShortageTracker {
	return &ShortageTracker{shortages: shortages}
}

// ReconcileLineTx brings the ledger row for one (bom, line) pair in sync with
// the given requirement and stock level: upserts when short, deletes when
// covered. Returns the shortage quantity (zero when covered).
func (t *ShortageTracker) ReconcileLineTx(tx *gorm.DB, bomID, lineID, itemID uuid.UUID, required, available decimal.Decimal) (decimal.Decimal, error) {
	shortage := RecomputeShortage(required, available)
	if shortage.IsPositive() {
		row := &model.InventoryShortage{
			BOMID:             bomID,
			RawMaterialLineID: lineID,
			ItemID:            itemID,
			ShortageQuantity:  shortage,
		}
		if err := t.shortages.UpsertTx(tx, row); err != nil {
			return decimal.Zero, err
		}
		return shortage, nil
	}
	if err := t.shortages.DeleteByLineTx(tx, bomID, lineID); err != nil {
		return decimal.Zero, err
	}
	return decimal.Zero, nil
}

// ClearBOMTx drops every ledger row of a BOM (cascade delete path).
func (t *ShortageTracker) ClearBOMTx(tx *gorm.DB, bomID uuid.UUID) error {
	return t.shortages.DeleteByBOMTx(tx, bomID)
}

// List returns the ledger newest-first with item and BOM context.
func (t *ShortageTracker) List(ctx context.Context, page, limit int) (*dto.ShortageListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	rows, err := t.shortages.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.ShortageListResponse{
		Shortages: make([]dto.ShortageResponse, 0, len(rows)),
		Page:      page,
		Limit:     limit,
	}
	for _, row := range rows {
		s := dto.ShortageResponse{
			ItemID:           row.ItemID.String(),
			ShortageQuantity: row.ShortageQuantity,
			UpdatedAt:        row.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if row.BOM != nil {
			s.BOMName = row.BOM.BOMName
		}
		if row.Item != nil {
			s.ItemName = row.Item.Name
			s.CurrentStock = row.Item.CurrentStock
			s.CurrentPrice = row.Item.Price
		}
		resp.Shortages = append(resp.Shortages, s)
	}
	resp.Count = len(resp.Shortages)
	return resp, nil
}
