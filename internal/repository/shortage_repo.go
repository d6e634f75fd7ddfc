package repository

import (
	"context"

	"fabriq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShortageRepository persists the derived shortage ledger. Rows are keyed by
// (bom, raw material line); the tracker upserts and deletes, never updates
// stock.
type ShortageRepository interface {
	UpsertTx(tx *gorm.DB, s *model.InventoryShortage) error
	DeleteByLineTx(tx *gorm.DB, bomID, lineID uuid.UUID) error
	DeleteByBOMTx(tx *gorm.DB, bomID uuid.UUID) error
	List(ctx context.Context, page, limit int) ([]model.InventoryShortage, error)
	ListByBOM(ctx context.Context, bomID uuid.UUID) ([]model.InventoryShortage, error)
}

type shortageRepo struct{ db *gorm.DB }

func NewShortageRepository(db *gorm.DB) ShortageRepository { return &shortageRepo{db: db} }

func (r *shortageRepo) UpsertTx(tx *gorm.DB, s *model.InventoryShortage) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bom_id"}, {Name: "raw_material_line_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"shortage_quantity", "updated_at"}),
	}).Create(s).Error
}

func (r *shortageRepo) DeleteByLineTx(tx *gorm.DB, bomID, lineID uuid.UUID) error {
	return tx.Delete(&model.InventoryShortage{}, "bom_id = ? AND raw_material_line_id = ?", bomID, lineID).Error
}

func (r *shortageRepo) DeleteByBOMTx(tx *gorm.DB, bomID uuid.UUID) error {
	return tx.Delete(&model.InventoryShortage{}, "bom_id = ?", bomID).Error
}

func (r *shortageRepo) List(ctx context.Context, page, limit int) ([]model.InventoryShortage, error) {
	var shortages []model.InventoryShortage
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("BOM").
		Order("updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&shortages).Error
	return shortages, err
}

func (r *shortageRepo) ListByBOM(ctx context.Context, bomID uuid.UUID) ([]model.InventoryShortage, error) {
	var shortages []model.InventoryShortage
	err := r.db.WithContext(ctx).Where("bom_id = ?", bomID).Find(&shortages).Error
	return shortages, err
}
