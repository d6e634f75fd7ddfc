package repository

import (
	"context"

	"fabriq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementRepository appends to the stock audit trail. Movements are
// written inside the same transaction as the stock mutation they describe.
type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, error)
	List(ctx context.Context, page, limit int) ([]model.StockMovement, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepo) List(ctx context.Context, page, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Preload("Product").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&movements).Error
	return movements, err
}
