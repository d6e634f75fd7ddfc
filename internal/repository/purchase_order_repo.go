package repository

import (
	"context"
	"fmt"

	"fabriq/internal/dto"
	"fabriq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseOrderRepository interface {
	CreateTx(tx *gorm.DB, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, filter dto.POFilter) ([]model.PurchaseOrder, int64, error)
	Save(ctx context.Context, po *model.PurchaseOrder) error
	NextPONumber(tx *gorm.DB) (string, error)
	DB() *gorm.DB
}

type purchaseOrderRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) CreateTx(tx *gorm.DB, po *model.PurchaseOrder) error {
	return tx.Create(po).Error
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Items.Product").
		First(&po, "id = ?", id).Error
	return &po, err
}

func (r *purchaseOrderRepo) List(ctx context.Context, filter dto.POFilter) ([]model.PurchaseOrder, int64, error) {
	var pos []model.PurchaseOrder
	var total int64

	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Supplier").Preload("Items").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&pos).Error
	return pos, total, err
}

func (r *purchaseOrderRepo) Save(ctx context.Context, po *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Supplier", "Items").Save(po).Error
}

// NextPONumber draws from a dedicated sequence so concurrent creates never
// collide on the human-readable number.
func (r *purchaseOrderRepo) NextPONumber(tx *gorm.DB) (string, error) {
	var n int64
	if err := tx.Raw("SELECT nextval('po_number_seq')").Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("PO%05d", n), nil
}

func (r *purchaseOrderRepo) DB() *gorm.DB { return r.db }
