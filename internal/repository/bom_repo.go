package repository

import (
	"context"
	"fmt"

	"fabriq/internal/dto"
	"fabriq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BOMRepository owns the BOM aggregate: header plus the exclusively-owned
// finished-good, raw-material and scrap-material lines.
type BOMRepository interface {
	// Aggregate reads. FindByID preloads all lines and their catalog items.
	FindByID(ctx context.Context, id uuid.UUID) (*model.BOM, error)
	ListApproved(ctx context.Context, filter dto.BOMFilter) ([]model.BOM, error)
	ListUnapproved(ctx context.Context) ([]model.BOM, error)
	ListByFinishedProduct(ctx context.Context, productID uuid.UUID) ([]model.BOM, error)
	// FindLatestApprovedByFinishedProduct returns the most recent approved BOM
	// whose finished good points at productID.
	FindLatestApprovedByFinishedProduct(ctx context.Context, productID uuid.UUID) (*model.BOM, error)

	// Writes — callers pass the surrounding transaction.
	CreateTx(tx *gorm.DB, b *model.BOM) error
	SaveTx(tx *gorm.DB, b *model.BOM) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	CreateFinishedGoodTx(tx *gorm.DB, l *model.FinishedGoodLine) error
	SaveFinishedGoodTx(tx *gorm.DB, l *model.FinishedGoodLine) error
	DeleteFinishedGoodTx(tx *gorm.DB, bomID uuid.UUID) error
	CreateRawMaterialTx(tx *gorm.DB, l *model.RawMaterialLine) error
	SaveRawMaterialTx(tx *gorm.DB, l *model.RawMaterialLine) error
	DeleteRawMaterialsTx(tx *gorm.DB, bomID uuid.UUID) error
	CreateScrapMaterialTx(tx *gorm.DB, l *model.ScrapMaterialLine) error
	SaveScrapMaterialTx(tx *gorm.DB, l *model.ScrapMaterialLine) error
	DeleteScrapMaterialsTx(tx *gorm.DB, bomID uuid.UUID) error

	// Line lookups for the upsert-by-id merge and the approval flows.
	FindRawMaterialByID(ctx context.Context, id uuid.UUID) (*model.RawMaterialLine, error)
	FindScrapMaterialByID(ctx context.Context, id uuid.UUID) (*model.ScrapMaterialLine, error)
	ListRawMaterialsByBOM(ctx context.Context, bomID uuid.UUID) ([]model.RawMaterialLine, error)
	ListUnapprovedRawMaterials(ctx context.Context, byInventory bool) ([]model.RawMaterialLine, error)
	SaveRawMaterial(ctx context.Context, l *model.RawMaterialLine) error

	// NextBOMCode reserves the next BOM### code from a dedicated sequence —
	// the max-scan used previously races under concurrent creates.
	NextBOMCode(tx *gorm.DB) (string, error)

	DB() *gorm.DB
}

type bomRepo struct{ db *gorm.DB }

func NewBOMRepository(db *gorm.DB) BOMRepository { return &bomRepo{db: db} }

func (r *bomRepo) DB() *gorm.DB { return r.db }

func (r *bomRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BOM, error) {
	var b model.BOM
	err := r.db.WithContext(ctx).
		Preload("FinishedGood.Item").
		Preload("RawMaterials.Item").
		Preload("ScrapMaterials.Item").
		First(&b, "id = ?", id).Error
	return &b, err
}

func (r *bomRepo) ListApproved(ctx context.Context, filter dto.BOMFilter) ([]model.BOM, error) {
	var boms []model.BOM
	offset := (filter.Page - 1) * filter.Limit
	err := r.db.WithContext(ctx).
		Preload("FinishedGood.Item").
		Preload("RawMaterials.Item").
		Preload("ScrapMaterials.Item").
		Where("approved = true").
		Order("updated_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&boms).Error
	return boms, err
}

func (r *bomRepo) ListUnapproved(ctx context.Context) ([]model.BOM, error) {
	var boms []model.BOM
	err := r.db.WithContext(ctx).
		Preload("FinishedGood.Item").
		Preload("RawMaterials.Item").
		Where("approved = false").
		Order("updated_at DESC").
		Find(&boms).Error
	return boms, err
}

func (r *bomRepo) ListByFinishedProduct(ctx context.Context, productID uuid.UUID) ([]model.BOM, error) {
	var boms []model.BOM
	err := r.db.WithContext(ctx).
		Preload("FinishedGood.Item").
		Joins("JOIN bom_finished_goods fg ON fg.bom_id = boms.id").
		Where("fg.item_id = ?", productID).
		Find(&boms).Error
	return boms, err
}

func (r *bomRepo) FindLatestApprovedByFinishedProduct(ctx context.Context, productID uuid.UUID) (*model.BOM, error) {
	var b model.BOM
	err := r.db.WithContext(ctx).
		Preload("FinishedGood.Item").
		Preload("RawMaterials.Item").
		Preload("ScrapMaterials.Item").
		Joins("JOIN bom_finished_goods fg ON fg.bom_id = boms.id").
		Where("fg.item_id = ? AND boms.approved = true", productID).
		Order("boms.created_at DESC").
		First(&b).Error
	return &b, err
}

func (r *bomRepo) CreateTx(tx *gorm.DB, b *model.BOM) error { return tx.Create(b).Error }

func (r *bomRepo) SaveTx(tx *gorm.DB, b *model.BOM) error {
	// Save on the bare header — associations are managed explicitly by the
	// service so an aggregate save never clobbers lines it did not touch.
	return tx.Omit("FinishedGood", "RawMaterials", "ScrapMaterials").Save(b).Error
}

func (r *bomRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.BOM{}, "id = ?", id).Error
}

func (r *bomRepo) CreateFinishedGoodTx(tx *gorm.DB, l *model.FinishedGoodLine) error {
	// Insert the bare line — gorm must never upsert the catalog product
	// through a populated Item association.
	return tx.Omit("Item").Create(l).Error
}

func (r *bomRepo) SaveFinishedGoodTx(tx *gorm.DB, l *model.FinishedGoodLine) error {
	return tx.Omit("Item").Save(l).Error
}

func (r *bomRepo) DeleteFinishedGoodTx(tx *gorm.DB, bomID uuid.UUID) error {
	return tx.Delete(&model.FinishedGoodLine{}, "bom_id = ?", bomID).Error
}

func (r *bomRepo) CreateRawMaterialTx(tx *gorm.DB, l *model.RawMaterialLine) error {
	return tx.Omit("Item", "BOM").Create(l).Error
}

func (r *bomRepo) SaveRawMaterialTx(tx *gorm.DB, l *model.RawMaterialLine) error {
	return tx.Omit("Item", "BOM").Save(l).Error
}

func (r *bomRepo) DeleteRawMaterialsTx(tx *gorm.DB, bomID uuid.UUID) error {
	return tx.Delete(&model.RawMaterialLine{}, "bom_id = ?", bomID).Error
}

func (r *bomRepo) CreateScrapMaterialTx(tx *gorm.DB, l *model.ScrapMaterialLine) error {
	return tx.Omit("Item").Create(l).Error
}

func (r *bomRepo) SaveScrapMaterialTx(tx *gorm.DB, l *model.ScrapMaterialLine) error {
	return tx.Omit("Item").Save(l).Error
}

func (r *bomRepo) DeleteScrapMaterialsTx(tx *gorm.DB, bomID uuid.UUID) error {
	return tx.Delete(&model.ScrapMaterialLine{}, "bom_id = ?", bomID).Error
}

func (r *bomRepo) FindRawMaterialByID(ctx context.Context, id uuid.UUID) (*model.RawMaterialLine, error) {
	var l model.RawMaterialLine
	err := r.db.WithContext(ctx).Preload("Item").First(&l, "id = ?", id).Error
	return &l, err
}

func (r *bomRepo) FindScrapMaterialByID(ctx context.Context, id uuid.UUID) (*model.ScrapMaterialLine, error) {
	var l model.ScrapMaterialLine
	err := r.db.WithContext(ctx).Preload("Item").First(&l, "id = ?", id).Error
	return &l, err
}

func (r *bomRepo) ListRawMaterialsByBOM(ctx context.Context, bomID uuid.UUID) ([]model.RawMaterialLine, error) {
	var lines []model.RawMaterialLine
	err := r.db.WithContext(ctx).Preload("Item").Where("bom_id = ?", bomID).Find(&lines).Error
	return lines, err
}

func (r *bomRepo) ListUnapprovedRawMaterials(ctx context.Context, byInventory bool) ([]model.RawMaterialLine, error) {
	var lines []model.RawMaterialLine
	q := r.db.WithContext(ctx).Preload("Item").Preload("BOM").Order("updated_at DESC")
	if byInventory {
		q = q.Where("approved_by_inventory = false")
	} else {
		q = q.Where("approved_by_admin = false")
	}
	err := q.Find(&lines).Error
	return lines, err
}

func (r *bomRepo) SaveRawMaterial(ctx context.Context, l *model.RawMaterialLine) error {
	return r.db.WithContext(ctx).Omit("Item", "BOM").Save(l).Error
}

func (r *bomRepo) NextBOMCode(tx *gorm.DB) (string, error) {
	var n int
	if err := tx.Raw("SELECT nextval('bom_code_seq')").Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("BOM%03d", n), nil
}
