package repository

import (
	"context"

	"fabriq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductionRepository persists production process documents. Snapshot data is
// embedded, so there is nothing to cascade on delete.
type ProductionRepository interface {
	CreateTx(tx *gorm.DB, p *model.ProductionProcess) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionProcess, error)
	Save(ctx context.Context, p *model.ProductionProcess) error
	SaveTx(tx *gorm.DB, p *model.ProductionProcess) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context) ([]model.ProductionProcess, error)
	DB() *gorm.DB
}

type productionRepo struct{ db *gorm.DB }

func NewProductionRepository(db *gorm.DB) ProductionRepository { return &productionRepo{db: db} }

func (r *productionRepo) DB() *gorm.DB { return r.db }

func (r *productionRepo) CreateTx(tx *gorm.DB, p *model.ProductionProcess) error {
	return tx.Create(p).Error
}

func (r *productionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionProcess, error) {
	var p model.ProductionProcess
	err := r.db.WithContext(ctx).Preload("BOM").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productionRepo) Save(ctx context.Context, p *model.ProductionProcess) error {
	return r.db.WithContext(ctx).Omit("BOM").Save(p).Error
}

func (r *productionRepo) SaveTx(tx *gorm.DB, p *model.ProductionProcess) error {
	return tx.Omit("BOM").Save(p).Error
}

func (r *productionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ProductionProcess{}, "id = ?", id).Error
}

func (r *productionRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.ProductionProcess{}, "id = ?", id).Error
}

func (r *productionRepo) List(ctx context.Context) ([]model.ProductionProcess, error) {
	var processes []model.ProductionProcess
	err := r.db.WithContext(ctx).Preload("BOM").Order("created_at DESC").Find(&processes).Error
	return processes, err
}
