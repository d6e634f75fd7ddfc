package repository

import (
	"context"

	"fabriq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DispatchRepository interface {
	CreateTx(tx *gorm.DB, d *model.Dispatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Dispatch, error)
	FindByProcessID(ctx context.Context, processID uuid.UUID) (*model.Dispatch, error)
	FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Dispatch, error)
	Save(ctx context.Context, d *model.Dispatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]model.Dispatch, error)
	DB() *gorm.DB
}

type dispatchRepo struct{ db *gorm.DB }

func NewDispatchRepository(db *gorm.DB) DispatchRepository { return &dispatchRepo{db: db} }

func (r *dispatchRepo) DB() *gorm.DB { return r.db }

func (r *dispatchRepo) CreateTx(tx *gorm.DB, d *model.Dispatch) error { return tx.Create(d).Error }

func (r *dispatchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Dispatch, error) {
	var d model.Dispatch
	err := r.db.WithContext(ctx).Preload("Item").First(&d, "id = ?", id).Error
	return &d, err
}

func (r *dispatchRepo) FindByProcessID(ctx context.Context, processID uuid.UUID) (*model.Dispatch, error) {
	var d model.Dispatch
	err := r.db.WithContext(ctx).First(&d, "production_process_id = ?", processID).Error
	return &d, err
}

func (r *dispatchRepo) FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Dispatch, error) {
	var d model.Dispatch
	err := r.db.WithContext(ctx).First(&d, "sale_id = ?", saleID).Error
	return &d, err
}

func (r *dispatchRepo) Save(ctx context.Context, d *model.Dispatch) error {
	return r.db.WithContext(ctx).Omit("Item").Save(d).Error
}

func (r *dispatchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Dispatch{}, "id = ?", id).Error
}

func (r *dispatchRepo) List(ctx context.Context) ([]model.Dispatch, error) {
	var dispatches []model.Dispatch
	err := r.db.WithContext(ctx).Preload("Item").Order("created_at DESC").Find(&dispatches).Error
	return dispatches, err
}
