package repository

import (
	"context"

	"fabriq/internal/dto"
	"fabriq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartyRepository interface {
	Create(ctx context.Context, p *model.Party) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error)
	FindByEmailAndType(ctx context.Context, email, partyType string) (*model.Party, error)
	List(ctx context.Context, filter dto.PartyFilter) ([]model.Party, int64, error)
	Update(ctx context.Context, p *model.Party) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type partyRepo struct{ db *gorm.DB }

func NewPartyRepository(db *gorm.DB) PartyRepository { return &partyRepo{db: db} }

func (r *partyRepo) Create(ctx context.Context, p *model.Party) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *partyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	var p model.Party
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *partyRepo) FindByEmailAndType(ctx context.Context, email, partyType string) (*model.Party, error) {
	var p model.Party
	err := r.db.WithContext(ctx).Where("email = ? AND type = ?", email, partyType).First(&p).Error
	return &p, err
}

func (r *partyRepo) List(ctx context.Context, filter dto.PartyFilter) ([]model.Party, int64, error) {
	var parties []model.Party
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Party{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("full_name ASC").Limit(filter.Limit).Offset(offset).Find(&parties).Error
	return parties, total, err
}

func (r *partyRepo) Update(ctx context.Context, p *model.Party) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *partyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Party{}, "id = ?", id).Error
}
