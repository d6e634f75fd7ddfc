package service

import (
	"context"
	"time"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/model"
	"fabriq/internal/repository"

	"github.com/google/uuid"
)

// PartyService maintains the customer/supplier directory.
type PartyService interface {
	Create(ctx context.Context, req dto.CreatePartyRequest) (*dto.PartyResponse, error)
	Details(ctx context.Context, id uuid.UUID) (*dto.PartyResponse, error)
	List(ctx context.Context, filter dto.PartyFilter) (*dto.PartyListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePartyRequest) (*dto.PartyResponse, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type partyService struct {
	repo repository.PartyRepository
}

func NewPartyService(repo repository.PartyRepository) PartyService {
	return &partyService{repo: repo}
}

func (s *partyService) Create(ctx context.Context, req dto.CreatePartyRequest) (*dto.PartyResponse, error) {
	if _, err := s.repo.FindByEmailAndType(ctx, req.Email, req.Type); err == nil {
		return nil, apierror.Conflictf("a %s with this email already exists", req.Type)
	}
	p := &model.Party{
		Type:      req.Type,
		Email:     req.Email,
		FullName:  req.FullName,
		Company:   req.Company,
		Phone:     req.Phone,
		GSTNumber: req.GSTNumber,
		Address:   req.Address,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return partyToResponse(p), nil
}

func (s *partyService) Details(ctx context.Context, id uuid.UUID) (*dto.PartyResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("party not found")
	}
	return partyToResponse(p), nil
}

func (s *partyService) List(ctx context.Context, filter dto.PartyFilter) (*dto.PartyListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	parties, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.PartyListResponse{
		Data:  make([]dto.PartyResponse, 0, len(parties)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range parties {
		resp.Data = append(resp.Data, *partyToResponse(&parties[i]))
	}
	return resp, nil
}

func (s *partyService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePartyRequest) (*dto.PartyResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("party not found")
	}
	if req.Email != "" && req.Email != p.Email {
		if _, err := s.repo.FindByEmailAndType(ctx, req.Email, p.Type); err == nil {
			return nil, apierror.Conflictf("a %s with this email already exists", p.Type)
		}
		p.Email = req.Email
	}
	if req.FullName != "" {
		p.FullName = req.FullName
	}
	if req.Company != "" {
		p.Company = req.Company
	}
	if req.Phone != "" {
		p.Phone = req.Phone
	}
	if req.GSTNumber != "" {
		p.GSTNumber = req.GSTNumber
	}
	if req.Address != "" {
		p.Address = req.Address
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return partyToResponse(p), nil
}

func (s *partyService) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFoundf("party not found")
	}
	return s.repo.Delete(ctx, id)
}

func partyToResponse(p *model.Party) *dto.PartyResponse {
	return &dto.PartyResponse{
		ID:        p.ID.String(),
		Type:      p.Type,
		Email:     p.Email,
		FullName:  p.FullName,
		Company:   p.Company,
		Phone:     p.Phone,
		GSTNumber: p.GSTNumber,
		Address:   p.Address,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
