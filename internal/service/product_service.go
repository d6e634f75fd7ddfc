package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/model"
	"fabriq/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const productCacheTTL = 5 * time.Minute

// ProductService is the catalog store. Reads of single products go through a
// redis cache; every stock mutation writes an audit movement in the same
// transaction.
type ProductService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Details(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Movements(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.StockMovementResponse, error)
}

type productService struct {
	repo      repository.ProductRepository
	movements repository.StockMovementRepository
	rdb       *redis.Client
}

func NewProductService(repo repository.ProductRepository, movements repository.StockMovementRepository, rdb *redis.Client) ProductService {
	return &productService{repo: repo, movements: movements, rdb: rdb}
}

// codePrefix derives the human code prefix from the category initials:
// raw_material -> RM, finished_good -> FG, scrap -> S.
func codePrefix(category string) string {
	parts := strings.FieldsFunc(strings.ToLower(category), func(r rune) bool {
		return r == '_' || r == ' '
	})
	prefix := ""
	for _, w := range parts {
		if w == "" {
			continue
		}
		prefix += strings.ToUpper(w[:1])
		if len(prefix) == 3 {
			break
		}
	}
	return prefix
}

func (s *productService) nextProductCode(ctx context.Context, category string) (string, error) {
	prefix := codePrefix(category)
	if prefix == "" {
		return "", apierror.Validationf("category is required")
	}
	last, err := s.repo.LastCodeWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	next := 1
	if last != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}

func (s *productService) Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	code, err := s.nextProductCode(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	uom := req.UOM
	if uom == "" {
		uom = "pcs"
	}
	p := &model.Product{
		ProductCode:  code,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		UOM:          uom,
		Price:        req.Price,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		Approved:     actor.IsSuper(),
		Active:       true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Details(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	if cached := s.cacheGet(ctx, id); cached != nil {
		return cached, nil
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("Product doesn't exist")
	}
	resp := productToResponse(p)
	s.cacheSet(ctx, id, resp)
	return resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, 0, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data = append(resp.Data, *productToResponse(&products[i]))
	}
	return resp, nil
}

func (s *productService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("Product doesn't exist")
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != "" && req.Category != p.Category {
		// Category moves get a fresh code under the new prefix.
		code, err := s.nextProductCode(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		p.Category = req.Category
		p.ProductCode = code
	}
	if req.UOM != "" {
		p.UOM = req.UOM
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	// Approval survives an edit only when an elevated principal confirms it.
	if req.Approved != nil && actor.IsSuper() {
		p.Approved = *req.Approved
	} else if !actor.IsSuper() {
		p.Approved = false
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, id)
	return productToResponse(p), nil
}

// AdjustStock applies a signed manual correction. The stock floor holds here
// like everywhere else: a delta that would go below zero is rejected.
func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	if req.Delta.IsZero() {
		return nil, apierror.Validationf("delta must be non-zero")
	}

	var p *model.Product
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return apierror.NotFoundf("Product doesn't exist")
		}
		after := p.CurrentStock.Add(req.Delta)
		if after.IsNegative() {
			return apierror.InsufficientStockf("Insufficient stock of %s", p.Name)
		}
		before := p.CurrentStock
		p.CurrentStock = after
		if req.Delta.IsPositive() {
			p.ChangeType = model.ChangeIncrease
		} else {
			p.ChangeType = model.ChangeDecrease
		}
		p.QuantityChanged = req.Delta.Abs()
		if err := s.repo.SaveTx(tx, p); err != nil {
			return err
		}
		mov := &model.StockMovement{
			ProductID:   id,
			Type:        model.MovementAdjustment,
			Quantity:    req.Delta,
			StockBefore: before,
			StockAfter:  after,
			Reason:      req.Reason,
		}
		return s.movements.CreateTx(tx, mov)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.cacheInvalidate(ctx, id)
	return productToResponse(p), nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFoundf("Product doesn't exist")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, id)
	return nil
}

func (s *productService) Movements(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.StockMovementResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	movements, err := s.movements.ListByProduct(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		entry := dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
		if m.Product != nil {
			entry.ProductName = m.Product.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

// ── redis cache ──────────────────────────────────────────────────────────────

func productCacheKey(id uuid.UUID) string { return "product:" + id.String() }

func (s *productService) cacheGet(ctx context.Context, id uuid.UUID) *dto.ProductResponse {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, productCacheKey(id)).Result()
	if err != nil {
		return nil
	}
	var resp dto.ProductResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *productService) cacheSet(ctx context.Context, id uuid.UUID, resp *dto.ProductResponse) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = s.rdb.Set(ctx, productCacheKey(id), data, productCacheTTL).Err()
}

func (s *productService) cacheInvalidate(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, productCacheKey(id)).Err()
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:              p.ID.String(),
		ProductCode:     p.ProductCode,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		UOM:             p.UOM,
		Price:           p.Price,
		CurrentStock:    p.CurrentStock,
		MinStock:        p.MinStock,
		ChangeType:      p.ChangeType,
		QuantityChanged: p.QuantityChanged,
		Approved:        p.Approved,
		Active:          p.Active,
	}
}
