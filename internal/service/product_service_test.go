package service

import (
	"context"
	"testing"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProductSvc() (ProductService, *stubProductRepo, *stubMovementRepo) {
	productRepo := newStubProductRepo()
	movementRepo := &stubMovementRepo{}
	svc := NewProductService(productRepo, movementRepo, nil)
	return svc, productRepo, movementRepo
}

func TestCodePrefix(t *testing.T) {
	assert.Equal(t, "RM", codePrefix("raw_material"))
	assert.Equal(t, "FG", codePrefix("finished_good"))
	assert.Equal(t, "S", codePrefix("scrap"))
	assert.Equal(t, "", codePrefix(""))
}

func TestCreateProduct_SequentialCodesPerCategory(t *testing.T) {
	svc, _, _ := buildProductSvc()

	first, err := svc.Create(context.Background(), adminActor(), dto.CreateProductRequest{
		Name:     "Steel Rod",
		Category: "raw_material",
		Price:    decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "RM001", first.ProductCode)
	assert.Equal(t, "pcs", first.UOM)
	assert.True(t, first.Approved) // admin-created
	assert.True(t, first.Active)

	second, err := svc.Create(context.Background(), adminActor(), dto.CreateProductRequest{
		Name:     "Hex Bolt",
		Category: "raw_material",
		Price:    decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "RM002", second.ProductCode)

	// Finished goods number independently.
	fg, err := svc.Create(context.Background(), supervisorActor(), dto.CreateProductRequest{
		Name:     "Gearbox",
		Category: "finished_good",
		Price:    decimal.NewFromInt(250),
	})
	require.NoError(t, err)
	assert.Equal(t, "FG001", fg.ProductCode)
	assert.False(t, fg.Approved)
}

func TestCreateProduct_MissingCategory(t *testing.T) {
	svc, _, _ := buildProductSvc()
	_, err := svc.Create(context.Background(), adminActor(), dto.CreateProductRequest{Name: "Mystery"})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestUpdateProduct_CategoryMoveRegeneratesCode(t *testing.T) {
	svc, productRepo, _ := buildProductSvc()
	p := seedProduct(productRepo, "Bracket", "raw_material", 0, 3)
	p.ProductCode = "RM007"

	resp, err := svc.Update(context.Background(), adminActor(), p.ID, dto.UpdateProductRequest{
		Category: "finished_good",
	})
	require.NoError(t, err)
	assert.Equal(t, "finished_good", resp.Category)
	assert.Equal(t, "FG001", resp.ProductCode)
}

func TestUpdateProduct_NonAdminEditClearsApproval(t *testing.T) {
	svc, productRepo, _ := buildProductSvc()
	p := seedProduct(productRepo, "Bracket", "raw_material", 0, 3)
	p.Approved = true

	resp, err := svc.Update(context.Background(), supervisorActor(), p.ID, dto.UpdateProductRequest{
		Name: "Bracket v2",
	})
	require.NoError(t, err)
	assert.False(t, resp.Approved)
}

func TestAdjustStock_AppliesSignedDelta(t *testing.T) {
	svc, productRepo, movementRepo := buildProductSvc()
	p := seedProduct(productRepo, "Steel Rod", "raw_material", 5, 12)

	resp, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Delta:  decimal.NewFromInt(3),
		Reason: "goods receipt",
	})
	require.NoError(t, err)
	assert.Equal(t, "8", resp.CurrentStock.String())
	assert.Equal(t, model.ChangeIncrease, resp.ChangeType)

	require.Equal(t, 1, movementRepo.countByType(model.MovementAdjustment))
	mov := movementRepo.movements[0]
	assert.Equal(t, "5", mov.StockBefore.String())
	assert.Equal(t, "8", mov.StockAfter.String())
	assert.Equal(t, "goods receipt", mov.Reason)
}

func TestAdjustStock_FloorsAtZero(t *testing.T) {
	svc, productRepo, movementRepo := buildProductSvc()
	p := seedProduct(productRepo, "Steel Rod", "raw_material", 5, 12)

	_, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Delta: decimal.NewFromInt(-8),
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientStock, apierror.KindOf(err))
	assert.Equal(t, "5", p.CurrentStock.String())
	assert.Empty(t, movementRepo.movements)
}

func TestAdjustStock_RejectsZeroDelta(t *testing.T) {
	svc, productRepo, _ := buildProductSvc()
	p := seedProduct(productRepo, "Steel Rod", "raw_material", 5, 12)

	_, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{Delta: decimal.Zero})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestDeactivateProduct(t *testing.T) {
	svc, productRepo, _ := buildProductSvc()
	p := seedProduct(productRepo, "Steel Rod", "raw_material", 5, 12)

	require.NoError(t, svc.Deactivate(context.Background(), p.ID))
	assert.False(t, p.Active)
}
