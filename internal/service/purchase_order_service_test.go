package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPOSvc() (PurchaseOrderService, *stubPORepo, *stubPartyRepo, *stubProductRepo) {
	orderRepo := newStubPORepo()
	partyRepo := newStubPartyRepo()
	productRepo := newStubProductRepo()
	svc := NewPurchaseOrderService(orderRepo, partyRepo, productRepo, "", nil)
	return svc, orderRepo, partyRepo, productRepo
}

func seedSupplier(r *stubPartyRepo) *model.Party {
	p := &model.Party{
		ID:       uuid.New(),
		Type:     model.PartySupplier,
		Email:    "sales@acme.example",
		FullName: "Acme Metals",
	}
	r.parties[p.ID] = p
	return p
}

func TestCreatePO_ComputesTotalAndNumber(t *testing.T) {
	svc, _, partyRepo, productRepo := buildPOSvc()
	supplier := seedSupplier(partyRepo)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 0, 12)
	bolt := seedProduct(productRepo, "Hex Bolt", "raw_material", 0, 1)

	resp, err := svc.Create(context.Background(), adminActor(), dto.CreatePORequest{
		Supplier: supplier.ID.String(),
		Items: []dto.POItemRequest{
			{Product: rod.ID.String(), Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromFloat(12.5)},
			{Product: bolt.ID.String(), Quantity: decimal.NewFromInt(100), UnitPrice: decimal.NewFromFloat(0.8)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "PO00001", resp.PONumber)
	assert.Equal(t, model.POStatusOpen, resp.Status)
	// 10×12.50 + 100×0.80 = 205.00
	assert.Equal(t, "205", resp.TotalCost.String())
	assert.Len(t, resp.Items, 2)
}

func TestCreatePO_DoesNotTouchStock(t *testing.T) {
	svc, _, partyRepo, productRepo := buildPOSvc()
	supplier := seedSupplier(partyRepo)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 5, 12)

	_, err := svc.Create(context.Background(), adminActor(), dto.CreatePORequest{
		Supplier: supplier.ID.String(),
		Items: []dto.POItemRequest{
			{Product: rod.ID.String(), Quantity: decimal.NewFromInt(50), UnitPrice: decimal.NewFromInt(12)},
		},
	})
	require.NoError(t, err)
	// Goods receipt is booked later through stock adjustments.
	assert.Equal(t, "5", rod.CurrentStock.String())
}

func TestCreatePO_RejectsNonSupplier(t *testing.T) {
	svc, _, partyRepo, productRepo := buildPOSvc()
	customer := &model.Party{ID: uuid.New(), Type: model.PartyCustomer, Email: "c@x.example", FullName: "Customer C"}
	partyRepo.parties[customer.ID] = customer
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 0, 12)

	_, err := svc.Create(context.Background(), adminActor(), dto.CreatePORequest{
		Supplier: customer.ID.String(),
		Items: []dto.POItemRequest{
			{Product: rod.ID.String(), Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(12)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	assert.Contains(t, err.Error(), "is not a supplier")
}

func TestCreatePO_RejectsNonPositiveQuantity(t *testing.T) {
	svc, orderRepo, partyRepo, productRepo := buildPOSvc()
	supplier := seedSupplier(partyRepo)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 0, 12)

	_, err := svc.Create(context.Background(), adminActor(), dto.CreatePORequest{
		Supplier: supplier.ID.String(),
		Items: []dto.POItemRequest{
			{Product: rod.ID.String(), Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(12)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	assert.Empty(t, orderRepo.orders)
}

func TestUpdatePO_StatusOnlyMovesFromOpen(t *testing.T) {
	svc, _, partyRepo, productRepo := buildPOSvc()
	supplier := seedSupplier(partyRepo)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 0, 12)

	created, err := svc.Create(context.Background(), adminActor(), dto.CreatePORequest{
		Supplier: supplier.ID.String(),
		Items: []dto.POItemRequest{
			{Product: rod.ID.String(), Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(12)},
		},
	})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	resp, err := svc.Update(context.Background(), id, dto.UpdatePORequest{Status: model.POStatusReceived})
	require.NoError(t, err)
	assert.Equal(t, model.POStatusReceived, resp.Status)

	// A settled order cannot change status again.
	_, err = svc.Update(context.Background(), id, dto.UpdatePORequest{Status: model.POStatusCancelled})
	require.Error(t, err)
	assert.Equal(t, apierror.KindState, apierror.KindOf(err))
	assert.Contains(t, err.Error(), "already received")

	// Remarks remain editable.
	resp, err = svc.Update(context.Background(), id, dto.UpdatePORequest{Remarks: "received short, 2 backordered"})
	require.NoError(t, err)
	assert.Equal(t, "received short, 2 backordered", resp.Remarks)
}

func TestPODocument_WritesOrderSheet(t *testing.T) {
	orderRepo := newStubPORepo()
	partyRepo := newStubPartyRepo()
	productRepo := newStubProductRepo()
	svc := NewPurchaseOrderService(orderRepo, partyRepo, productRepo, t.TempDir(), nil)

	supplier := seedSupplier(partyRepo)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 0, 12)

	created, err := svc.Create(context.Background(), adminActor(), dto.CreatePORequest{
		Supplier: supplier.ID.String(),
		Items: []dto.POItemRequest{
			{Product: rod.ID.String(), Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromFloat(12.5)},
		},
	})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)
	orderRepo.orders[id].Supplier = supplier

	path, err := svc.Document(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "po_PO00001.pdf", filepath.Base(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPODocument_UnknownOrder(t *testing.T) {
	svc, _, _, _ := buildPOSvc()
	_, err := svc.Document(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestSendPO_RequiresSupplierEmail(t *testing.T) {
	svc, orderRepo, partyRepo, productRepo := buildPOSvc()
	supplier := seedSupplier(partyRepo)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 0, 12)

	created, err := svc.Create(context.Background(), adminActor(), dto.CreatePORequest{
		Supplier: supplier.ID.String(),
		Items: []dto.POItemRequest{
			{Product: rod.ID.String(), Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(12)},
		},
	})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	// No preloaded supplier on the order
	err = svc.Send(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	// With a supplier but no dispatcher configured
	orderRepo.orders[id].Supplier = supplier
	err = svc.Send(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, apierror.KindState, apierror.KindOf(err))
}
