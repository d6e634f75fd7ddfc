package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fabriq/internal/apierror"
	"fabriq/internal/config"
	"fabriq/internal/dto"
	"fabriq/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProductionSvc(cfg *config.Config) (ProductionService, *stubProductionRepo, *stubBOMRepo, *stubProductRepo, *stubMovementRepo) {
	productionRepo := newStubProductionRepo()
	bomRepo := newStubBOMRepo()
	productRepo := newStubProductRepo()
	movementRepo := &stubMovementRepo{}
	svc := NewProductionService(productionRepo, bomRepo, productRepo, movementRepo, cfg)
	return svc, productionRepo, bomRepo, productRepo, movementRepo
}

type lineSpec struct {
	product *model.Product
	qty     float64
}

func seedBOM(bomRepo *stubBOMRepo, fg *model.Product, fgQty float64, raws, scraps []lineSpec) *model.BOM {
	bom := &model.BOM{
		ID:        uuid.New(),
		BOMCode:   "BOM001",
		BOMName:   "Gear Assembly",
		Approved:  true,
		CreatorID: uuid.New(),
		CreatedAt: time.Now(),
	}
	fgLine := &model.FinishedGoodLine{
		ID:       uuid.New(),
		BOMID:    bom.ID,
		ItemID:   fg.ID,
		Quantity: decimal.NewFromFloat(fgQty),
	}
	bom.FinishedGood = fgLine
	bomRepo.fgLines[fgLine.ID] = fgLine
	for _, r := range raws {
		line := model.RawMaterialLine{
			ID:       uuid.New(),
			BOMID:    bom.ID,
			ItemID:   r.product.ID,
			Quantity: decimal.NewFromFloat(r.qty),
			Item:     r.product,
		}
		bom.RawMaterials = append(bom.RawMaterials, line)
		cp := line
		bomRepo.rawLines[line.ID] = &cp
	}
	for _, sc := range scraps {
		line := model.ScrapMaterialLine{
			ID:       uuid.New(),
			BOMID:    bom.ID,
			ItemID:   sc.product.ID,
			Quantity: decimal.NewFromFloat(sc.qty),
			Item:     sc.product,
		}
		bom.ScrapMaterials = append(bom.ScrapMaterials, line)
		cp := line
		bomRepo.scrapLines[line.ID] = &cp
	}
	bomRepo.boms[bom.ID] = bom
	return bom
}

func mustCreateProcess(t *testing.T, svc ProductionService, bom *model.BOM) uuid.UUID {
	t.Helper()
	resp, err := svc.Create(context.Background(), supervisorActor(), dto.CreateProcessRequest{BOM: bom.ID.String()})
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestCreateProcess_SnapshotsBOM(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	bom.Processes = []string{"cutting", "welding"}

	resp, err := svc.Create(context.Background(), supervisorActor(), dto.CreateProcessRequest{BOM: bom.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, model.StatusRawMaterialApprovalPending, resp.Status)
	assert.Equal(t, "10", resp.FinishedGood.EstimatedQuantity.String())
	require.Len(t, resp.RawMaterials, 1)
	assert.Equal(t, "8", resp.RawMaterials[0].EstimatedQuantity.String())
	require.Len(t, resp.Processes, 2)

	// Back-reference links the BOM to its run.
	procID := uuid.MustParse(resp.ID)
	require.NotNil(t, bom.ProductionProcessID)
	assert.Equal(t, procID, *bom.ProductionProcessID)
	_, ok := productionRepo.processes[procID]
	assert.True(t, ok)
}

func TestCreateProcess_OneRunPerBOM(t *testing.T) {
	svc, _, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)

	mustCreateProcess(t, svc, bom)

	_, err := svc.Create(context.Background(), supervisorActor(), dto.CreateProcessRequest{BOM: bom.ID.String()})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

// ── StartProduction ──────────────────────────────────────────────────────────

func TestStartProduction_OnlyFromInTransit(t *testing.T) {
	svc, _, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)

	// Still at the initial status.
	err := svc.StartProduction(context.Background(), procID)
	require.Error(t, err)
	assert.Equal(t, apierror.KindState, apierror.KindOf(err))
	assert.Equal(t, "20", rod.CurrentStock.String())
}

func TestStartProduction_IssuesEstimatesOnce(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, movementRepo := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)

	proc := productionRepo.processes[procID]
	proc.Status = model.StatusInventoryInTransit
	proc.BOM = bom

	require.NoError(t, svc.StartProduction(context.Background(), procID))

	assert.Equal(t, model.StatusProductionStarted, proc.Status)
	assert.NotNil(t, proc.ProductionStartedAt)
	assert.Equal(t, "12", rod.CurrentStock.String())
	assert.Equal(t, "8", proc.RawMaterials[0].UsedQuantity.String())
	assert.Equal(t, 1, movementRepo.countByType(model.MovementProductionIssue))
	assert.True(t, bom.IsProductionStarted)

	lines, _ := bomRepo.ListRawMaterialsByBOM(context.Background(), bom.ID)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].InProduction)
}

func TestStartProduction_InsufficientStock(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 2, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)
	productionRepo.processes[procID].Status = model.StatusInventoryInTransit

	err := svc.StartProduction(context.Background(), procID)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientStock, apierror.KindOf(err))
	assert.Contains(t, err.Error(), "Insufficient stock of Steel Rod")
	assert.Equal(t, "2", rod.CurrentStock.String())
}

func TestStartProduction_LineLookupFailureAborts(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)

	proc := productionRepo.processes[procID]
	proc.Status = model.StatusInventoryInTransit
	proc.BOM = bom

	// If the line lookup fails the run must not start with unmarked lines.
	bomRepo.listRawErr = errors.New("connection reset by peer")

	err := svc.StartProduction(context.Background(), procID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, model.StatusInventoryInTransit, proc.Status)
	assert.Nil(t, proc.ProductionStartedAt)

	bomRepo.listRawErr = nil
	lines, _ := bomRepo.ListRawMaterialsByBOM(context.Background(), bom.ID)
	require.Len(t, lines, 1)
	assert.False(t, lines[0].InProduction)
}

// ── Delta reconciliation ─────────────────────────────────────────────────────

func TestUpdate_RawMaterialDeltaReconciliation(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, movementRepo := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)

	proc := productionRepo.processes[procID]
	proc.Status = model.StatusInventoryInTransit
	require.NoError(t, svc.StartProduction(context.Background(), procID))
	require.Equal(t, "12", rod.CurrentStock.String())

	// Floor reports only 5 actually used: the 3 unit difference is returned.
	report := dto.UpdateProcessRequest{
		ID:     procID.String(),
		Status: model.StatusWorkInProgress,
		BOM: dto.ProcessBOMPayload{
			RawMaterials: []dto.RawMaterialUpdate{{Item: rod.ID.String(), UsedQuantity: decimal.NewFromInt(5)}},
		},
	}
	require.NoError(t, svc.Update(context.Background(), report))
	assert.Equal(t, "15", rod.CurrentStock.String())
	assert.Equal(t, "5", proc.RawMaterials[0].UsedQuantity.String())

	// Re-submitting the same actuals is a no-op.
	movementsBefore := len(movementRepo.movements)
	require.NoError(t, svc.Update(context.Background(), report))
	assert.Equal(t, "15", rod.CurrentStock.String())
	assert.Len(t, movementRepo.movements, movementsBefore)
}

func TestUpdate_FinishedGoodDeltaReconciliation(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, movementRepo := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)
	proc := productionRepo.processes[procID]

	report := func(produced int64) dto.UpdateProcessRequest {
		return dto.UpdateProcessRequest{
			ID:     procID.String(),
			Status: model.StatusWorkInProgress,
			BOM: dto.ProcessBOMPayload{
				FinishedGood: &dto.FinishedGoodUpdate{ProducedQuantity: decimal.NewFromInt(produced)},
			},
		}
	}

	require.NoError(t, svc.Update(context.Background(), report(10)))
	assert.Equal(t, "10", fg.CurrentStock.String())

	// Correcting the report down to 7 claws back the 3 over-credited units.
	require.NoError(t, svc.Update(context.Background(), report(7)))
	assert.Equal(t, "7", fg.CurrentStock.String())
	assert.Equal(t, "7", proc.FinishedGood.ProducedQuantity.String())
	assert.Equal(t, 2, movementRepo.countByType(model.MovementProductionReceipt))
}

func TestUpdate_ScrapReportingConsumesStock(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	shavings := seedProduct(productRepo, "Metal Shavings", "scrap", 10, 0.5)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, []lineSpec{{shavings, 2}})
	procID := mustCreateProcess(t, svc, bom)
	proc := productionRepo.processes[procID]

	report := func(produced int64) dto.UpdateProcessRequest {
		return dto.UpdateProcessRequest{
			ID:     procID.String(),
			Status: model.StatusWorkInProgress,
			BOM: dto.ProcessBOMPayload{
				ScrapMaterials: []dto.ScrapMaterialUpdate{{Item: shavings.ID.String(), ProducedQuantity: decimal.NewFromInt(produced)}},
			},
		}
	}

	// Scrap keeps the source system's inverted bookkeeping.
	require.NoError(t, svc.Update(context.Background(), report(4)))
	assert.Equal(t, "6", shavings.CurrentStock.String())

	require.NoError(t, svc.Update(context.Background(), report(1)))
	assert.Equal(t, "9", shavings.CurrentStock.String())
	assert.Equal(t, "1", proc.ScrapMaterials[0].ProducedQuantity.String())
}

func TestUpdate_MissingProductSkippedUnlessStrict(t *testing.T) {
	fgID := uuid.New()

	build := func(strict bool) (ProductionService, *stubProductionRepo, uuid.UUID) {
		svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{StrictReconciliation: strict})
		fg := &model.Product{ID: fgID, Name: "Gearbox", Active: true}
		productRepo.products[fg.ID] = fg
		rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
		bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
		procID := mustCreateProcess(t, svc, bom)
		// The finished good vanished from the catalog after snapshotting.
		delete(productRepo.products, fg.ID)
		return svc, productionRepo, procID
	}

	report := func(procID uuid.UUID) dto.UpdateProcessRequest {
		return dto.UpdateProcessRequest{
			ID:     procID.String(),
			Status: model.StatusWorkInProgress,
			BOM: dto.ProcessBOMPayload{
				FinishedGood: &dto.FinishedGoodUpdate{ProducedQuantity: decimal.NewFromInt(5)},
			},
		}
	}

	svc, productionRepo, procID := build(false)
	require.NoError(t, svc.Update(context.Background(), report(procID)))
	assert.Equal(t, model.StatusWorkInProgress, productionRepo.processes[procID].Status)

	svc, _, procID = build(true)
	err := svc.Update(context.Background(), report(procID))
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

// ── Transitions ──────────────────────────────────────────────────────────────

func TestGuardlessTransitions(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)
	proc := productionRepo.processes[procID]

	require.NoError(t, svc.RequestAllocation(context.Background(), procID))
	assert.Equal(t, model.StatusRequestForAllowInventory, proc.Status)

	require.NoError(t, svc.MarkInventoryInTransit(context.Background(), procID))
	assert.Equal(t, model.StatusInventoryInTransit, proc.Status)

	require.NoError(t, svc.MarkDone(context.Background(), procID))
	assert.Equal(t, model.StatusCompleted, proc.Status)
}

func TestOverrideStatus(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)

	err := svc.OverrideStatus(context.Background(), dto.StatusOverrideRequest{ID: procID.String()})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	require.NoError(t, svc.OverrideStatus(context.Background(), dto.StatusOverrideRequest{
		ID:     procID.String(),
		Status: model.StatusCompleted,
	}))
	assert.Equal(t, model.StatusCompleted, productionRepo.processes[procID].Status)
}

// ── Remove ───────────────────────────────────────────────────────────────────

func TestRemoveProcess_ClearsBackReference(t *testing.T) {
	svc, productionRepo, bomRepo, productRepo, _ := buildProductionSvc(&config.Config{})
	fg := seedProduct(productRepo, "Gearbox", "finished_good", 0, 250)
	rod := seedProduct(productRepo, "Steel Rod", "raw_material", 20, 12)
	bom := seedBOM(bomRepo, fg, 10, []lineSpec{{rod, 8}}, nil)
	procID := mustCreateProcess(t, svc, bom)
	productionRepo.processes[procID].BOM = bom

	require.NoError(t, svc.Remove(context.Background(), procID))
	assert.Empty(t, productionRepo.processes)
	assert.Nil(t, bom.ProductionProcessID)

	err := svc.Remove(context.Background(), procID)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}
