package service

import (
	"context"
	"time"

	"fabriq/internal/apierror"
	"fabriq/internal/config"
	"fabriq/internal/dto"
	"fabriq/internal/model"
	"fabriq/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductionService drives a production run from snapshot creation through
// dispatch. Stock reconciliation is strictly delta-based: reported actuals are
// compared against the snapshot and only the difference moves catalog stock,
// so re-submitting the same report is a no-op.
type ProductionService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateProcessRequest) (*dto.ProcessResponse, error)
	Update(ctx context.Context, req dto.UpdateProcessRequest) error
	StartProduction(ctx context.Context, id uuid.UUID) error
	RequestAllocation(ctx context.Context, id uuid.UUID) error
	MarkInventoryInTransit(ctx context.Context, id uuid.UUID) error
	MarkDone(ctx context.Context, id uuid.UUID) error
	OverrideStatus(ctx context.Context, req dto.StatusOverrideRequest) error
	Remove(ctx context.Context, id uuid.UUID) error
	Details(ctx context.Context, id uuid.UUID) (*dto.ProcessResponse, error)
	List(ctx context.Context) ([]dto.ProcessResponse, error)
}

type productionService struct {
	processes repository.ProductionRepository
	boms      repository.BOMRepository
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	cfg       *config.Config
}

func NewProductionService(
	processes repository.ProductionRepository,
	boms repository.BOMRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	cfg *config.Config,
) ProductionService {
	return &productionService{
		processes: processes,
		boms:      boms,
		products:  products,
		movements: movements,
		cfg:       cfg,
	}
}

// ── Create ───────────────────────────────────────────────────────────────────
// Freezes the BOM's lines into value snapshots. The run and the BOM only stay
// linked through the back-reference — later BOM edits reach the snapshot
// estimates solely via the builder's explicit refresh.

func (s *productionService) Create(ctx context.Context, actor Actor, req dto.CreateProcessRequest) (*dto.ProcessResponse, error) {
	bomID, err := uuid.Parse(req.BOM)
	if err != nil {
		return nil, apierror.Validationf("invalid bom id")
	}
	bom, err := s.boms.FindByID(ctx, bomID)
	if err != nil {
		return nil, apierror.NotFoundf("BOM doesn't exist")
	}
	if bom.ProductionProcessID != nil {
		return nil, apierror.Conflictf("BOM already has a production process")
	}
	if bom.FinishedGood == nil {
		return nil, apierror.Statef("BOM has no finished good")
	}

	status := req.Status
	if status == "" {
		status = model.StatusRawMaterialApprovalPending
	}

	proc := model.ProductionProcess{
		BOMID:     bom.ID,
		Status:    status,
		CreatorID: actor.ID,
		Approved:  actor.IsSuper(),
		FinishedGood: model.FinishedGoodSnapshot{
			ItemID:            bom.FinishedGood.ItemID,
			EstimatedQuantity: bom.FinishedGood.Quantity,
		},
	}
	for _, p := range bom.Processes {
		proc.Processes = append(proc.Processes, model.ProcessStep{Process: p})
	}
	for _, rm := range bom.RawMaterials {
		proc.RawMaterials = append(proc.RawMaterials, model.RawMaterialSnapshot{
			ItemID:            rm.ItemID,
			EstimatedQuantity: rm.Quantity,
		})
	}
	for _, sm := range bom.ScrapMaterials {
		proc.ScrapMaterials = append(proc.ScrapMaterials, model.ScrapSnapshot{
			ItemID:            sm.ItemID,
			EstimatedQuantity: sm.Quantity,
		})
	}

	txErr := runTx(ctx, s.processes.DB(), func(tx *gorm.DB) error {
		if err := s.processes.CreateTx(tx, &proc); err != nil {
			return err
		}
		bom.ProductionProcessID = &proc.ID
		return s.boms.SaveTx(tx, bom)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := processToResponse(&proc)
	resp.BOMName = bom.BOMName
	return resp, nil
}

// ── StartProduction ──────────────────────────────────────────────────────────
// The only guarded transition: materials leave the warehouse exactly once,
// when the run moves out of "inventory in transit". Estimated quantities are
// issued to the floor, so UsedQuantity starts at the estimate and later
// reports reconcile against it.

func (s *productionService) StartProduction(ctx context.Context, id uuid.UUID) error {
	proc, err := s.processes.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFoundf("Production process doesn't exist")
	}
	if proc.Status != model.StatusInventoryInTransit {
		return apierror.Statef("production can only be started from %q", model.StatusInventoryInTransit)
	}

	return runTx(ctx, s.processes.DB(), func(tx *gorm.DB) error {
		ref := proc.ID
		for i := range proc.RawMaterials {
			snap := &proc.RawMaterials[i]
			if !snap.EstimatedQuantity.IsPositive() {
				continue
			}
			p, err := s.products.FindByIDTx(tx, snap.ItemID)
			if err != nil {
				return apierror.NotFoundf("raw material product not found")
			}
			if p.CurrentStock.LessThan(snap.EstimatedQuantity) {
				return apierror.InsufficientStockf("Insufficient stock of %s", p.Name)
			}
			before := p.CurrentStock
			p.CurrentStock = p.CurrentStock.Sub(snap.EstimatedQuantity)
			p.ChangeType = model.ChangeDecrease
			p.QuantityChanged = snap.EstimatedQuantity
			if err := s.products.SaveTx(tx, p); err != nil {
				return err
			}
			mov := &model.StockMovement{
				ProductID:   snap.ItemID,
				Type:        model.MovementProductionIssue,
				Quantity:    snap.EstimatedQuantity.Neg(),
				StockBefore: before,
				StockAfter:  p.CurrentStock,
				Reason:      "production start",
				ReferenceID: &ref,
			}
			if err := s.movements.CreateTx(tx, mov); err != nil {
				return err
			}
			snap.UsedQuantity = snap.EstimatedQuantity
		}

		lines, err := s.boms.ListRawMaterialsByBOM(ctx, proc.BOMID)
		if err != nil {
			return err
		}
		for i := range lines {
			if lines[i].InProduction {
				continue
			}
			lines[i].InProduction = true
			lines[i].Item = nil
			if err := s.boms.SaveRawMaterialTx(tx, &lines[i]); err != nil {
				return err
			}
		}

		if proc.BOM != nil {
			proc.BOM.IsProductionStarted = true
			if err := s.boms.SaveTx(tx, proc.BOM); err != nil {
				return err
			}
		}

		now := time.Now()
		proc.Status = model.StatusProductionStarted
		proc.ProductionStartedAt = &now
		return s.processes.SaveTx(tx, proc)
	})
}

// ── Update ───────────────────────────────────────────────────────────────────
// Status is set unconditionally; stock only moves when the run is reported as
// "work in progress". Every item reconciles independently: a missing product
// is logged and skipped unless strict reconciliation is configured.

func (s *productionService) Update(ctx context.Context, req dto.UpdateProcessRequest) error {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return apierror.Validationf("invalid production process id")
	}
	proc, err := s.processes.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFoundf("Production Process doesn't exist")
	}

	strict := s.cfg != nil && s.cfg.StrictReconciliation

	return runTx(ctx, s.processes.DB(), func(tx *gorm.DB) error {
		if req.Status == model.StatusWorkInProgress {
			if err := s.reconcileFinishedGoodTx(tx, proc, req.BOM.FinishedGood, strict); err != nil {
				return err
			}
			if err := s.reconcileRawMaterialsTx(ctx, tx, proc, req.BOM.RawMaterials, strict); err != nil {
				return err
			}
			if err := s.reconcileScrapTx(ctx, tx, proc, req.BOM.ScrapMaterials, strict); err != nil {
				return err
			}
		}

		for _, step := range req.BOM.Processes {
			for i := range proc.Processes {
				if proc.Processes[i].Process != step.Process {
					continue
				}
				if step.Start != nil {
					proc.Processes[i].Start = *step.Start
				}
				if step.Done != nil {
					proc.Processes[i].Done = *step.Done
				}
				break
			}
		}

		proc.Status = req.Status
		return s.processes.SaveTx(tx, proc)
	})
}

func (s *productionService) reconcileFinishedGoodTx(tx *gorm.DB, proc *model.ProductionProcess, upd *dto.FinishedGoodUpdate, strict bool) error {
	if upd == nil {
		return nil
	}
	p, err := s.products.FindByIDTx(tx, proc.FinishedGood.ItemID)
	if err != nil {
		if strict {
			return apierror.NotFoundf("finished good product not found")
		}
		log.Warn().Str("item", proc.FinishedGood.ItemID.String()).Msg("reconciliation: finished good missing, line skipped")
		return nil
	}

	delta := upd.ProducedQuantity.Sub(proc.FinishedGood.ProducedQuantity)
	if delta.IsZero() {
		return nil
	}
	if err := s.applyStockDeltaTx(tx, p, delta, model.MovementProductionReceipt, proc.ID); err != nil {
		return err
	}
	proc.FinishedGood.ProducedQuantity = proc.FinishedGood.ProducedQuantity.Add(delta)
	return nil
}

func (s *productionService) reconcileRawMaterialsTx(ctx context.Context, tx *gorm.DB, proc *model.ProductionProcess, updates []dto.RawMaterialUpdate, strict bool) error {
	if len(updates) == 0 {
		return nil
	}
	byItem := make(map[uuid.UUID]dto.RawMaterialUpdate, len(updates))
	for _, u := range updates {
		itemID, err := uuid.Parse(u.Item)
		if err != nil {
			if strict {
				return apierror.Validationf("invalid raw material item id")
			}
			continue
		}
		byItem[itemID] = u
	}

	touched := false
	for i := range proc.RawMaterials {
		snap := &proc.RawMaterials[i]
		upd, ok := byItem[snap.ItemID]
		if !ok {
			continue
		}
		p, err := s.products.FindByIDTx(tx, snap.ItemID)
		if err != nil {
			if strict {
				return apierror.NotFoundf("raw material product not found")
			}
			log.Warn().Str("item", snap.ItemID.String()).Msg("reconciliation: raw material missing, line skipped")
			continue
		}

		// Raw material consumption moves stock in the opposite direction of
		// the reported delta.
		delta := upd.UsedQuantity.Sub(snap.UsedQuantity)
		if !delta.IsZero() {
			if err := s.applyStockDeltaTx(tx, p, delta.Neg(), model.MovementProductionIssue, proc.ID); err != nil {
				return err
			}
			snap.UsedQuantity = snap.UsedQuantity.Add(delta)
		}
		touched = true
	}

	if touched {
		lines, err := s.boms.ListRawMaterialsByBOM(ctx, proc.BOMID)
		if err != nil {
			return nil
		}
		for i := range lines {
			if _, ok := byItem[lines[i].ItemID]; !ok || lines[i].InProduction {
				continue
			}
			lines[i].InProduction = true
			lines[i].Item = nil
			if err := s.boms.SaveRawMaterialTx(tx, &lines[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *productionService) reconcileScrapTx(ctx context.Context, tx *gorm.DB, proc *model.ProductionProcess, updates []dto.ScrapMaterialUpdate, strict bool) error {
	if len(updates) == 0 {
		return nil
	}
	byItem := make(map[uuid.UUID]dto.ScrapMaterialUpdate, len(updates))
	for _, u := range updates {
		itemID, err := uuid.Parse(u.Item)
		if err != nil {
			if strict {
				return apierror.Validationf("invalid scrap material item id")
			}
			continue
		}
		byItem[itemID] = u
	}

	touched := false
	for i := range proc.ScrapMaterials {
		snap := &proc.ScrapMaterials[i]
		upd, ok := byItem[snap.ItemID]
		if !ok {
			continue
		}
		p, err := s.products.FindByIDTx(tx, snap.ItemID)
		if err != nil {
			if strict {
				return apierror.NotFoundf("scrap product not found")
			}
			log.Warn().Str("item", snap.ItemID.String()).Msg("reconciliation: scrap product missing, line skipped")
			continue
		}

		// Scrap inherits the source's inverted bookkeeping: reporting more
		// scrap produced consumes stock, reporting less returns it.
		delta := upd.ProducedQuantity.Sub(snap.ProducedQuantity)
		if !delta.IsZero() {
			if err := s.applyStockDeltaTx(tx, p, delta.Neg(), model.MovementScrap, proc.ID); err != nil {
				return err
			}
			snap.ProducedQuantity = snap.ProducedQuantity.Add(delta)
		}
		touched = true
	}

	if touched {
		lines, err := s.listScrapLines(ctx, proc.BOMID)
		if err != nil {
			return nil
		}
		for i := range lines {
			if _, ok := byItem[lines[i].ItemID]; !ok || lines[i].IsProductionStarted {
				continue
			}
			lines[i].IsProductionStarted = true
			lines[i].Item = nil
			if err := s.boms.SaveScrapMaterialTx(tx, &lines[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *productionService) listScrapLines(ctx context.Context, bomID uuid.UUID) ([]model.ScrapMaterialLine, error) {
	bom, err := s.boms.FindByID(ctx, bomID)
	if err != nil {
		return nil, err
	}
	return bom.ScrapMaterials, nil
}

// applyStockDeltaTx moves a product's stock by a signed delta, refuses to
// drive it negative, and writes the audit movement.
func (s *productionService) applyStockDeltaTx(tx *gorm.DB, p *model.Product, delta decimal.Decimal, movementType string, refID uuid.UUID) error {
	after := p.CurrentStock.Add(delta)
	if after.IsNegative() {
		return apierror.InsufficientStockf("Insufficient stock of %s", p.Name)
	}
	before := p.CurrentStock
	p.CurrentStock = after
	if delta.IsPositive() {
		p.ChangeType = model.ChangeIncrease
	} else {
		p.ChangeType = model.ChangeDecrease
	}
	p.QuantityChanged = delta.Abs()
	if err := s.products.SaveTx(tx, p); err != nil {
		return err
	}
	ref := refID
	mov := &model.StockMovement{
		ProductID:   p.ID,
		Type:        movementType,
		Quantity:    delta,
		StockBefore: before,
		StockAfter:  after,
		Reason:      "production reconciliation",
		ReferenceID: &ref,
	}
	return s.movements.CreateTx(tx, mov)
}

// ── Guardless transitions ────────────────────────────────────────────────────

func (s *productionService) RequestAllocation(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, model.StatusRequestForAllowInventory)
}

func (s *productionService) MarkInventoryInTransit(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, model.StatusInventoryInTransit)
}

func (s *productionService) MarkDone(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, model.StatusCompleted)
}

// OverrideStatus writes an arbitrary status string. Admin escape hatch —
// the handler restricts it to elevated principals.
func (s *productionService) OverrideStatus(ctx context.Context, req dto.StatusOverrideRequest) error {
	if req.Status == "" {
		return apierror.Validationf("status not provided")
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return apierror.Validationf("invalid production process id")
	}
	return s.setStatus(ctx, id, req.Status)
}

func (s *productionService) setStatus(ctx context.Context, id uuid.UUID, status string) error {
	proc, err := s.processes.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFoundf("Production process doesn't exist")
	}
	proc.Status = status
	return s.processes.Save(ctx, proc)
}

// ── Remove / reads ───────────────────────────────────────────────────────────

// Remove deletes only the run. The BOM and its lines survive; snapshot data
// is embedded so nothing else has to go.
func (s *productionService) Remove(ctx context.Context, id uuid.UUID) error {
	proc, err := s.processes.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFoundf("Production process doesn't exist")
	}
	return runTx(ctx, s.processes.DB(), func(tx *gorm.DB) error {
		if err := s.processes.DeleteTx(tx, proc.ID); err != nil {
			return err
		}
		if proc.BOM != nil && proc.BOM.ProductionProcessID != nil && *proc.BOM.ProductionProcessID == proc.ID {
			proc.BOM.ProductionProcessID = nil
			return s.boms.SaveTx(tx, proc.BOM)
		}
		return nil
	})
}

func (s *productionService) Details(ctx context.Context, id uuid.UUID) (*dto.ProcessResponse, error) {
	proc, err := s.processes.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("Production Process doesn't exist")
	}
	return processToResponse(proc), nil
}

func (s *productionService) List(ctx context.Context) ([]dto.ProcessResponse, error) {
	processes, err := s.processes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProcessResponse, 0, len(processes))
	for i := range processes {
		out = append(out, *processToResponse(&processes[i]))
	}
	return out, nil
}

func processToResponse(p *model.ProductionProcess) *dto.ProcessResponse {
	resp := &dto.ProcessResponse{
		ID:       p.ID.String(),
		BOMID:    p.BOMID.String(),
		Status:   p.Status,
		Approved: p.Approved,
		Creator:  p.CreatorID.String(),
		FinishedGood: dto.SnapshotLineResponse{
			Item:              p.FinishedGood.ItemID.String(),
			EstimatedQuantity: p.FinishedGood.EstimatedQuantity,
			ProducedQuantity:  p.FinishedGood.ProducedQuantity,
		},
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if p.BOM != nil {
		resp.BOMName = p.BOM.BOMName
	}
	if p.ProductionStartedAt != nil {
		resp.ProductionStartedAt = p.ProductionStartedAt.Format(time.RFC3339)
	}
	for _, rm := range p.RawMaterials {
		resp.RawMaterials = append(resp.RawMaterials, dto.SnapshotLineResponse{
			Item:              rm.ItemID.String(),
			EstimatedQuantity: rm.EstimatedQuantity,
			UsedQuantity:      rm.UsedQuantity,
		})
	}
	for _, sm := range p.ScrapMaterials {
		resp.ScrapMaterials = append(resp.ScrapMaterials, dto.SnapshotLineResponse{
			Item:              sm.ItemID.String(),
			EstimatedQuantity: sm.EstimatedQuantity,
			ProducedQuantity:  sm.ProducedQuantity,
		})
	}
	for _, st := range p.Processes {
		resp.Processes = append(resp.Processes, dto.ProcessStepResponse{
			Process: st.Process,
			Start:   st.Start,
			Done:    st.Done,
		})
	}
	return resp
}
