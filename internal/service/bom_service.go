package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fabriq/internal/apierror"
	"fabriq/internal/config"
	"fabriq/internal/dto"
	"fabriq/internal/model"
	"fabriq/internal/repository"
	"fabriq/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BOMService is the BOM builder: create/update/remove the aggregate, clone it
// at a new scale, and serve the approval and shortage surfaces built on it.
type BOMService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateBOMRequest) (*dto.BOMMutationResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateBOMRequest) (*dto.BOMMutationResponse, error)
	Remove(ctx context.Context, id uuid.UUID) (*dto.BOMResponse, error)
	Details(ctx context.Context, id uuid.UUID) (*dto.BOMResponse, error)
	ListApproved(ctx context.Context, filter dto.BOMFilter) (*dto.BOMListResponse, error)
	ListUnapproved(ctx context.Context) ([]dto.BOMResponse, error)
	ListByFinishedGood(ctx context.Context, productID uuid.UUID) ([]dto.BOMResponse, error)
	AutoClone(ctx context.Context, actor Actor, q dto.AutoBOMQuery) (*dto.BOMMutationResponse, error)
	WeeklyGrouping(ctx context.Context) (map[string][]dto.WeeklyBOMEntry, error)
	ListShortages(ctx context.Context, page, limit int) (*dto.ShortageListResponse, error)
	ListUnapprovedRawMaterials(ctx context.Context, forInventory bool) ([]dto.UnapprovedRawMaterialResponse, error)
	ApproveRawMaterialByAdmin(ctx context.Context, lineID uuid.UUID) error
	ApproveRawMaterialByInventory(ctx context.Context, lineID uuid.UUID) error
}

type bomService struct {
	boms       repository.BOMRepository
	products   repository.ProductRepository
	production repository.ProductionRepository
	movements  repository.StockMovementRepository
	tracker    *ShortageTracker
	cfg        *config.Config
	dispatcher *worker.Dispatcher
}

func NewBOMService(
	boms repository.BOMRepository,
	products repository.ProductRepository,
	production repository.ProductionRepository,
	movements repository.StockMovementRepository,
	tracker *ShortageTracker,
	cfg *config.Config,
	dispatcher *worker.Dispatcher,
) BOMService {
	return &bomService{
		boms:       boms,
		products:   products,
		production: production,
		movements:  movements,
		tracker:    tracker,
		cfg:        cfg,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// negativeLineCredit sums the absolute value of all negative raw-material
// quantities. A negative line is a credit against the BOM: the same amount is
// added to the finished-good quantity so the yield stays balanced.
func negativeLineCredit(lines []dto.BOMLineRequest) decimal.Decimal {
	credit := decimal.Zero
	for _, l := range lines {
		if l.Quantity.IsNegative() {
			credit = credit.Add(l.Quantity.Abs())
		}
	}
	return credit
}

type resolvedBOMLine struct {
	req     dto.BOMLineRequest
	itemID  uuid.UUID
	product *model.Product
}

// ── Create ───────────────────────────────────────────────────────────────────
// Persists the whole aggregate in one transaction. Shortages never block the
// create; they are recorded in the ledger and reported in the message.

func (s *bomService) Create(ctx context.Context, actor Actor, req dto.CreateBOMRequest) (*dto.BOMMutationResponse, error) {
	fgID, err := uuid.Parse(req.FinishedGood.Item)
	if err != nil {
		return nil, apierror.Validationf("invalid finished good item id")
	}
	if _, err := s.products.FindByID(ctx, fgID); err != nil {
		return nil, apierror.NotFoundf("Finished good doesn't exist")
	}

	// Resolve raw materials and collect the advisory shortage message before
	// touching the database.
	shortageMsg := ""
	var rawLines []resolvedBOMLine
	for _, rm := range req.RawMaterials {
		itemID, err := uuid.Parse(rm.Item)
		if err != nil {
			return nil, apierror.Validationf("invalid raw material item id")
		}
		p, err := s.products.FindByID(ctx, itemID)
		if err != nil {
			return nil, apierror.NotFoundf("Raw material doesn't exist")
		}
		if RecomputeShortage(rm.Quantity, p.CurrentStock).IsPositive() {
			shortageMsg += fmt.Sprintf(" Insufficient stock of %s", p.Name)
		}
		rawLines = append(rawLines, resolvedBOMLine{req: rm, itemID: itemID, product: p})
	}

	var scrapLines []resolvedBOMLine
	for _, sm := range req.ScrapMaterials {
		itemID, err := uuid.Parse(sm.Item)
		if err != nil {
			return nil, apierror.Validationf("invalid scrap material item id")
		}
		p, err := s.products.FindByID(ctx, itemID)
		if err != nil {
			return nil, apierror.NotFoundf("Scrap material doesn't exist")
		}
		scrapLines = append(scrapLines, resolvedBOMLine{req: sm, itemID: itemID, product: p})
	}

	adjustedFGQty := req.FinishedGood.Quantity.Add(negativeLineCredit(req.RawMaterials))

	var bom model.BOM
	txErr := runTx(ctx, s.boms.DB(), func(tx *gorm.DB) error {
		code, err := s.boms.NextBOMCode(tx)
		if err != nil {
			return err
		}

		bom = model.BOM{
			BOMCode:      code,
			BOMName:      req.BOMName,
			PartsCount:   req.PartsCount,
			TotalCost:    req.TotalCost,
			Approved:     actor.IsSuper(),
			CreatorID:    actor.ID,
			Processes:    req.Processes,
			Manpower:     manpowerFromRequest(req.Manpower),
			Resources:    resourcesFromRequest(req.Resources),
			OtherCharges: req.OtherCharges,
			Remarks:      req.Remarks,
		}
		if bom.Approved {
			approver := actor.ID
			bom.ApprovedBy = &approver
		}
		if err := s.boms.CreateTx(tx, &bom); err != nil {
			return err
		}

		fgLine := model.FinishedGoodLine{
			BOMID:         bom.ID,
			ItemID:        fgID,
			Description:   req.FinishedGood.Description,
			Quantity:      adjustedFGQty,
			Cost:          req.FinishedGood.Cost,
			Comments:      req.FinishedGood.Comments,
			SupportingDoc: req.FinishedGood.SupportingDoc,
		}
		if err := s.boms.CreateFinishedGoodTx(tx, &fgLine); err != nil {
			return err
		}
		bom.FinishedGood = &fgLine

		for _, rl := range rawLines {
			line := model.RawMaterialLine{
				BOMID:         bom.ID,
				ItemID:        rl.itemID,
				Description:   rl.req.Description,
				Quantity:      rl.req.Quantity,
				TotalPartCost: rl.req.TotalPartCost,
				AssemblyPhase: rl.req.AssemblyPhase,
				Comments:      rl.req.Comments,
				SupportingDoc: rl.req.SupportingDoc,
			}
			if err := s.boms.CreateRawMaterialTx(tx, &line); err != nil {
				return err
			}
			line.Item = rl.product
			if _, err := s.tracker.ReconcileLineTx(tx, bom.ID, line.ID, rl.itemID, rl.req.Quantity, rl.product.CurrentStock); err != nil {
				return err
			}
			bom.RawMaterials = append(bom.RawMaterials, line)
		}

		for _, sl := range scrapLines {
			line := model.ScrapMaterialLine{
				BOMID:         bom.ID,
				ItemID:        sl.itemID,
				Description:   sl.req.Description,
				Quantity:      sl.req.Quantity,
				TotalPartCost: sl.req.TotalPartCost,
			}
			if err := s.boms.CreateScrapMaterialTx(tx, &line); err != nil {
				return err
			}
			line.Item = sl.product
			bom.ScrapMaterials = append(bom.ScrapMaterials, line)
		}

		if s.cfg != nil && s.cfg.BOMStockMutation {
			return s.mutateStockForBOMTx(ctx, tx, &bom, rawLines, adjustedFGQty, fgID)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifyShortage(ctx, bom.BOMName, shortageMsg)

	return &dto.BOMMutationResponse{
		Message:  "BOM has been created successfully." + shortageMsg,
		Shortage: shortageMsg != "",
		BOM:      bomToResponse(&bom),
	}, nil
}

// mutateStockForBOMTx is the deprecated create-time stock flow, kept behind
// BOM_STOCK_MUTATION: raw materials are drawn down to at most zero (the
// uncovered remainder lives in the shortage ledger) and the finished good is
// credited immediately.
func (s *bomService) mutateStockForBOMTx(ctx context.Context, tx *gorm.DB, bom *model.BOM, rawLines []resolvedBOMLine, fgQty decimal.Decimal, fgID uuid.UUID) error {
	ref := bom.ID
	for _, rl := range rawLines {
		if !rl.req.Quantity.IsPositive() {
			continue
		}
		p, err := s.products.FindByIDTx(tx, rl.itemID)
		if err != nil {
			return err
		}
		draw := rl.req.Quantity
		if draw.GreaterThan(p.CurrentStock) {
			draw = p.CurrentStock
		}
		before := p.CurrentStock
		p.CurrentStock = p.CurrentStock.Sub(draw)
		p.ChangeType = model.ChangeDecrease
		p.QuantityChanged = draw
		if err := s.products.SaveTx(tx, p); err != nil {
			return err
		}
		mov := &model.StockMovement{
			ProductID:   rl.itemID,
			Type:        model.MovementBOMCreate,
			Quantity:    draw.Neg(),
			StockBefore: before,
			StockAfter:  p.CurrentStock,
			Reason:      fmt.Sprintf("BOM %s", bom.BOMCode),
			ReferenceID: &ref,
		}
		if err := s.movements.CreateTx(tx, mov); err != nil {
			return err
		}
	}

	fg, err := s.products.FindByIDTx(tx, fgID)
	if err != nil {
		return err
	}
	before := fg.CurrentStock
	fg.CurrentStock = fg.CurrentStock.Add(fgQty)
	fg.ChangeType = model.ChangeIncrease
	fg.QuantityChanged = fgQty
	if err := s.products.SaveTx(tx, fg); err != nil {
		return err
	}
	mov := &model.StockMovement{
		ProductID:   fgID,
		Type:        model.MovementBOMCreate,
		Quantity:    fgQty,
		StockBefore: before,
		StockAfter:  fg.CurrentStock,
		Reason:      fmt.Sprintf("BOM %s", bom.BOMCode),
		ReferenceID: &ref,
	}
	return s.movements.CreateTx(tx, mov)
}

// ── Update ───────────────────────────────────────────────────────────────────
// Merge by line id: lines named in the request are updated (or created when
// they carry no id), lines omitted are left alone. Shortage rows are
// reconciled per touched line, and an in-flight production run gets its
// estimates refreshed.

func (s *bomService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateBOMRequest) (*dto.BOMMutationResponse, error) {
	bom, err := s.boms.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("BOM not found")
	}

	var fgItemID uuid.UUID
	if req.FinishedGood != nil {
		fgItemID, err = uuid.Parse(req.FinishedGood.Item)
		if err != nil {
			return nil, apierror.Validationf("invalid finished good item id")
		}
		if _, err := s.products.FindByID(ctx, fgItemID); err != nil {
			return nil, apierror.NotFoundf("Finished good doesn't exist")
		}
	}

	shortageMsg := ""
	txErr := runTx(ctx, s.boms.DB(), func(tx *gorm.DB) error {
		if req.FinishedGood != nil && bom.FinishedGood != nil {
			bom.FinishedGood.ItemID = fgItemID
			bom.FinishedGood.Quantity = req.FinishedGood.Quantity.Add(negativeLineCredit(req.RawMaterials))
			bom.FinishedGood.Cost = req.FinishedGood.Cost
			bom.FinishedGood.Comments = req.FinishedGood.Comments
			bom.FinishedGood.Description = req.FinishedGood.Description
			bom.FinishedGood.SupportingDoc = req.FinishedGood.SupportingDoc
			bom.FinishedGood.Item = nil
			if err := s.boms.SaveFinishedGoodTx(tx, bom.FinishedGood); err != nil {
				return err
			}
		}

		for _, m := range req.RawMaterials {
			itemID, err := uuid.Parse(m.Item)
			if err != nil {
				return apierror.Validationf("invalid raw material item id")
			}
			p, err := s.products.FindByID(ctx, itemID)
			if err != nil {
				return apierror.NotFoundf("Product doesn't exist")
			}

			var line *model.RawMaterialLine
			if m.ID != "" {
				lineID, err := uuid.Parse(m.ID)
				if err != nil {
					return apierror.Validationf("invalid raw material line id")
				}
				line = findRawLine(bom, lineID)
				if line == nil {
					// unknown line ids are ignored, matching the merge contract
					continue
				}
				line.ItemID = itemID
				line.Description = m.Description
				line.Quantity = m.Quantity
				line.AssemblyPhase = m.AssemblyPhase
				line.SupportingDoc = m.SupportingDoc
				line.Comments = m.Comments
				line.TotalPartCost = m.TotalPartCost
				line.Item = nil
				if err := s.boms.SaveRawMaterialTx(tx, line); err != nil {
					return err
				}
				line.Item = p
			} else {
				newLine := model.RawMaterialLine{
					BOMID:         bom.ID,
					ItemID:        itemID,
					Description:   m.Description,
					Quantity:      m.Quantity,
					TotalPartCost: m.TotalPartCost,
					AssemblyPhase: m.AssemblyPhase,
					Comments:      m.Comments,
					SupportingDoc: m.SupportingDoc,
				}
				if err := s.boms.CreateRawMaterialTx(tx, &newLine); err != nil {
					return err
				}
				newLine.Item = p
				bom.RawMaterials = append(bom.RawMaterials, newLine)
				line = &bom.RawMaterials[len(bom.RawMaterials)-1]
			}

			shortage, err := s.tracker.ReconcileLineTx(tx, bom.ID, line.ID, itemID, m.Quantity, p.CurrentStock)
			if err != nil {
				return err
			}
			if shortage.IsPositive() {
				shortageMsg += fmt.Sprintf(" Insufficient stock of %s", p.Name)
			}
		}

		for _, m := range req.ScrapMaterials {
			itemID, err := uuid.Parse(m.Item)
			if err != nil {
				return apierror.Validationf("invalid scrap material item id")
			}
			p, err := s.products.FindByID(ctx, itemID)
			if err != nil {
				return apierror.NotFoundf("Product doesn't exist")
			}

			if m.ID != "" {
				lineID, err := uuid.Parse(m.ID)
				if err != nil {
					return apierror.Validationf("invalid scrap material line id")
				}
				line := findScrapLine(bom, lineID)
				if line == nil {
					continue
				}
				line.ItemID = itemID
				line.Description = m.Description
				line.Quantity = m.Quantity
				line.TotalPartCost = m.TotalPartCost
				line.Item = nil
				if err := s.boms.SaveScrapMaterialTx(tx, line); err != nil {
					return err
				}
				line.Item = p
			} else {
				newLine := model.ScrapMaterialLine{
					BOMID:         bom.ID,
					ItemID:        itemID,
					Description:   m.Description,
					Quantity:      m.Quantity,
					TotalPartCost: m.TotalPartCost,
				}
				if err := s.boms.CreateScrapMaterialTx(tx, &newLine); err != nil {
					return err
				}
				newLine.Item = p
				bom.ScrapMaterials = append(bom.ScrapMaterials, newLine)
			}
		}

		if len(req.Processes) > 0 {
			bom.Processes = req.Processes
		}
		if req.Remarks != nil {
			bom.Remarks = strings.TrimSpace(*req.Remarks)
		}
		if req.Manpower != nil {
			bom.Manpower = manpowerFromRequest(req.Manpower)
		}
		if req.Resources != nil {
			bom.Resources = resourcesFromRequest(req.Resources)
		}
		if req.BOMName != "" {
			bom.BOMName = req.BOMName
		}
		if req.PartsCount != nil && *req.PartsCount > 0 {
			bom.PartsCount = *req.PartsCount
		}
		if req.TotalCost != nil {
			bom.TotalCost = *req.TotalCost
		}
		if req.Approved != nil && *req.Approved && actor.IsSuper() {
			approver := actor.ID
			bom.ApprovedBy = &approver
			bom.Approved = true
		}

		if err := s.boms.SaveTx(tx, bom); err != nil {
			return err
		}

		return s.refreshProcessEstimatesTx(ctx, tx, bom)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifyShortage(ctx, bom.BOMName, shortageMsg)

	return &dto.BOMMutationResponse{
		Message:  "BOM has been updated successfully" + shortageMsg,
		Shortage: shortageMsg != "",
	}, nil
}

func findRawLine(bom *model.BOM, lineID uuid.UUID) *model.RawMaterialLine {
	for i := range bom.RawMaterials {
		if bom.RawMaterials[i].ID == lineID {
			return &bom.RawMaterials[i]
		}
	}
	return nil
}

func findScrapLine(bom *model.BOM, lineID uuid.UUID) *model.ScrapMaterialLine {
	for i := range bom.ScrapMaterials {
		if bom.ScrapMaterials[i].ID == lineID {
			return &bom.ScrapMaterials[i]
		}
	}
	return nil
}

// refreshProcessEstimatesTx pushes the BOM's new estimates into a linked
// run that has not finished yet. Actuals (used/produced quantities) are never
// touched here — only the estimate side of the snapshot moves.
func (s *bomService) refreshProcessEstimatesTx(ctx context.Context, tx *gorm.DB, bom *model.BOM) error {
	if bom.ProductionProcessID == nil {
		return nil
	}
	proc, err := s.production.FindByID(ctx, *bom.ProductionProcessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().
			Str("bom_id", bom.ID.String()).
			Str("process_id", bom.ProductionProcessID.String()).
			Msg("stale production process back-reference, nothing to refresh")
		return nil
	}
	if err != nil {
		return err
	}
	if proc.Status == model.StatusCompleted || proc.Status == model.StatusDispatched {
		return nil
	}

	if bom.FinishedGood != nil {
		proc.FinishedGood.ItemID = bom.FinishedGood.ItemID
		proc.FinishedGood.EstimatedQuantity = bom.FinishedGood.Quantity
	}
	for i := range proc.RawMaterials {
		for _, line := range bom.RawMaterials {
			if line.ItemID == proc.RawMaterials[i].ItemID {
				proc.RawMaterials[i].EstimatedQuantity = line.Quantity
				break
			}
		}
	}
	for i := range proc.ScrapMaterials {
		for _, line := range bom.ScrapMaterials {
			if line.ItemID == proc.ScrapMaterials[i].ItemID {
				proc.ScrapMaterials[i].EstimatedQuantity = line.Quantity
				break
			}
		}
	}
	return s.production.SaveTx(tx, proc)
}

// ── Remove ───────────────────────────────────────────────────────────────────

func (s *bomService) Remove(ctx context.Context, id uuid.UUID) (*dto.BOMResponse, error) {
	bom, err := s.boms.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("BOM not found")
	}
	resp := bomToResponse(bom)

	txErr := runTx(ctx, s.boms.DB(), func(tx *gorm.DB) error {
		if err := s.boms.DeleteRawMaterialsTx(tx, id); err != nil {
			return err
		}
		if err := s.boms.DeleteScrapMaterialsTx(tx, id); err != nil {
			return err
		}
		if err := s.boms.DeleteFinishedGoodTx(tx, id); err != nil {
			return err
		}
		if err := s.tracker.ClearBOMTx(tx, id); err != nil {
			return err
		}
		return s.boms.DeleteTx(tx, id)
	})
	if txErr != nil {
		return nil, txErr
	}
	return resp, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *bomService) Details(ctx context.Context, id uuid.UUID) (*dto.BOMResponse, error) {
	bom, err := s.boms.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("BOM not found")
	}
	return bomToResponse(bom), nil
}

func (s *bomService) ListApproved(ctx context.Context, filter dto.BOMFilter) (*dto.BOMListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	boms, err := s.boms.ListApproved(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.BOMListResponse{
		BOMs:  make([]dto.BOMResponse, 0, len(boms)),
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range boms {
		resp.BOMs = append(resp.BOMs, *bomToResponse(&boms[i]))
	}
	resp.Count = len(resp.BOMs)
	return resp, nil
}

func (s *bomService) ListUnapproved(ctx context.Context) ([]dto.BOMResponse, error) {
	boms, err := s.boms.ListUnapproved(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BOMResponse, 0, len(boms))
	for i := range boms {
		out = append(out, *bomToResponse(&boms[i]))
	}
	return out, nil
}

func (s *bomService) ListByFinishedGood(ctx context.Context, productID uuid.UUID) ([]dto.BOMResponse, error) {
	boms, err := s.boms.ListByFinishedProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BOMResponse, 0, len(boms))
	for i := range boms {
		out = append(out, *bomToResponse(&boms[i]))
	}
	return out, nil
}

// ── AutoClone ────────────────────────────────────────────────────────────────
// Clones the newest approved BOM of a finished good at a new output quantity.
// Every line scales linearly through its per-unit quantity and cost; money
// rounds half-up to 2 decimals at the line level. The source BOM is read-only
// throughout.

func (s *bomService) AutoClone(ctx context.Context, actor Actor, q dto.AutoBOMQuery) (*dto.BOMMutationResponse, error) {
	productID, err := uuid.Parse(q.ProductID)
	if err != nil {
		return nil, apierror.Validationf("invalid product id")
	}
	if !q.Quantity.IsPositive() {
		return nil, apierror.Validationf("quantity must be positive")
	}

	src, err := s.boms.FindLatestApprovedByFinishedProduct(ctx, productID)
	if err != nil {
		return nil, apierror.NotFoundf("BOM does not exists")
	}
	if src.FinishedGood == nil || !src.FinishedGood.Quantity.IsPositive() {
		return nil, apierror.Statef("source BOM has no usable finished good quantity")
	}

	oldQty := src.FinishedGood.Quantity
	newQty := q.Quantity

	unitPrice := decimal.Zero
	switch {
	case q.Price != nil:
		unitPrice = *q.Price
	case src.FinishedGood.Item != nil:
		unitPrice = src.FinishedGood.Item.Price
	default:
		p, err := s.products.FindByID(ctx, src.FinishedGood.ItemID)
		if err != nil {
			return nil, apierror.NotFoundf("Finished good doesn't exist")
		}
		unitPrice = p.Price
	}
	fgCost := unitPrice.Mul(newQty).Round(2)

	type scaledLine struct {
		src  model.RawMaterialLine
		qty  decimal.Decimal
		cost decimal.Decimal
	}
	type scaledScrap struct {
		src  model.ScrapMaterialLine
		qty  decimal.Decimal
		cost decimal.Decimal
	}

	totalCost := decimal.Zero
	shortageMsg := ""
	var raws []scaledLine
	for _, rm := range src.RawMaterials {
		exact := rm.Quantity.Div(oldQty).Mul(newQty)
		lineUnit := decimal.Zero
		if rm.Quantity.IsPositive() {
			lineUnit = rm.TotalPartCost.Div(rm.Quantity)
		}
		sl := scaledLine{
			src:  rm,
			qty:  exact.Round(2),
			cost: lineUnit.Mul(exact).Round(2),
		}
		totalCost = totalCost.Add(sl.cost)
		if rm.Item != nil && RecomputeShortage(sl.qty, rm.Item.CurrentStock).IsPositive() {
			shortageMsg += fmt.Sprintf(" Insufficient stock of %s", rm.Item.Name)
		}
		raws = append(raws, sl)
	}
	totalCost = totalCost.Round(2)

	var scraps []scaledScrap
	for _, sm := range src.ScrapMaterials {
		exact := sm.Quantity.Div(oldQty).Mul(newQty)
		lineUnit := decimal.Zero
		if sm.Quantity.IsPositive() {
			lineUnit = sm.TotalPartCost.Div(sm.Quantity)
		}
		scraps = append(scraps, scaledScrap{
			src:  sm,
			qty:  exact.Round(2),
			cost: lineUnit.Mul(exact).Round(2),
		})
	}

	var clone model.BOM
	txErr := runTx(ctx, s.boms.DB(), func(tx *gorm.DB) error {
		code, err := s.boms.NextBOMCode(tx)
		if err != nil {
			return err
		}
		clone = model.BOM{
			BOMCode:      code,
			BOMName:      src.BOMName,
			PartsCount:   src.PartsCount,
			TotalCost:    totalCost,
			Approved:     src.Approved,
			ApprovedBy:   src.ApprovedBy,
			CreatorID:    actor.ID,
			Processes:    append([]string(nil), src.Processes...),
			Manpower:     append([]model.ManpowerEntry(nil), src.Manpower...),
			Resources:    append([]model.ResourceRef(nil), src.Resources...),
			OtherCharges: src.OtherCharges,
			Remarks:      src.Remarks,
		}
		if err := s.boms.CreateTx(tx, &clone); err != nil {
			return err
		}

		fgLine := model.FinishedGoodLine{
			BOMID:         clone.ID,
			ItemID:        src.FinishedGood.ItemID,
			Description:   src.FinishedGood.Description,
			Quantity:      newQty,
			Cost:          fgCost,
			Comments:      src.FinishedGood.Comments,
			SupportingDoc: src.FinishedGood.SupportingDoc,
		}
		if err := s.boms.CreateFinishedGoodTx(tx, &fgLine); err != nil {
			return err
		}
		fgLine.Item = src.FinishedGood.Item
		clone.FinishedGood = &fgLine

		for _, sl := range raws {
			line := model.RawMaterialLine{
				BOMID:         clone.ID,
				ItemID:        sl.src.ItemID,
				Description:   sl.src.Description,
				Quantity:      sl.qty,
				TotalPartCost: sl.cost,
				AssemblyPhase: sl.src.AssemblyPhase,
				Comments:      sl.src.Comments,
				SupportingDoc: sl.src.SupportingDoc,
			}
			if err := s.boms.CreateRawMaterialTx(tx, &line); err != nil {
				return err
			}
			line.Item = sl.src.Item
			if sl.src.Item != nil {
				if _, err := s.tracker.ReconcileLineTx(tx, clone.ID, line.ID, line.ItemID, sl.qty, sl.src.Item.CurrentStock); err != nil {
					return err
				}
			}
			clone.RawMaterials = append(clone.RawMaterials, line)
		}

		for _, sc := range scraps {
			line := model.ScrapMaterialLine{
				BOMID:         clone.ID,
				ItemID:        sc.src.ItemID,
				Description:   sc.src.Description,
				Quantity:      sc.qty,
				TotalPartCost: sc.cost,
			}
			if err := s.boms.CreateScrapMaterialTx(tx, &line); err != nil {
				return err
			}
			line.Item = sc.src.Item
			clone.ScrapMaterials = append(clone.ScrapMaterials, line)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifyShortage(ctx, clone.BOMName, shortageMsg)

	return &dto.BOMMutationResponse{
		Message:  "BOM has been created successfully." + shortageMsg,
		Shortage: shortageMsg != "",
		BOM:      bomToResponse(&clone),
	}, nil
}

// ── Weekly grouping ──────────────────────────────────────────────────────────

// istZone mirrors the reporting timezone the weekly board has always used.
var istZone = time.FixedZone("IST", 5*3600+1800)

func (s *bomService) WeeklyGrouping(ctx context.Context) (map[string][]dto.WeeklyBOMEntry, error) {
	boms, err := s.boms.ListApproved(ctx, dto.BOMFilter{Page: 1, Limit: 1000})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]dto.WeeklyBOMEntry)
	for _, b := range boms {
		created := b.CreatedAt.In(istZone)
		day := created.Weekday().String()
		out[day] = append(out[day], dto.WeeklyBOMEntry{
			ID:   b.ID.String(),
			Name: b.BOMName,
			Date: created.Format("2/1/2006"),
		})
	}
	return out, nil
}

func (s *bomService) ListShortages(ctx context.Context, page, limit int) (*dto.ShortageListResponse, error) {
	return s.tracker.List(ctx, page, limit)
}

// ── Raw-material approval flows ──────────────────────────────────────────────

func (s *bomService) ListUnapprovedRawMaterials(ctx context.Context, forInventory bool) ([]dto.UnapprovedRawMaterialResponse, error) {
	lines, err := s.boms.ListUnapprovedRawMaterials(ctx, forInventory)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UnapprovedRawMaterialResponse, 0, len(lines))
	for _, line := range lines {
		entry := dto.UnapprovedRawMaterialResponse{
			ID:       line.ID.String(),
			BOMID:    line.BOMID.String(),
			ItemID:   line.ItemID.String(),
			Quantity: line.Quantity,
		}
		if line.Item != nil {
			entry.ItemName = line.Item.Name
			entry.CurrentStock = line.Item.CurrentStock
			entry.Price = line.Item.Price
		}
		if line.BOM != nil {
			entry.BOMName = line.BOM.BOMName
			if forInventory {
				entry.BOMStatus = model.StatusRawMaterialApprovalPending
				if line.BOM.ProductionProcessID != nil {
					if proc, err := s.production.FindByID(ctx, *line.BOM.ProductionProcessID); err == nil {
						entry.BOMStatus = proc.Status
					}
				}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *bomService) ApproveRawMaterialByAdmin(ctx context.Context, lineID uuid.UUID) error {
	line, err := s.boms.FindRawMaterialByID(ctx, lineID)
	if err != nil {
		return apierror.NotFoundf("Raw material not found")
	}
	line.ApprovedByAdmin = true
	return s.boms.SaveRawMaterial(ctx, line)
}

// ApproveRawMaterialByInventory marks the line allocated; approving the last
// pending line of a BOM flips its linked production run to Inventory Allocated.
func (s *bomService) ApproveRawMaterialByInventory(ctx context.Context, lineID uuid.UUID) error {
	line, err := s.boms.FindRawMaterialByID(ctx, lineID)
	if err != nil {
		return apierror.NotFoundf("Raw material not found")
	}
	line.ApprovedByInventory = true
	if err := s.boms.SaveRawMaterial(ctx, line); err != nil {
		return err
	}

	lines, err := s.boms.ListRawMaterialsByBOM(ctx, line.BOMID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if !l.ApprovedByInventory {
			return nil
		}
	}

	bom, err := s.boms.FindByID(ctx, line.BOMID)
	if err != nil || bom.ProductionProcessID == nil {
		return nil
	}
	proc, err := s.production.FindByID(ctx, *bom.ProductionProcessID)
	if err != nil {
		return nil
	}
	proc.Status = model.StatusInventoryAllocated
	return s.production.Save(ctx, proc)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *bomService) notifyShortage(ctx context.Context, bomName, shortageMsg string) {
	if shortageMsg == "" || s.dispatcher == nil {
		return
	}
	// Best-effort: a failed enqueue never fails the mutation.
	_ = s.dispatcher.EnqueueShortageAlert(ctx, map[string]interface{}{
		"bom_name": bomName,
		"message":  strings.TrimSpace(shortageMsg),
	})
}

func manpowerFromRequest(in []dto.ManpowerRequest) []model.ManpowerEntry {
	out := make([]model.ManpowerEntry, 0, len(in))
	for _, mp := range in {
		entry := model.ManpowerEntry{Number: mp.Number}
		if entry.Number == "" {
			entry.Number = "0"
		}
		if uid, err := uuid.Parse(mp.User); err == nil {
			entry.User = &uid
		}
		out = append(out, entry)
	}
	return out
}

func resourcesFromRequest(in []dto.ResourceRequest) []model.ResourceRef {
	out := make([]model.ResourceRef, 0, len(in))
	for _, r := range in {
		rid, err := uuid.Parse(r.ResourceID)
		if err != nil {
			continue // entries without a valid resource id are dropped
		}
		out = append(out, model.ResourceRef{
			ResourceID:    rid,
			Type:          r.Type,
			Specification: r.Specification,
		})
	}
	return out
}

func bomToResponse(b *model.BOM) *dto.BOMResponse {
	resp := &dto.BOMResponse{
		ID:                  b.ID.String(),
		BOMCode:             b.BOMCode,
		BOMName:             b.BOMName,
		PartsCount:          b.PartsCount,
		TotalCost:           b.TotalCost,
		Approved:            b.Approved,
		Creator:             b.CreatorID.String(),
		Processes:           b.Processes,
		IsProductionStarted: b.IsProductionStarted,
		CreatedAt:           b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           b.UpdatedAt.Format(time.RFC3339),
	}
	if b.ApprovedBy != nil {
		resp.ApprovedBy = b.ApprovedBy.String()
	}
	if b.ProductionProcessID != nil {
		resp.ProductionProcessID = b.ProductionProcessID.String()
	}
	if b.FinishedGood != nil {
		resp.FinishedGood = dto.FinishedGoodResponse{
			ID:       b.FinishedGood.ID.String(),
			Item:     b.FinishedGood.ItemID.String(),
			Quantity: b.FinishedGood.Quantity,
			Cost:     b.FinishedGood.Cost,
		}
		if b.FinishedGood.Item != nil {
			resp.FinishedGood.ItemName = b.FinishedGood.Item.Name
		}
	}
	resp.RawMaterials = make([]dto.BOMLineResponse, 0, len(b.RawMaterials))
	for _, l := range b.RawMaterials {
		line := dto.BOMLineResponse{
			ID:                  l.ID.String(),
			Item:                l.ItemID.String(),
			Description:         l.Description,
			Quantity:            l.Quantity,
			TotalPartCost:       l.TotalPartCost,
			AssemblyPhase:       l.AssemblyPhase,
			ApprovedByAdmin:     l.ApprovedByAdmin,
			ApprovedByInventory: l.ApprovedByInventory,
			InProduction:        l.InProduction,
		}
		if l.Item != nil {
			line.ItemName = l.Item.Name
		}
		resp.RawMaterials = append(resp.RawMaterials, line)
	}
	for _, l := range b.ScrapMaterials {
		line := dto.BOMLineResponse{
			ID:                  l.ID.String(),
			Item:                l.ItemID.String(),
			Description:         l.Description,
			Quantity:            l.Quantity,
			TotalPartCost:       l.TotalPartCost,
			IsProductionStarted: l.IsProductionStarted,
		}
		if l.Item != nil {
			line.ItemName = l.Item.Name
		}
		resp.ScrapMaterials = append(resp.ScrapMaterials, line)
	}
	return resp
}
