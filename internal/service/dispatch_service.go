package service

import (
	"context"
	"fmt"
	"time"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/model"
	"fabriq/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DispatchService ships finished goods. Creating a dispatch is the terminal
// stock movement of a production run: it consumes finished-good stock, refuses
// to over-ship, and marks the run dispatched. One dispatch per reference.
type DispatchService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateDispatchRequest) (*dto.DispatchResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateDispatchRequest) error
	Remove(ctx context.Context, id uuid.UUID) error
	Details(ctx context.Context, id uuid.UUID) (*dto.DispatchResponse, error)
	List(ctx context.Context) ([]dto.DispatchResponse, error)
}

type dispatchService struct {
	dispatches repository.DispatchRepository
	processes  repository.ProductionRepository
	products   repository.ProductRepository
	movements  repository.StockMovementRepository
}

func NewDispatchService(
	dispatches repository.DispatchRepository,
	processes repository.ProductionRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
) DispatchService {
	return &dispatchService{
		dispatches: dispatches,
		processes:  processes,
		products:   products,
		movements:  movements,
	}
}

func (s *dispatchService) Create(ctx context.Context, actor Actor, req dto.CreateDispatchRequest) (*dto.DispatchResponse, error) {
	if req.ProductionProcessID == "" && req.SaleID == "" {
		return nil, apierror.Validationf("either production_process_id or sale_id is required")
	}
	if !req.Quantity.IsPositive() {
		return nil, apierror.Validationf("quantity must be positive")
	}

	var proc *model.ProductionProcess
	var procID *uuid.UUID
	if req.ProductionProcessID != "" {
		id, err := uuid.Parse(req.ProductionProcessID)
		if err != nil {
			return nil, apierror.Validationf("invalid production process id")
		}
		proc, err = s.processes.FindByID(ctx, id)
		if err != nil {
			return nil, apierror.NotFoundf("Production process doesn't exist")
		}
		if _, err := s.dispatches.FindByProcessID(ctx, id); err == nil {
			return nil, apierror.Conflictf("Product Already Dispatched")
		}
		procID = &id
	}

	var saleID *uuid.UUID
	if req.SaleID != "" {
		id, err := uuid.Parse(req.SaleID)
		if err != nil {
			return nil, apierror.Validationf("invalid sale id")
		}
		if _, err := s.dispatches.FindBySaleID(ctx, id); err == nil {
			return nil, apierror.Conflictf("Product Already Dispatched")
		}
		saleID = &id
	}

	var itemID uuid.UUID
	switch {
	case proc != nil:
		itemID = proc.FinishedGood.ItemID
	case req.Item != "":
		var err error
		itemID, err = uuid.Parse(req.Item)
		if err != nil {
			return nil, apierror.Validationf("invalid item id")
		}
	default:
		return nil, apierror.Validationf("item is required when no production process is referenced")
	}

	var dispatch model.Dispatch
	txErr := runTx(ctx, s.dispatches.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByIDTx(tx, itemID)
		if err != nil {
			return apierror.NotFoundf("Product doesn't exist")
		}
		if p.CurrentStock.LessThan(req.Quantity) {
			return apierror.InsufficientStockf("Insufficient stock of %s", p.Name)
		}

		before := p.CurrentStock
		p.CurrentStock = p.CurrentStock.Sub(req.Quantity)
		p.ChangeType = model.ChangeDecrease
		p.QuantityChanged = req.Quantity
		if err := s.products.SaveTx(tx, p); err != nil {
			return err
		}

		dispatch = model.Dispatch{
			ProductionProcessID: procID,
			SaleID:              saleID,
			ItemID:              itemID,
			Quantity:            req.Quantity,
			DeliveryStatus:      model.DeliveryDispatch,
			TaskStatus:          "Pending",
			CreatorID:           actor.ID,
		}
		if err := s.dispatches.CreateTx(tx, &dispatch); err != nil {
			return err
		}

		ref := dispatch.ID
		mov := &model.StockMovement{
			ProductID:   itemID,
			Type:        model.MovementDispatch,
			Quantity:    req.Quantity.Neg(),
			StockBefore: before,
			StockAfter:  p.CurrentStock,
			Reason:      fmt.Sprintf("dispatch of %s", p.Name),
			ReferenceID: &ref,
		}
		if err := s.movements.CreateTx(tx, mov); err != nil {
			return err
		}

		if proc != nil {
			proc.Status = model.StatusDispatched
			if err := s.processes.SaveTx(tx, proc); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return dispatchToResponse(&dispatch), nil
}

func (s *dispatchService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateDispatchRequest) error {
	dispatch, err := s.dispatches.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFoundf("Data not Found")
	}
	if req.DeliveryStatus != "" {
		dispatch.DeliveryStatus = req.DeliveryStatus
	}
	if req.TaskStatus != "" {
		dispatch.TaskStatus = req.TaskStatus
	}
	return s.dispatches.Save(ctx, dispatch)
}

// Remove deletes the record without returning stock — a deleted dispatch is an
// administrative correction of the ledger, not a recall.
func (s *dispatchService) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.dispatches.FindByID(ctx, id); err != nil {
		return apierror.NotFoundf("Data already Deleted")
	}
	return s.dispatches.Delete(ctx, id)
}

func (s *dispatchService) Details(ctx context.Context, id uuid.UUID) (*dto.DispatchResponse, error) {
	dispatch, err := s.dispatches.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("Dispatch not found")
	}
	return dispatchToResponse(dispatch), nil
}

func (s *dispatchService) List(ctx context.Context) ([]dto.DispatchResponse, error) {
	dispatches, err := s.dispatches.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DispatchResponse, 0, len(dispatches))
	for i := range dispatches {
		out = append(out, *dispatchToResponse(&dispatches[i]))
	}
	return out, nil
}

func dispatchToResponse(d *model.Dispatch) *dto.DispatchResponse {
	resp := &dto.DispatchResponse{
		ID:             d.ID.String(),
		ItemID:         d.ItemID.String(),
		Quantity:       d.Quantity,
		DeliveryStatus: d.DeliveryStatus,
		TaskStatus:     d.TaskStatus,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}
	if d.ProductionProcessID != nil {
		resp.ProductionProcessID = d.ProductionProcessID.String()
	}
	if d.SaleID != nil {
		resp.SaleID = d.SaleID.String()
	}
	if d.Item != nil {
		resp.ItemName = d.Item.Name
	}
	return resp
}
