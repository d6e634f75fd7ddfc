package service

import (
	"context"
	"fmt"
	"time"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/infra"
	"fabriq/internal/model"
	"fabriq/internal/repository"
	"fabriq/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderService records supplier purchase orders. It does not
// touch product stock; goods receipt is booked through stock
// adjustments when material actually arrives.
type PurchaseOrderService interface {
	Create(ctx context.Context, actor Actor, req dto.CreatePORequest) (*dto.POResponse, error)
	Details(ctx context.Context, id uuid.UUID) (*dto.POResponse, error)
	List(ctx context.Context, filter dto.POFilter) (*dto.POListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePORequest) (*dto.POResponse, error)
	Document(ctx context.Context, id uuid.UUID) (string, error)
	Send(ctx context.Context, id uuid.UUID) error
}

type purchaseOrderService struct {
	orders      repository.PurchaseOrderRepository
	parties     repository.PartyRepository
	products    repository.ProductRepository
	storagePath string
	dispatcher  *worker.Dispatcher
}

func NewPurchaseOrderService(
	orders repository.PurchaseOrderRepository,
	parties repository.PartyRepository,
	products repository.ProductRepository,
	storagePath string,
	dispatcher *worker.Dispatcher,
) PurchaseOrderService {
	return &purchaseOrderService{
		orders:      orders,
		parties:     parties,
		products:    products,
		storagePath: storagePath,
		dispatcher:  dispatcher,
	}
}

func (s *purchaseOrderService) Create(ctx context.Context, actor Actor, req dto.CreatePORequest) (*dto.POResponse, error) {
	supplierID, err := uuid.Parse(req.Supplier)
	if err != nil {
		return nil, apierror.Validationf("invalid supplier id")
	}
	supplier, err := s.parties.FindByID(ctx, supplierID)
	if err != nil {
		return nil, apierror.NotFoundf("supplier not found")
	}
	if supplier.Type != model.PartySupplier {
		return nil, apierror.Validationf("party %s is not a supplier", supplier.FullName)
	}

	items := make([]model.PurchaseOrderItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.Product)
		if err != nil {
			return nil, apierror.Validationf("invalid product id %q", it.Product)
		}
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, apierror.NotFoundf("product %s not found", it.Product)
		}
		if it.Quantity.Sign() <= 0 {
			return nil, apierror.Validationf("quantity for %s must be positive", p.Name)
		}
		items = append(items, model.PurchaseOrderItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
		total = total.Add(it.UnitPrice.Mul(it.Quantity))
	}

	po := &model.PurchaseOrder{
		SupplierID: supplierID,
		Status:     model.POStatusOpen,
		TotalCost:  total.Round(2),
		Remarks:    req.Remarks,
		CreatorID:  actor.ID,
		Items:      items,
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		number, err := s.orders.NextPONumber(tx)
		if err != nil {
			return err
		}
		po.PONumber = number
		return s.orders.CreateTx(tx, po)
	})
	if err != nil {
		return nil, err
	}
	return s.Details(ctx, po.ID)
}

func (s *purchaseOrderService) Details(ctx context.Context, id uuid.UUID) (*dto.POResponse, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("purchase order not found")
	}
	return poToResponse(po), nil
}

func (s *purchaseOrderService) List(ctx context.Context, filter dto.POFilter) (*dto.POListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.POListResponse{
		Data:  make([]dto.POResponse, 0, len(orders)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range orders {
		resp.Data = append(resp.Data, *poToResponse(&orders[i]))
	}
	return resp, nil
}

func (s *purchaseOrderService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePORequest) (*dto.POResponse, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("purchase order not found")
	}
	if req.Status != "" {
		if po.Status != model.POStatusOpen && req.Status != po.Status {
			return nil, apierror.Statef("purchase order is already %s", po.Status)
		}
		po.Status = req.Status
	}
	if req.Remarks != "" {
		po.Remarks = req.Remarks
	}
	if err := s.orders.Save(ctx, po); err != nil {
		return nil, err
	}
	return poToResponse(po), nil
}

// Document renders the order sheet PDF and returns the file path.
func (s *purchaseOrderService) Document(ctx context.Context, id uuid.UUID) (string, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return "", apierror.NotFoundf("purchase order not found")
	}
	return infra.GenerateOrderPDF(po, s.storagePath)
}

// Send renders the order sheet and queues it for delivery to the
// supplier's email address.
func (s *purchaseOrderService) Send(ctx context.Context, id uuid.UUID) error {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFoundf("purchase order not found")
	}
	if po.Supplier == nil || po.Supplier.Email == "" {
		return apierror.Validationf("supplier has no email address")
	}
	if s.dispatcher == nil {
		return apierror.Statef("mail delivery is not configured")
	}

	path, err := infra.GenerateOrderPDF(po, s.storagePath)
	if err != nil {
		return err
	}
	return s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail:        po.Supplier.Email,
		Subject:        fmt.Sprintf("Purchase Order %s", po.PONumber),
		Body:           fmt.Sprintf("Please find attached purchase order %s.", po.PONumber),
		AttachmentPath: path,
	})
}

func poToResponse(po *model.PurchaseOrder) *dto.POResponse {
	resp := &dto.POResponse{
		ID:        po.ID.String(),
		PONumber:  po.PONumber,
		Supplier:  po.SupplierID.String(),
		Status:    po.Status,
		TotalCost: po.TotalCost,
		Remarks:   po.Remarks,
		Items:     make([]dto.POItemResponse, 0, len(po.Items)),
		CreatedAt: po.CreatedAt.Format(time.RFC3339),
	}
	for i := range po.Items {
		it := po.Items[i]
		item := dto.POItemResponse{
			ID:        it.ID.String(),
			Product:   it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
