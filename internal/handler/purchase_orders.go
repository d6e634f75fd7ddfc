package handler

import (
	"net/http"
	"path/filepath"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchaseOrdersHandler struct{ svc service.PurchaseOrderService }

func NewPurchaseOrdersHandler(svc service.PurchaseOrderService) *PurchaseOrdersHandler {
	return &PurchaseOrdersHandler{svc: svc}
}

// Create godoc
// @Summary      Create a purchase order
// @Description  Assigns a sequential PO number and computes the total from the item lines.
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePORequest true "Order details"
// @Success      201  {object} dto.POResponse
// @Failure      400  {object} apierror.APIError
// @Router       /purchase-orders [post]
func (h *PurchaseOrdersHandler) Create(c *gin.Context) {
	var req dto.CreatePORequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Details godoc
// @Summary      Purchase order details
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      200 {object} dto.POResponse
// @Failure      404 {object} apierror.APIError
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrdersHandler) Details(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Details(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 100)"
// @Param        status query string false "open | received | cancelled"
// @Success      200 {object} dto.POListResponse
// @Router       /purchase-orders [get]
func (h *PurchaseOrdersHandler) List(c *gin.Context) {
	var filter dto.POFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Document godoc
// @Summary      Download the purchase order document
// @Description  Renders the order sheet as a PDF and returns it as a file download.
// @Tags         purchase-orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /purchase-orders/{id}/document [get]
func (h *PurchaseOrdersHandler) Document(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	path, err := h.svc.Document(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Send godoc
// @Summary      Email the purchase order to the supplier
// @Description  Renders the order sheet PDF and queues it for delivery to the supplier's email.
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      202 {object} map[string]string
// @Failure      400 {object} apierror.APIError
// @Router       /purchase-orders/{id}/send [post]
func (h *PurchaseOrdersHandler) Send(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Send(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"detail": "purchase order queued for delivery"})
}

// Update godoc
// @Summary      Update purchase order status or remarks
// @Description  Only open orders can change status.
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string              true "Order UUID"
// @Param        body body dto.UpdatePORequest true "Status / remarks"
// @Success      200  {object} dto.POResponse
// @Failure      400  {object} apierror.APIError
// @Router       /purchase-orders/{id} [put]
func (h *PurchaseOrdersHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePORequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
