package handler

import (
	"net/http"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductionHandler struct{ svc service.ProductionService }

func NewProductionHandler(svc service.ProductionService) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

// Create godoc
// @Summary      Create a production process for a BOM
// @Description  Snapshots the BOM's lines as immutable estimates. A BOM can have at most one process.
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProcessRequest true "BOM reference"
// @Success      201  {object} dto.ProcessResponse
// @Failure      400  {object} apierror.APIError
// @Router       /production-process [post]
func (h *ProductionHandler) Create(c *gin.Context) {
	var req dto.CreateProcessRequest
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

// Update godoc
// @Summary      Report production actuals
// @Description  Reconciles reported quantities against the snapshot by delta when the run is in "work in progress": extra finished goods add stock, extra raw-material use consumes it, scrap bookkeeping is inverted.
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.UpdateProcessRequest true "Reported actuals and new status"
// @Success      200  {object} map[string]string
// @Failure      400  {object} apierror.APIError
// @Router       /production-process/update-status [put]
func (h *ProductionHandler) Update(c *gin.Context) {
	var req dto.UpdateProcessRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Update(c.Request.Context(), req); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Process updated successfully"})
}

// StartProduction godoc
// @Summary      Start production
// @Description  Issues the estimated raw-material quantities out of stock and stamps the start time. Only valid from "inventory in transit".
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StatusOverrideRequest true "Process id"
// @Success      200  {object} map[string]string
// @Failure      400  {object} apierror.APIError
// @Router       /production-process/start-production [put]
func (h *ProductionHandler) StartProduction(c *gin.Context) {
	id, ok := h.bindProcessID(c)
	if !ok {
		return
	}
	if err := h.svc.StartProduction(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Production started"})
}

// RequestAllocation godoc
// @Summary      Request inventory allocation
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StatusOverrideRequest true "Process id"
// @Success      200  {object} map[string]string
// @Router       /production-process/allocation [put]
func (h *ProductionHandler) RequestAllocation(c *gin.Context) {
	id, ok := h.bindProcessID(c)
	if !ok {
		return
	}
	if err := h.svc.RequestAllocation(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Allocation requested"})
}

// InventoryInTransit godoc
// @Summary      Mark allocated inventory as in transit
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StatusOverrideRequest true "Process id"
// @Success      200  {object} map[string]string
// @Router       /production-process/inventory-in-transit [put]
func (h *ProductionHandler) InventoryInTransit(c *gin.Context) {
	id, ok := h.bindProcessID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkInventoryInTransit(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory in transit"})
}

// MarkDone godoc
// @Summary      Mark a production run completed
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Process UUID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} apierror.APIError
// @Router       /production-process/done/{id} [get]
func (h *ProductionHandler) MarkDone(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkDone(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Process completed"})
}

// OverrideStatus godoc
// @Summary      Administrative status overwrite
// @Description  Sets the raw status string without transition guards or stock effects.
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StatusOverrideRequest true "Process id and status"
// @Success      200  {object} map[string]string
// @Router       /production-process/override-status [put]
func (h *ProductionHandler) OverrideStatus(c *gin.Context) {
	var req dto.StatusOverrideRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.OverrideStatus(c.Request.Context(), req); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// Remove godoc
// @Summary      Delete a production process
// @Description  Clears the BOM back-reference; never returns issued stock.
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Process UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /production-process/{id} [delete]
func (h *ProductionHandler) Remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Details godoc
// @Summary      Production process details
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Process UUID"
// @Success      200 {object} dto.ProcessResponse
// @Failure      404 {object} apierror.APIError
// @Router       /production-process/{id} [get]
func (h *ProductionHandler) Details(c *gin.Context) {
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
// @Summary      List production processes
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProcessResponse
// @Router       /production-process/all [get]
func (h *ProductionHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductionHandler) bindProcessID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.StatusOverrideRequest
	if !bindAndValidate(c, &req) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
