package handler

import (
	"net/http"
	"strconv"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BOMHandler struct{ svc service.BOMService }

func NewBOMHandler(svc service.BOMService) *BOMHandler { return &BOMHandler{svc: svc} }

// Create godoc
// @Summary      Create a BOM
// @Description  Persists a bill of materials, reconciling the shortage ledger per raw-material line. Shortages do not block creation; the response carries the advisory message.
// @Tags         bom
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateBOMRequest true "BOM definition"
// @Success      201  {object} dto.BOMMutationResponse
// @Failure      400  {object} apierror.APIError
// @Router       /bom [post]
func (h *BOMHandler) Create(c *gin.Context) {
	var req dto.CreateBOMRequest
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
// @Summary      Update a BOM
// @Description  Merges line edits by id (omitted lines are kept), refreshes shortages, and propagates new estimates into any in-flight production run.
// @Tags         bom
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string               true "BOM UUID"
// @Param        body body dto.UpdateBOMRequest true "Fields to change"
// @Success      200  {object} dto.BOMMutationResponse
// @Failure      400  {object} apierror.APIError
// @Router       /bom/{id} [put]
func (h *BOMHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateBOMRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), currentActor(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Remove godoc
// @Summary      Delete a BOM
// @Description  Cascades to all owned lines and shortage records. Returns the deleted document.
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "BOM UUID"
// @Success      200 {object} dto.BOMResponse
// @Failure      404 {object} apierror.APIError
// @Router       /bom/{id} [delete]
func (h *BOMHandler) Remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Remove(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Details godoc
// @Summary      BOM details
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "BOM UUID"
// @Success      200 {object} dto.BOMResponse
// @Failure      404 {object} apierror.APIError
// @Router       /bom/{id} [get]
func (h *BOMHandler) Details(c *gin.Context) {
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

// ListApproved godoc
// @Summary      List approved BOMs
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 10)"
// @Success      200 {object} dto.BOMListResponse
// @Router       /bom/all [get]
func (h *BOMHandler) ListApproved(c *gin.Context) {
	var filter dto.BOMFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListApproved(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListUnapproved godoc
// @Summary      List BOMs pending approval
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.BOMResponse
// @Router       /bom/unapproved [get]
func (h *BOMHandler) ListUnapproved(c *gin.Context) {
	resp, err := h.svc.ListUnapproved(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListByFinishedGood godoc
// @Summary      BOMs producing a finished good
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {array} dto.BOMResponse
// @Router       /bom/finished-good/{id} [get]
func (h *BOMHandler) ListByFinishedGood(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListByFinishedGood(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AutoClone godoc
// @Summary      Clone a BOM scaled to a new output quantity
// @Description  Finds the finished good's BOM, scales every raw-material line linearly (2 dp), recomputes costs, and persists the clone under a fresh code. The source BOM is never mutated.
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query string true  "Finished good product UUID"
// @Param        quantity   query number true  "New output quantity"
// @Param        price      query number false "Unit price override"
// @Success      201 {object} dto.BOMMutationResponse
// @Failure      400 {object} apierror.APIError
// @Router       /bom/autobom [get]
func (h *BOMHandler) AutoClone(c *gin.Context) {
	var q dto.AutoBOMQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("product_id and quantity are required"))
		return
	}
	resp, err := h.svc.AutoClone(c.Request.Context(), currentActor(c), q)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Weekly godoc
// @Summary      BOMs of the current week grouped by weekday
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string][]dto.WeeklyBOMEntry
// @Router       /bom/weekly [get]
func (h *BOMHandler) Weekly(c *gin.Context) {
	resp, err := h.svc.WeeklyGrouping(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Shortages godoc
// @Summary      Inventory shortage ledger
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 10)"
// @Success      200 {object} dto.ShortageListResponse
// @Router       /bom/inventory-shortages [get]
func (h *BOMHandler) Shortages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	resp, err := h.svc.ListShortages(c.Request.Context(), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UnapprovedRawMaterials godoc
// @Summary      Raw-material lines pending admin approval
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.UnapprovedRawMaterialResponse
// @Router       /bom/raw-materials/unapproved [get]
func (h *BOMHandler) UnapprovedRawMaterials(c *gin.Context) {
	resp, err := h.svc.ListUnapprovedRawMaterials(c.Request.Context(), false)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApproveRawMaterial godoc
// @Summary      Admin approval of a raw-material line
// @Tags         bom
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ApproveRawMaterialRequest true "Line id"
// @Success      200 {object} map[string]string
// @Failure      404 {object} apierror.APIError
// @Router       /bom/raw-materials/approve [post]
func (h *BOMHandler) ApproveRawMaterial(c *gin.Context) {
	lineID, ok := h.bindLineID(c)
	if !ok {
		return
	}
	if err := h.svc.ApproveRawMaterialByAdmin(c.Request.Context(), lineID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Raw material approved"})
}

// InventoryUnapprovedRawMaterials godoc
// @Summary      Admin-approved lines awaiting inventory sign-off
// @Tags         bom
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.UnapprovedRawMaterialResponse
// @Router       /bom/inventory/raw-materials/unapproved [get]
func (h *BOMHandler) InventoryUnapprovedRawMaterials(c *gin.Context) {
	resp, err := h.svc.ListUnapprovedRawMaterials(c.Request.Context(), true)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// InventoryApproveRawMaterial godoc
// @Summary      Inventory sign-off on a raw-material line
// @Description  Approving the last pending line flips the linked production process to "Inventory Allocated".
// @Tags         bom
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ApproveRawMaterialRequest true "Line id"
// @Success      200 {object} map[string]string
// @Failure      404 {object} apierror.APIError
// @Router       /bom/inventory/raw-materials/approve [post]
func (h *BOMHandler) InventoryApproveRawMaterial(c *gin.Context) {
	lineID, ok := h.bindLineID(c)
	if !ok {
		return
	}
	if err := h.svc.ApproveRawMaterialByInventory(c.Request.Context(), lineID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Raw material approved"})
}

func (h *BOMHandler) bindLineID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.ApproveRawMaterialRequest
	if !bindAndValidate(c, &req) {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return parsed, true
}
