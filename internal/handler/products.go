package handler

import (
	"net/http"
	"strconv"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// Create godoc
// @Summary      Create a product
// @Description  Assigns a category-prefixed code (RM001, FG001, S001). Elevated creators get auto-approval.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductRequest true "Product definition"
// @Success      201  {object} dto.ProductResponse
// @Failure      400  {object} apierror.APIError
// @Router       /products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
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
// @Summary      Product details
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id} [get]
func (h *ProductsHandler) Details(c *gin.Context) {
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
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        page     query int    false "Page (default 1)"
// @Param        limit    query int    false "Rows per page (default 100)"
// @Param        name     query string false "Name substring filter"
// @Param        category query string false "raw_material | finished_good | scrap"
// @Param        active   query string false "false = inactive, all = everything"
// @Success      200 {object} dto.ProductListResponse
// @Router       /products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
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

// Update godoc
// @Summary      Update a product
// @Description  A category change regenerates the code under the new prefix. Non-elevated edits reset approval.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Product UUID"
// @Param        body body dto.UpdateProductRequest true "Fields to change"
// @Success      200  {object} dto.ProductResponse
// @Failure      404  {object} apierror.APIError
// @Router       /products/{id} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
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

// AdjustStock godoc
// @Summary      Apply a signed stock delta
// @Description  Refuses adjustments that would drive stock negative.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Product UUID"
// @Param        body body dto.AdjustStockRequest true "Delta and reason"
// @Success      200  {object} dto.ProductResponse
// @Failure      400  {object} apierror.APIError
// @Router       /products/{id}/stock [put]
func (h *ProductsHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary      Deactivate a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id} [delete]
func (h *ProductsHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Movements godoc
// @Summary      Stock movement history for a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Product UUID"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Rows per page (default 50)"
// @Success      200 {array} dto.StockMovementResponse
// @Router       /products/{id}/movements [get]
func (h *ProductsHandler) Movements(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.Movements(c.Request.Context(), id, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
