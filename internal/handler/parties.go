package handler

import (
	"net/http"

	"fabriq/internal/apierror"
	"fabriq/internal/dto"
	"fabriq/internal/service"

	"github.com/gin-gonic/gin"
)

type PartiesHandler struct{ svc service.PartyService }

func NewPartiesHandler(svc service.PartyService) *PartiesHandler {
	return &PartiesHandler{svc: svc}
}

// Create godoc
// @Summary      Create a customer or supplier
// @Tags         parties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePartyRequest true "Party details"
// @Success      201  {object} dto.PartyResponse
// @Failure      400  {object} apierror.APIError
// @Router       /parties [post]
func (h *PartiesHandler) Create(c *gin.Context) {
	var req dto.CreatePartyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Details godoc
// @Summary      Party details
// @Tags         parties
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Party UUID"
// @Success      200 {object} dto.PartyResponse
// @Failure      404 {object} apierror.APIError
// @Router       /parties/{id} [get]
func (h *PartiesHandler) Details(c *gin.Context) {
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
// @Summary      List parties
// @Tags         parties
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Rows per page (default 100)"
// @Param        type  query string false "customer | supplier"
// @Success      200 {object} dto.PartyListResponse
// @Router       /parties [get]
func (h *PartiesHandler) List(c *gin.Context) {
	var filter dto.PartyFilter
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
// @Summary      Update a party
// @Tags         parties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Party UUID"
// @Param        body body dto.UpdatePartyRequest true "Fields to change"
// @Success      200  {object} dto.PartyResponse
// @Failure      404  {object} apierror.APIError
// @Router       /parties/{id} [put]
func (h *PartiesHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePartyRequest
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

// Remove godoc
// @Summary      Delete a party
// @Tags         parties
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Party UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /parties/{id} [delete]
func (h *PartiesHandler) Remove(c *gin.Context) {
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
