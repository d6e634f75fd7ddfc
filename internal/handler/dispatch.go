package handler

import (
	"net/http"

	"fabriq/internal/dto"
	"fabriq/internal/service"

	"github.com/gin-gonic/gin"
)

type DispatchHandler struct{ svc service.DispatchService }

func NewDispatchHandler(svc service.DispatchService) *DispatchHandler {
	return &DispatchHandler{svc: svc}
}

// Create godoc
// @Summary      Dispatch finished goods
// @Description  Decrements finished-good stock and records the dispatch. A production process or sale can be dispatched at most once.
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateDispatchRequest true "Dispatch details"
// @Success      201  {object} dto.DispatchResponse
// @Failure      400  {object} apierror.APIError
// @Router       /dispatch [post]
func (h *DispatchHandler) Create(c *gin.Context) {
	var req dto.CreateDispatchRequest
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
// @Summary      Update dispatch delivery / task status
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "Dispatch UUID"
// @Param        body body dto.UpdateDispatchRequest true "Status changes"
// @Success      200  {object} map[string]string
// @Failure      404  {object} apierror.APIError
// @Router       /dispatch/{id} [put]
func (h *DispatchHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateDispatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Update(c.Request.Context(), id, req); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dispatch updated"})
}

// Remove godoc
// @Summary      Delete a dispatch record
// @Description  Administrative correction; dispatched stock is not returned.
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Dispatch UUID"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Router       /dispatch/{id} [delete]
func (h *DispatchHandler) Remove(c *gin.Context) {
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
// @Summary      Dispatch details
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Dispatch UUID"
// @Success      200 {object} dto.DispatchResponse
// @Failure      404 {object} apierror.APIError
// @Router       /dispatch/{id} [get]
func (h *DispatchHandler) Details(c *gin.Context) {
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
// @Summary      List dispatches
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.DispatchResponse
// @Router       /dispatch/all [get]
func (h *DispatchHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
