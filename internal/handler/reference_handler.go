package handler

import (
	"context"
	"net/http"
	"strconv"

	"taskmanager/internal/model"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StatusService interface {
	Create(ctx context.Context, groupID uuid.UUID, req service.StatusRequest) (*model.Status, error)
	Update(ctx context.Context, groupID, id uuid.UUID, req service.StatusRequest) (*model.Status, error)
	Delete(ctx context.Context, groupID, id uuid.UUID) error
	List(ctx context.Context, groupID uuid.UUID) ([]model.Status, error)
}

type PriorityService interface {
	Create(ctx context.Context, req service.PriorityRequest) (*model.Priority, error)
	Update(ctx context.Context, id uuid.UUID, req service.PriorityRequest) (*model.Priority, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Hide(ctx context.Context, id uuid.UUID) (*model.Priority, error)
	Unhide(ctx context.Context, id uuid.UUID) (*model.Priority, error)
	List(ctx context.Context, includeHidden bool) ([]model.Priority, error)
}

// ReferenceHandler serves the status and priority lookup tables.
type ReferenceHandler struct {
	statuses   StatusService
	priorities PriorityService
}

func NewReferenceHandler(statuses StatusService, priorities PriorityService) *ReferenceHandler {
	return &ReferenceHandler{statuses: statuses, priorities: priorities}
}

// ListStatuses godoc
// @Summary List global and group statuses
// @Tags Statuses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Success 200 {array} StatusResponse
// @Router /api/work-groups/{id}/statuses [get]
func (h *ReferenceHandler) ListStatuses(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	statuses, err := h.statuses.List(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]StatusResponse, len(statuses))
	for i, s := range statuses {
		out[i] = toStatusResponse(s)
	}
	c.JSON(http.StatusOK, out)
}

// CreateStatus godoc
// @Summary Create a group status
// @Tags Statuses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param status body service.StatusRequest true "Status"
// @Success 201 {object} StatusResponse
// @Router /api/work-groups/{id}/statuses [post]
func (h *ReferenceHandler) CreateStatus(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	status, err := h.statuses.Create(c.Request.Context(), groupID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toStatusResponse(*status))
}

// UpdateStatus godoc
// @Summary Rename a group status
// @Tags Statuses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param statusId path string true "Status ID"
// @Param status body service.StatusRequest true "Status"
// @Success 200 {object} StatusResponse
// @Router /api/work-groups/{id}/statuses/{statusId} [put]
func (h *ReferenceHandler) UpdateStatus(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	id, ok := uuidParam(c, "statusId")
	if !ok {
		return
	}
	var req service.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	status, err := h.statuses.Update(c.Request.Context(), groupID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(*status))
}

// DeleteStatus godoc
// @Summary Delete an unused group status
// @Tags Statuses
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param statusId path string true "Status ID"
// @Success 204
// @Router /api/work-groups/{id}/statuses/{statusId} [delete]
func (h *ReferenceHandler) DeleteStatus(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	id, ok := uuidParam(c, "statusId")
	if !ok {
		return
	}
	if err := h.statuses.Delete(c.Request.Context(), groupID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPriorities godoc
// @Summary List priorities
// @Tags Priorities
// @Produce json
// @Security BearerAuth
// @Param hidden query bool false "Include hidden priorities (admins only)"
// @Success 200 {array} PriorityResponse
// @Router /api/priorities [get]
func (h *ReferenceHandler) ListPriorities(c *gin.Context) {
	hidden, err := strconv.ParseBool(c.DefaultQuery("hidden", "false"))
	if err != nil {
		badRequest(c, "Invalid hidden flag")
		return
	}

	priorities, err := h.priorities.List(c.Request.Context(), hidden)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]PriorityResponse, len(priorities))
	for i, p := range priorities {
		out[i] = toPriorityResponse(p)
	}
	c.JSON(http.StatusOK, out)
}

// CreatePriority godoc
// @Summary Create a priority (admin only)
// @Tags Priorities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param priority body service.PriorityRequest true "Priority"
// @Success 201 {object} PriorityResponse
// @Router /api/priorities [post]
func (h *ReferenceHandler) CreatePriority(c *gin.Context) {
	var req service.PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	priority, err := h.priorities.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPriorityResponse(*priority))
}

// UpdatePriority godoc
// @Summary Rename a priority (admin only)
// @Tags Priorities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Priority ID"
// @Param priority body service.PriorityRequest true "Priority"
// @Success 200 {object} PriorityResponse
// @Router /api/priorities/{id} [put]
func (h *ReferenceHandler) UpdatePriority(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	priority, err := h.priorities.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPriorityResponse(*priority))
}

// DeletePriority godoc
// @Summary Delete an unused priority (admin only)
// @Tags Priorities
// @Security BearerAuth
// @Param id path string true "Priority ID"
// @Success 204
// @Router /api/priorities/{id} [delete]
func (h *ReferenceHandler) DeletePriority(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.priorities.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HidePriority godoc
// @Summary Hide a priority from new tasks
// @Tags Priorities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Priority ID"
// @Success 200 {object} PriorityResponse
// @Router /api/priorities/{id}/hide [post]
func (h *ReferenceHandler) HidePriority(c *gin.Context) {
	h.setHidden(c, h.priorities.Hide)
}

// UnhidePriority godoc
// @Summary Make a hidden priority selectable again
// @Tags Priorities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Priority ID"
// @Success 200 {object} PriorityResponse
// @Router /api/priorities/{id}/unhide [post]
func (h *ReferenceHandler) UnhidePriority(c *gin.Context) {
	h.setHidden(c, h.priorities.Unhide)
}

func (h *ReferenceHandler) setHidden(c *gin.Context, set func(context.Context, uuid.UUID) (*model.Priority, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	priority, err := set(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPriorityResponse(*priority))
}
