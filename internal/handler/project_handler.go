package handler

import (
	"context"
	"net/http"

	"taskmanager/internal/model"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectService interface {
	Create(ctx context.Context, groupID uuid.UUID, req service.ProjectRequest) (*model.Project, error)
	Update(ctx context.Context, id uuid.UUID, req service.ProjectRequest) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AssignUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) ([]model.User, error)
	UnassignUser(ctx context.Context, id, userID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.Project, error)
	ListAssigned(ctx context.Context) ([]model.Project, error)
	ListCreated(ctx context.Context) ([]model.Project, error)
	ListMembers(ctx context.Context, id uuid.UUID) ([]model.User, error)
}

type ProjectHandler struct {
	projects ProjectService
}

func NewProjectHandler(projects ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create godoc
// @Summary Create a project inside a work group
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param project body service.ProjectRequest true "Project"
// @Success 201 {object} ProjectResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/work-groups/{id}/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	project, err := h.projects.Create(c.Request.Context(), groupID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectResponse(*project))
}

// ListByGroup godoc
// @Summary List the active projects of a work group
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Success 200 {array} ProjectResponse
// @Router /api/work-groups/{id}/projects [get]
func (h *ProjectHandler) ListByGroup(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	projects, err := h.projects.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponses(projects))
}

// Assigned godoc
// @Summary List projects the caller is a member of
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ProjectResponse
// @Router /api/projects/assigned [get]
func (h *ProjectHandler) Assigned(c *gin.Context) {
	h.respondProjects(c, h.projects.ListAssigned)
}

// Mine godoc
// @Summary List projects the caller created
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ProjectResponse
// @Router /api/projects/mine [get]
func (h *ProjectHandler) Mine(c *gin.Context) {
	h.respondProjects(c, h.projects.ListCreated)
}

func (h *ProjectHandler) respondProjects(c *gin.Context, list func(context.Context) ([]model.Project, error)) {
	projects, err := list(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponses(projects))
}

// Get godoc
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} ProjectResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(*project))
}

// Update godoc
// @Summary Update a project (creator only)
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param project body service.ProjectRequest true "Project"
// @Success 200 {object} ProjectResponse
// @Router /api/projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	project, err := h.projects.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(*project))
}

// Delete godoc
// @Summary Deactivate a project (creator only)
// @Tags Projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 204
// @Router /api/projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignUsers godoc
// @Summary Add group members to a project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param users body UserIDsRequest true "User IDs"
// @Success 200 {array} UserResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/projects/{id}/assign-users [post]
func (h *ProjectHandler) AssignUsers(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req UserIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	members, err := h.projects.AssignUsers(c.Request.Context(), id, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponses(members))
}

// UnassignUser godoc
// @Summary Remove a user from a project
// @Tags Projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param userId path string true "User ID"
// @Success 204
// @Router /api/projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) UnassignUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	if err := h.projects.UnassignUser(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers godoc
// @Summary List project members
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {array} UserResponse
// @Router /api/projects/{id}/members [get]
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	members, err := h.projects.ListMembers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponses(members))
}
