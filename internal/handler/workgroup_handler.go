package handler

import (
	"context"
	"net/http"

	"taskmanager/internal/model"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkGroupService interface {
	Create(ctx context.Context, req service.WorkGroupRequest) (*model.WorkGroup, error)
	Update(ctx context.Context, id uuid.UUID, req service.WorkGroupRequest) (*model.WorkGroup, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.WorkGroup, error)
	ListActive(ctx context.Context) ([]model.WorkGroup, error)
	ListMine(ctx context.Context) ([]model.WorkGroup, error)
}

type MembershipService interface {
	AddMember(ctx context.Context, groupID uuid.UUID, username string) (*model.WorkGroupMembership, error)
	RemoveMember(ctx context.Context, groupID uuid.UUID, username string) error
	LeaveGroup(ctx context.Context, groupID uuid.UUID) error
	PromoteToModerator(ctx context.Context, groupID uuid.UUID, username string) (*model.WorkGroupMembership, error)
	DemoteModerator(ctx context.Context, groupID uuid.UUID, username string) (*model.WorkGroupMembership, error)
	TransferOwnership(ctx context.Context, groupID uuid.UUID, username string) error
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]model.WorkGroupMembership, error)
}

type WorkGroupHandler struct {
	groups  WorkGroupService
	members MembershipService
}

func NewWorkGroupHandler(groups WorkGroupService, members MembershipService) *WorkGroupHandler {
	return &WorkGroupHandler{groups: groups, members: members}
}

// Create godoc
// @Summary Create a work group; the caller becomes its OWNER
// @Tags WorkGroups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param group body service.WorkGroupRequest true "Work group"
// @Success 201 {object} WorkGroupResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/work-groups [post]
func (h *WorkGroupHandler) Create(c *gin.Context) {
	var req service.WorkGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWorkGroupResponse(*group))
}

// List godoc
// @Summary List active work groups
// @Tags WorkGroups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkGroupResponse
// @Router /api/work-groups [get]
func (h *WorkGroupHandler) List(c *gin.Context) {
	h.respondGroups(c, h.groups.ListActive)
}

// Mine godoc
// @Summary List the caller's work groups
// @Tags WorkGroups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkGroupResponse
// @Router /api/work-groups/mine [get]
func (h *WorkGroupHandler) Mine(c *gin.Context) {
	h.respondGroups(c, h.groups.ListMine)
}

func (h *WorkGroupHandler) respondGroups(c *gin.Context, list func(context.Context) ([]model.WorkGroup, error)) {
	groups, err := list(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]WorkGroupResponse, len(groups))
	for i, g := range groups {
		out[i] = toWorkGroupResponse(g)
	}
	c.JSON(http.StatusOK, out)
}

// Get godoc
// @Summary Get a work group
// @Tags WorkGroups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Success 200 {object} WorkGroupResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/work-groups/{id} [get]
func (h *WorkGroupHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	group, err := h.groups.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkGroupResponse(*group))
}

// Update godoc
// @Summary Update a work group (OWNER only)
// @Tags WorkGroups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param group body service.WorkGroupRequest true "Work group"
// @Success 200 {object} WorkGroupResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/work-groups/{id} [put]
func (h *WorkGroupHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.WorkGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	group, err := h.groups.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkGroupResponse(*group))
}

// Delete godoc
// @Summary Deactivate a work group (OWNER only)
// @Tags WorkGroups
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /api/work-groups/{id} [delete]
func (h *WorkGroupHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.groups.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers godoc
// @Summary List in-group members with their roles
// @Tags Membership
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Success 200 {array} MemberResponse
// @Router /api/work-groups/{id}/members [get]
func (h *WorkGroupHandler) ListMembers(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	members, err := h.members.ListMembers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]MemberResponse, len(members))
	for i, m := range members {
		out[i] = toMemberResponse(m)
	}
	c.JSON(http.StatusOK, out)
}

// AddMember godoc
// @Summary Add a user to the group as MEMBER
// @Tags Membership
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param user body UsernameRequest true "User login"
// @Success 201 {object} MemberResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/work-groups/{id}/members [post]
func (h *WorkGroupHandler) AddMember(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	m, err := h.members.AddMember(c.Request.Context(), id, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMemberResponse(*m))
}

// RemoveMember godoc
// @Summary Remove a member from the group
// @Tags Membership
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param username path string true "User login"
// @Success 204
// @Router /api/work-groups/{id}/members/{username} [delete]
func (h *WorkGroupHandler) RemoveMember(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.members.RemoveMember(c.Request.Context(), id, c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave godoc
// @Summary Leave the group (plain MEMBER only)
// @Tags Membership
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Success 204
// @Router /api/work-groups/{id}/leave [post]
func (h *WorkGroupHandler) Leave(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.members.LeaveGroup(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Promote godoc
// @Summary Promote a member to MODERATOR
// @Tags Membership
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param username path string true "User login"
// @Success 200 {object} MemberResponse
// @Router /api/work-groups/{id}/moderators/{username} [post]
func (h *WorkGroupHandler) Promote(c *gin.Context) {
	h.changeRole(c, h.members.PromoteToModerator)
}

// Demote godoc
// @Summary Demote a MODERATOR back to MEMBER
// @Tags Membership
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param username path string true "User login"
// @Success 200 {object} MemberResponse
// @Router /api/work-groups/{id}/moderators/{username} [delete]
func (h *WorkGroupHandler) Demote(c *gin.Context) {
	h.changeRole(c, h.members.DemoteModerator)
}

func (h *WorkGroupHandler) changeRole(c *gin.Context, change func(context.Context, uuid.UUID, string) (*model.WorkGroupMembership, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	m, err := change(c.Request.Context(), id, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMemberResponse(*m))
}

// TransferOwnership godoc
// @Summary Hand the OWNER role to another member
// @Tags Membership
// @Accept json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param user body UsernameRequest true "New owner login"
// @Success 204
// @Router /api/work-groups/{id}/transfer-ownership [post]
func (h *WorkGroupHandler) TransferOwnership(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	if err := h.members.TransferOwnership(c.Request.Context(), id, req.Username); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
