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

type TaskService interface {
	CreateTask(ctx context.Context, groupID, projectID uuid.UUID, req service.TaskRequest) (*model.Task, error)
	CreateSubTask(ctx context.Context, groupID, projectID, parentID uuid.UUID, req service.TaskRequest) (*model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, req service.TaskRequest) (*model.Task, error)
	SoftDeleteTask(ctx context.Context, id uuid.UUID) error
	ArchiveTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	UnarchiveTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	AssignUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) ([]model.User, error)
	UnassignUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) ([]model.User, error)
	GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListGroupTasks(ctx context.Context, groupID uuid.UUID) ([]model.Task, error)
	ListProjectTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	ListArchivedProjectTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	ListSubTasks(ctx context.Context, id uuid.UUID) ([]model.Task, error)
	ListAssignedUsers(ctx context.Context, id uuid.UUID) ([]model.User, error)
	ListMyAssignedTasks(ctx context.Context, subtasks bool) ([]model.Task, error)
	ListMyCreatedTasks(ctx context.Context, subtasks bool) ([]model.Task, error)
}

type CommentService interface {
	Add(ctx context.Context, taskID uuid.UUID, req service.CommentRequest) (*model.Comment, error)
	List(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error)
}

type TaskHandler struct {
	tasks    TaskService
	comments CommentService
}

func NewTaskHandler(tasks TaskService, comments CommentService) *TaskHandler {
	return &TaskHandler{tasks: tasks, comments: comments}
}

// Create godoc
// @Summary Create a task in a project
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param projectId path string true "Project ID"
// @Param task body service.TaskRequest true "Task"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/work-groups/{id}/projects/{projectId}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	groupID, projectID, ok := groupProjectParams(c)
	if !ok {
		return
	}
	var req service.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), groupID, projectID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(*task))
}

// CreateSubTask godoc
// @Summary Create a subtask under an existing task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Param projectId path string true "Project ID"
// @Param taskId path string true "Parent task ID"
// @Param task body service.TaskRequest true "Task"
// @Success 201 {object} TaskResponse
// @Router /api/work-groups/{id}/projects/{projectId}/tasks/{taskId}/subtasks [post]
func (h *TaskHandler) CreateSubTask(c *gin.Context) {
	groupID, projectID, ok := groupProjectParams(c)
	if !ok {
		return
	}
	parentID, ok := uuidParam(c, "taskId")
	if !ok {
		return
	}
	var req service.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	task, err := h.tasks.CreateSubTask(c.Request.Context(), groupID, projectID, parentID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(*task))
}

func groupProjectParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return groupID, projectID, true
}

// Get godoc
// @Summary Get a task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	h.respondTask(c, h.tasks.GetTask)
}

// Update godoc
// @Summary Update a task (creator only, not archived)
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param task body service.TaskRequest true "Task"
// @Success 200 {object} TaskResponse
// @Router /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

// Delete godoc
// @Summary Soft-delete a task
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 204
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.SoftDeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Archive godoc
// @Summary Archive a DONE task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/tasks/{id}/archive [post]
func (h *TaskHandler) Archive(c *gin.Context) {
	h.respondTask(c, h.tasks.ArchiveTask)
}

// Unarchive godoc
// @Summary Unarchive a task (OWNER or MODERATOR)
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Router /api/tasks/{id}/unarchive [post]
func (h *TaskHandler) Unarchive(c *gin.Context) {
	h.respondTask(c, h.tasks.UnarchiveTask)
}

func (h *TaskHandler) respondTask(c *gin.Context, act func(context.Context, uuid.UUID) (*model.Task, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	task, err := act(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

// ListAssignees godoc
// @Summary List users assigned to a task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {array} UserResponse
// @Router /api/tasks/{id}/assignees [get]
func (h *TaskHandler) ListAssignees(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	users, err := h.tasks.ListAssignedUsers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponses(users))
}

// Assign godoc
// @Summary Assign group members to a task, all or nothing
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param users body UserIDsRequest true "User IDs"
// @Success 200 {array} UserResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/tasks/{id}/assignees [post]
func (h *TaskHandler) Assign(c *gin.Context) {
	h.changeAssignees(c, h.tasks.AssignUsers)
}

// Unassign godoc
// @Summary Remove assignees from a task, all or nothing
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param users body UserIDsRequest true "User IDs"
// @Success 200 {array} UserResponse
// @Router /api/tasks/{id}/assignees [delete]
func (h *TaskHandler) Unassign(c *gin.Context) {
	h.changeAssignees(c, h.tasks.UnassignUsers)
}

func (h *TaskHandler) changeAssignees(c *gin.Context, change func(context.Context, uuid.UUID, []uuid.UUID) ([]model.User, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req UserIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	users, err := change(c.Request.Context(), id, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponses(users))
}

// ListSubTasks godoc
// @Summary List the active subtasks of a task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {array} TaskResponse
// @Router /api/tasks/{id}/subtasks [get]
func (h *TaskHandler) ListSubTasks(c *gin.Context) {
	h.respondTasksByID(c, h.tasks.ListSubTasks)
}

// ListByGroup godoc
// @Summary List the non-archived tasks of a work group
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Work group ID"
// @Success 200 {array} TaskResponse
// @Router /api/work-groups/{id}/tasks [get]
func (h *TaskHandler) ListByGroup(c *gin.Context) {
	h.respondTasksByID(c, h.tasks.ListGroupTasks)
}

// ListByProject godoc
// @Summary List the non-archived tasks of a project
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {array} TaskResponse
// @Router /api/projects/{id}/tasks [get]
func (h *TaskHandler) ListByProject(c *gin.Context) {
	h.respondTasksByID(c, h.tasks.ListProjectTasks)
}

// ListArchivedByProject godoc
// @Summary List the archived tasks of a project
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {array} TaskResponse
// @Router /api/projects/{id}/tasks/archived [get]
func (h *TaskHandler) ListArchivedByProject(c *gin.Context) {
	h.respondTasksByID(c, h.tasks.ListArchivedProjectTasks)
}

func (h *TaskHandler) respondTasksByID(c *gin.Context, list func(context.Context, uuid.UUID) ([]model.Task, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	tasks, err := list(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponses(tasks))
}

// Assigned godoc
// @Summary List tasks assigned to the caller
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param subtasks query bool false "Return subtasks instead of top-level tasks"
// @Success 200 {array} TaskResponse
// @Router /api/tasks/assigned [get]
func (h *TaskHandler) Assigned(c *gin.Context) {
	h.respondMine(c, h.tasks.ListMyAssignedTasks)
}

// Created godoc
// @Summary List tasks created by the caller
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param subtasks query bool false "Return subtasks instead of top-level tasks"
// @Success 200 {array} TaskResponse
// @Router /api/tasks/created [get]
func (h *TaskHandler) Created(c *gin.Context) {
	h.respondMine(c, h.tasks.ListMyCreatedTasks)
}

func (h *TaskHandler) respondMine(c *gin.Context, list func(context.Context, bool) ([]model.Task, error)) {
	subtasks, err := strconv.ParseBool(c.DefaultQuery("subtasks", "false"))
	if err != nil {
		badRequest(c, "Invalid subtasks flag")
		return
	}

	tasks, err := list(c.Request.Context(), subtasks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponses(tasks))
}

// AddComment godoc
// @Summary Comment on a task
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param comment body service.CommentRequest true "Comment"
// @Success 201 {object} CommentResponse
// @Router /api/tasks/{id}/comments [post]
func (h *TaskHandler) AddComment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	comment, err := h.comments.Add(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCommentResponse(*comment))
}

// ListComments godoc
// @Summary List a task's comments, oldest first
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {array} CommentResponse
// @Router /api/tasks/{id}/comments [get]
func (h *TaskHandler) ListComments(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	comments, err := h.comments.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]CommentResponse, len(comments))
	for i, cm := range comments {
		out[i] = toCommentResponse(cm)
	}
	c.JSON(http.StatusOK, out)
}
