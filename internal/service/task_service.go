package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/access"
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/logger"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/google/uuid"
)

type TaskRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description *string   `json:"description"`
	PriorityID  uuid.UUID `json:"priority_id"`
	StatusID    uuid.UUID `json:"status_id"`
}

// TaskService owns the task lifecycle: creation under a project, creator-only
// edits, soft delete, archiving of DONE tasks and assignee management.
// Archived tasks are read-only until unarchived.
type TaskService struct {
	store *repository.Store
	now   func() time.Time
}

func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *TaskService) CreateTask(ctx context.Context, groupID, projectID uuid.UUID, req TaskRequest) (*model.Task, error) {
	return s.create(ctx, groupID, projectID, nil, req)
}

// CreateSubTask adds a child under parentID. The parent must be active, not
// archived and part of projectID.
func (s *TaskService) CreateSubTask(ctx context.Context, groupID, projectID, parentID uuid.UUID, req TaskRequest) (*model.Task, error) {
	if _, err := auth.CurrentUser(ctx); err != nil {
		return nil, err
	}
	parent, err := activeTask(ctx, s.store, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Archived {
		return nil, apperror.BadRequest("task", "parentarchived", "Cannot add a subtask to an archived task")
	}
	if parent.ProjectID != projectID {
		return nil, apperror.BadRequest("task", "parentnotinproject", "Parent task does not belong to the specified Project")
	}
	return s.create(ctx, groupID, projectID, &parent.ID, req)
}

func (s *TaskService) create(ctx context.Context, groupID, projectID uuid.UUID, parentID *uuid.UUID, req TaskRequest) (*model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	project, err := activeProject(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if project.WorkGroupID != groupID {
		return nil, apperror.BadRequest("task", "projectnotingroup", "Project does not belong to the specified WorkGroup")
	}
	if err := authorizeIn(ctx, s.store, access.CreateTask, p, groupID, uuid.Nil); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.BadRequest("task", "titleempty", "Task title is required")
	}
	priority, status, err := s.resolveLookups(ctx, groupID, req.PriorityID, req.StatusID, uuid.Nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &model.Task{
		Title:        title,
		Description:  stringOr(req.Description, ""),
		PriorityID:   priority.ID,
		StatusID:     status.ID,
		CreateTime:   now,
		UpdateTime:   now,
		Archived:     false,
		Active:       true,
		CreatorID:    p.UserID,
		WorkGroupID:  groupID,
		ProjectID:    projectID,
		ParentTaskID: parentID,
	}
	if err := s.store.Tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	task.Priority = *priority
	task.Status = *status

	logger.Info().
		Str("task_id", task.ID.String()).
		Str("project_id", projectID.String()).
		Bool("subtask", parentID != nil).
		Msg("task created")
	return task, nil
}

// UpdateTask rewrites title, description, priority and status. Only the
// creator may do it, and never while the task is archived.
func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, req TaskRequest) (*model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := activeTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if task.Archived {
		return nil, apperror.Forbidden("task", "archived", "Archived tasks cannot be modified")
	}
	if err := access.Authorize(access.UpdateTask, p, access.Resource{CreatorID: task.CreatorID}); err != nil {
		return nil, err
	}

	priorityID, statusID := req.PriorityID, req.StatusID
	if priorityID == uuid.Nil {
		priorityID = task.PriorityID
	}
	if statusID == uuid.Nil {
		statusID = task.StatusID
	}
	priority, status, err := s.resolveLookups(ctx, task.WorkGroupID, priorityID, statusID, task.PriorityID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		task.Title = title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	task.PriorityID = priority.ID
	task.Priority = *priority
	task.StatusID = status.ID
	task.Status = *status
	task.UpdateTime = s.now()
	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// SoftDeleteTask deactivates a task. Archived tasks may only be deleted by
// the group's OWNER or MODERATOR, the rest only by their creator.
func (s *TaskService) SoftDeleteTask(ctx context.Context, id uuid.UUID) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	task, err := s.store.Tasks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("task", "idnotfound", "Task not found")
	}
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}

	if task.Archived {
		err = authorizeIn(ctx, s.store, access.DeleteArchivedTask, p, task.WorkGroupID, uuid.Nil)
	} else {
		err = access.Authorize(access.DeleteTask, p, access.Resource{CreatorID: task.CreatorID})
	}
	if err != nil {
		return err
	}
	if !task.Active {
		return apperror.BadRequest("task", "alreadydeleted", "Task is already deleted")
	}

	task.Active = false
	task.UpdateTime = s.now()
	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	logger.Info().Str("task_id", id.String()).Str("by", p.Login).Msg("task deleted")
	return nil
}

// ArchiveTask archives a task whose status is DONE.
func (s *TaskService) ArchiveTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := activeTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.ArchiveTask, p, task.WorkGroupID, uuid.Nil); err != nil {
		return nil, err
	}
	if task.Status.Name != model.StatusDone {
		return nil, apperror.BadRequest("task", "notdone", "Only tasks with status DONE can be archived")
	}
	if task.Archived {
		return task, nil
	}

	task.Archived = true
	task.UpdateTime = s.now()
	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	logger.Info().Str("task_id", id.String()).Str("by", p.Login).Msg("task archived")
	return task, nil
}

func (s *TaskService) UnarchiveTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := activeTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if !task.Archived {
		return nil, apperror.BadRequest("task", "notarchived", "Task is not archived")
	}
	if err := authorizeIn(ctx, s.store, access.UnarchiveTask, p, task.WorkGroupID, uuid.Nil); err != nil {
		return nil, err
	}

	task.Archived = false
	task.UpdateTime = s.now()
	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	logger.Info().Str("task_id", id.String()).Str("by", p.Login).Msg("task unarchived")
	return task, nil
}

// AssignUsers adds every id to the task's assignees or none of them.
func (s *TaskService) AssignUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) ([]model.User, error) {
	var (
		ids   []uuid.UUID
		users []model.User
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		task, assigned, err := s.prepareAssignment(ctx, tx, id, userIDs)
		if err != nil {
			return err
		}
		ids = uniqueIDs(userIDs)
		for _, uid := range ids {
			if _, ok := assigned[uid]; ok {
				return apperror.Conflict("task", "alreadyassigned", fmt.Sprintf("User %s is already assigned to the task", uid))
			}
		}
		for _, uid := range ids {
			if err := tx.Tasks.AssignUser(ctx, task.ID, uid); err != nil {
				return fmt.Errorf("assign user: %w", err)
			}
		}
		if users, err = s.touchAssignees(ctx, tx, task); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("task_id", id.String()).Int("count", len(ids)).Msg("users assigned to task")
	return users, nil
}

// UnassignUsers removes every id from the task's assignees or none of them.
func (s *TaskService) UnassignUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) ([]model.User, error) {
	var (
		ids   []uuid.UUID
		users []model.User
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		task, assigned, err := s.prepareAssignment(ctx, tx, id, userIDs)
		if err != nil {
			return err
		}
		ids = uniqueIDs(userIDs)
		for _, uid := range ids {
			if _, ok := assigned[uid]; !ok {
				return apperror.NotFound("task", "usernotassigned", fmt.Sprintf("User %s is not assigned to the task", uid))
			}
		}
		for _, uid := range ids {
			if err := tx.Tasks.UnassignUser(ctx, task.ID, uid); err != nil {
				return fmt.Errorf("unassign user: %w", err)
			}
		}
		if users, err = s.touchAssignees(ctx, tx, task); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("task_id", id.String()).Int("count", len(ids)).Msg("users unassigned from task")
	return users, nil
}

// prepareAssignment locks the task and runs every check shared by assign and
// unassign against tx. It returns the task and its current assignee set.
func (s *TaskService) prepareAssignment(ctx context.Context, tx *repository.Store, id uuid.UUID, userIDs []uuid.UUID) (*model.Task, map[uuid.UUID]struct{}, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	task, err := tx.Tasks.GetActiveForUpdate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperror.NotFound("task", "idnotfound", "Task not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get task: %w", err)
	}
	if err := authorizeIn(ctx, tx, access.AssignTask, p, task.WorkGroupID, uuid.Nil); err != nil {
		return nil, nil, err
	}
	if task.Archived {
		return nil, nil, apperror.BadRequest("task", "archived", "Archived tasks cannot be modified")
	}
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return nil, nil, apperror.BadRequest("task", "nousers", "At least one user id is required")
	}
	if err := checkCandidates(ctx, tx, "task", task.WorkGroupID, ids); err != nil {
		return nil, nil, err
	}
	current, err := tx.Tasks.AssigneeIDs(ctx, task.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list assignees: %w", err)
	}
	return task, idSet(current), nil
}

// touchAssignees records the assignee change on the task and returns the new
// assignee list.
func (s *TaskService) touchAssignees(ctx context.Context, tx *repository.Store, task *model.Task) ([]model.User, error) {
	task.UpdateTime = s.now()
	if err := tx.Tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	users, err := tx.Tasks.ListAssignees(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	return users, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := activeTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.ViewWorkGroup, p, task.WorkGroupID, uuid.Nil); err != nil {
		return nil, err
	}
	return task, nil
}

// ListGroupTasks returns the live, non-archived tasks of a group.
func (s *TaskService) ListGroupTasks(ctx context.Context, groupID uuid.UUID) ([]model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.ViewWorkGroup, p, groupID, uuid.Nil); err != nil {
		return nil, err
	}
	return s.store.Tasks.ListByGroup(ctx, groupID)
}

func (s *TaskService) ListProjectTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	return s.listProject(ctx, projectID, false)
}

func (s *TaskService) ListArchivedProjectTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	return s.listProject(ctx, projectID, true)
}

func (s *TaskService) listProject(ctx context.Context, projectID uuid.UUID, archived bool) ([]model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	project, err := activeProject(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.ViewWorkGroup, p, project.WorkGroupID, uuid.Nil); err != nil {
		return nil, err
	}
	return s.store.Tasks.ListByProject(ctx, projectID, archived)
}

func (s *TaskService) ListSubTasks(ctx context.Context, id uuid.UUID) ([]model.Task, error) {
	if _, err := s.GetTask(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Tasks.ListSubTasks(ctx, id)
}

func (s *TaskService) ListAssignedUsers(ctx context.Context, id uuid.UUID) ([]model.User, error) {
	if _, err := s.GetTask(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Tasks.ListAssignees(ctx, id)
}

// ListMyAssignedTasks returns the caller's assigned tasks, or assigned
// subtasks when subtasks is set.
func (s *TaskService) ListMyAssignedTasks(ctx context.Context, subtasks bool) ([]model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Tasks.ListByAssignee(ctx, p.UserID, subtasks)
}

func (s *TaskService) ListMyCreatedTasks(ctx context.Context, subtasks bool) ([]model.Task, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Tasks.ListByCreator(ctx, p.UserID, subtasks)
}

// resolveLookups loads the priority and status a task refers to. A hidden
// priority is refused unless it equals keepPriority, the task's current one.
func (s *TaskService) resolveLookups(ctx context.Context, groupID, priorityID, statusID, keepPriority uuid.UUID) (*model.Priority, *model.Status, error) {
	priority, err := s.store.Priorities.GetByID(ctx, priorityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperror.BadRequest("priority", "idnotfound", "Priority not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get priority: %w", err)
	}
	if priority.Hidden && priority.ID != keepPriority {
		return nil, nil, apperror.BadRequest("priority", "hidden", "Priority is hidden")
	}

	status, err := s.store.Statuses.GetByID(ctx, statusID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperror.BadRequest("status", "idnotfound", "Status not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get status: %w", err)
	}
	if !status.UsableIn(groupID) {
		return nil, nil, apperror.BadRequest("status", "notingroup", "Status does not belong to the task's WorkGroup")
	}
	return priority, status, nil
}
