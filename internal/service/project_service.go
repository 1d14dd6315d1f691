package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskmanager/internal/access"
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/logger"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/google/uuid"
)

type ProjectRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

// ProjectService enforces creator-only edits and keeps project members a
// subset of the project's work group.
type ProjectService struct {
	store *repository.Store
}

func NewProjectService(store *repository.Store) *ProjectService {
	return &ProjectService{store: store}
}

func (s *ProjectService) Create(ctx context.Context, groupID uuid.UUID, req ProjectRequest) (*model.Project, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.CreateProject, p, groupID, uuid.Nil); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.BadRequest("project", "titleempty", "Project title is required")
	}

	project := &model.Project{
		Title:       title,
		Description: stringOr(req.Description, ""),
		CreatorID:   p.UserID,
		WorkGroupID: groupID,
		Active:      true,
	}
	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	logger.Info().Str("project_id", project.ID.String()).Str("group_id", groupID.String()).Msg("project created")
	return project, nil
}

// Update changes title and description. The work group never changes.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req ProjectRequest) (*model.Project, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	project, err := activeProject(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(access.UpdateProject, p, access.Resource{CreatorID: project.CreatorID}); err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		project.Title = title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if err := s.store.Projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	project, err := s.store.Projects.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("project", "idnotfound", "Project not found")
	}
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if err := access.Authorize(access.DeleteProject, p, access.Resource{CreatorID: project.CreatorID}); err != nil {
		return err
	}
	if !project.Active {
		return apperror.BadRequest("project", "alreadydeleted", "Project is already deleted")
	}

	project.Active = false
	if err := s.store.Projects.Update(ctx, project); err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	logger.Info().Str("project_id", id.String()).Str("by", p.Login).Msg("project deleted")
	return nil
}

// AssignUsers adds every id to the project or none of them. The project row
// stays locked while the checks and inserts run.
func (s *ProjectService) AssignUsers(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) ([]model.User, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	var (
		ids   []uuid.UUID
		users []model.User
	)
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		project, err := tx.Projects.GetActiveForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("project", "idnotfound", "Project not found")
		}
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if err := authorizeIn(ctx, tx, access.ManageProjectMembers, p, project.WorkGroupID, project.CreatorID); err != nil {
			return err
		}

		ids = uniqueIDs(userIDs)
		if len(ids) == 0 {
			return apperror.BadRequest("project", "nousers", "At least one user id is required")
		}
		if err := checkCandidates(ctx, tx, "project", project.WorkGroupID, ids); err != nil {
			return err
		}
		current, err := tx.Projects.MemberIDs(ctx, id)
		if err != nil {
			return fmt.Errorf("list project members: %w", err)
		}
		members := idSet(current)
		for _, uid := range ids {
			if _, ok := members[uid]; ok {
				return apperror.Conflict("project", "alreadymember", fmt.Sprintf("User %s is already a member of the project", uid))
			}
		}

		for _, uid := range ids {
			if err := tx.Projects.AddMember(ctx, id, uid); err != nil {
				return fmt.Errorf("add project member: %w", err)
			}
		}
		if users, err = tx.Projects.ListMembers(ctx, id); err != nil {
			return fmt.Errorf("list project members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("project_id", id.String()).Int("count", len(ids)).Msg("users assigned to project")
	return users, nil
}

func (s *ProjectService) UnassignUser(ctx context.Context, id, userID uuid.UUID) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	project, err := activeProject(ctx, s.store, id)
	if err != nil {
		return err
	}
	if err := authorizeIn(ctx, s.store, access.ManageProjectMembers, p, project.WorkGroupID, project.CreatorID); err != nil {
		return err
	}

	err = s.store.Projects.RemoveMember(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("project", "membernotfound", "User is not a member of the project")
	}
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	return nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	project, err := activeProject(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.ViewWorkGroup, p, project.WorkGroupID, uuid.Nil); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.Project, error) {
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
	return s.store.Projects.ListByGroup(ctx, groupID)
}

// ListAssigned returns the projects the caller is a member of.
func (s *ProjectService) ListAssigned(ctx context.Context) ([]model.Project, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Projects.ListByMember(ctx, p.UserID)
}

// ListCreated returns the projects the caller created.
func (s *ProjectService) ListCreated(ctx context.Context) ([]model.Project, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Projects.ListByCreator(ctx, p.UserID)
}

func (s *ProjectService) ListMembers(ctx context.Context, id uuid.UUID) ([]model.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Projects.ListMembers(ctx, id)
}
