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

type WorkGroupRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type WorkGroupService struct {
	store *repository.Store
}

func NewWorkGroupService(store *repository.Store) *WorkGroupService {
	return &WorkGroupService{store: store}
}

// Create opens a new group with the caller as its OWNER.
func (s *WorkGroupService) Create(ctx context.Context, req WorkGroupRequest) (*model.WorkGroup, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.BadRequest("workGroup", "nameempty", "WorkGroup name is required")
	}

	group := &model.WorkGroup{Name: name, Description: stringOr(req.Description, ""), Active: true}
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.WorkGroups.Create(ctx, group); err != nil {
			return fmt.Errorf("create work group: %w", err)
		}
		owner := &model.WorkGroupMembership{
			UserID:      p.UserID,
			WorkGroupID: group.ID,
			Role:        model.RoleOwner,
			InGroup:     true,
		}
		if err := tx.Memberships.Create(ctx, owner); err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("group_id", group.ID.String()).Str("owner", p.Login).Msg("work group created")
	return group, nil
}

func (s *WorkGroupService) Update(ctx context.Context, id uuid.UUID, req WorkGroupRequest) (*model.WorkGroup, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	group, err := activeGroup(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.UpdateWorkGroup, p, id, uuid.Nil); err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		group.Name = name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if err := s.store.WorkGroups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("update work group: %w", err)
	}
	return group, nil
}

// Delete deactivates the group. Its rows are kept.
func (s *WorkGroupService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	group, err := s.store.WorkGroups.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("workGroup", "idnotfound", "WorkGroup not found")
	}
	if err != nil {
		return fmt.Errorf("get work group: %w", err)
	}
	if err := authorizeIn(ctx, s.store, access.DeleteWorkGroup, p, id, uuid.Nil); err != nil {
		return err
	}
	if !group.Active {
		return apperror.BadRequest("workGroup", "alreadydeleted", "WorkGroup is already deleted")
	}

	group.Active = false
	if err := s.store.WorkGroups.Update(ctx, group); err != nil {
		return fmt.Errorf("update work group: %w", err)
	}

	logger.Info().Str("group_id", id.String()).Str("by", p.Login).Msg("work group deleted")
	return nil
}

func (s *WorkGroupService) Get(ctx context.Context, id uuid.UUID) (*model.WorkGroup, error) {
	if _, err := auth.CurrentUser(ctx); err != nil {
		return nil, err
	}
	return activeGroup(ctx, s.store, id)
}

func (s *WorkGroupService) ListActive(ctx context.Context) ([]model.WorkGroup, error) {
	if _, err := auth.CurrentUser(ctx); err != nil {
		return nil, err
	}
	groups, err := s.store.WorkGroups.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list work groups: %w", err)
	}
	return groups, nil
}

// ListMine returns the active groups the caller is in.
func (s *WorkGroupService) ListMine(ctx context.Context) ([]model.WorkGroup, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.WorkGroups.ListForUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list work groups: %w", err)
	}
	return groups, nil
}
