package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskmanager/internal/access"
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/google/uuid"
)

type StatusRequest struct {
	Name string `json:"name" binding:"required"`
}

// StatusService manages group-scoped statuses. Global statuses are seeded
// and read-only here.
type StatusService struct {
	store *repository.Store
}

func NewStatusService(store *repository.Store) *StatusService {
	return &StatusService{store: store}
}

func (s *StatusService) Create(ctx context.Context, groupID uuid.UUID, req StatusRequest) (*model.Status, error) {
	if err := s.authorize(ctx, groupID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.BadRequest("status", "nameempty", "Status name is required")
	}

	status := &model.Status{Name: name, WorkGroupID: &groupID}
	if err := s.store.Statuses.Create(ctx, status); err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	return status, nil
}

func (s *StatusService) Update(ctx context.Context, groupID, id uuid.UUID, req StatusRequest) (*model.Status, error) {
	if err := s.authorize(ctx, groupID); err != nil {
		return nil, err
	}
	status, err := s.groupStatus(ctx, groupID, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.BadRequest("status", "nameempty", "Status name is required")
	}

	status.Name = name
	if err := s.store.Statuses.Update(ctx, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return status, nil
}

// Delete removes a group status no task refers to.
func (s *StatusService) Delete(ctx context.Context, groupID, id uuid.UUID) error {
	if err := s.authorize(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.groupStatus(ctx, groupID, id); err != nil {
		return err
	}
	n, err := s.store.Tasks.CountByStatus(ctx, id)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if n > 0 {
		return apperror.BadRequest("status", "inuse", "Status is used by existing tasks")
	}
	if err := s.store.Statuses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return nil
}

// List returns the global statuses followed by the group's own.
func (s *StatusService) List(ctx context.Context, groupID uuid.UUID) ([]model.Status, error) {
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
	return s.store.Statuses.ListForGroup(ctx, groupID)
}

func (s *StatusService) authorize(ctx context.Context, groupID uuid.UUID) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return err
	}
	return authorizeIn(ctx, s.store, access.ManageStatus, p, groupID, uuid.Nil)
}

func (s *StatusService) groupStatus(ctx context.Context, groupID, id uuid.UUID) (*model.Status, error) {
	status, err := s.store.Statuses.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("status", "idnotfound", "Status not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if status.WorkGroupID == nil || *status.WorkGroupID != groupID {
		return nil, apperror.Forbidden("status", "notingroup", "Only statuses of this WorkGroup can be changed")
	}
	return status, nil
}
