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

type PriorityRequest struct {
	Name string `json:"name" binding:"required"`
}

// PriorityService manages the global priority list. Every write is
// admin-only.
type PriorityService struct {
	store *repository.Store
}

func NewPriorityService(store *repository.Store) *PriorityService {
	return &PriorityService{store: store}
}

func (s *PriorityService) Create(ctx context.Context, req PriorityRequest) (*model.Priority, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	name, err := s.checkName(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	priority := &model.Priority{Name: name}
	if err := s.store.Priorities.Create(ctx, priority); err != nil {
		return nil, fmt.Errorf("create priority: %w", err)
	}
	return priority, nil
}

func (s *PriorityService) Update(ctx context.Context, id uuid.UUID, req PriorityRequest) (*model.Priority, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	priority, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err := s.checkName(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}

	priority.Name = name
	if err := s.store.Priorities.Update(ctx, priority); err != nil {
		return nil, fmt.Errorf("update priority: %w", err)
	}
	return priority, nil
}

// Delete removes a priority no task refers to. Hide it otherwise.
func (s *PriorityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	n, err := s.store.Priorities.CountTasks(ctx, id)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if n > 0 {
		return apperror.BadRequest("priority", "inuse", "Priority is used by existing tasks")
	}
	if err := s.store.Priorities.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete priority: %w", err)
	}
	return nil
}

// Hide stops the priority from being picked for new tasks.
func (s *PriorityService) Hide(ctx context.Context, id uuid.UUID) (*model.Priority, error) {
	return s.setHidden(ctx, id, true)
}

func (s *PriorityService) Unhide(ctx context.Context, id uuid.UUID) (*model.Priority, error) {
	return s.setHidden(ctx, id, false)
}

func (s *PriorityService) setHidden(ctx context.Context, id uuid.UUID, hidden bool) (*model.Priority, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	priority, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if priority.Hidden == hidden {
		if hidden {
			return nil, apperror.BadRequest("priority", "alreadyhidden", "Priority is already hidden")
		}
		return nil, apperror.BadRequest("priority", "nothidden", "Priority is not hidden")
	}

	priority.Hidden = hidden
	if err := s.store.Priorities.Update(ctx, priority); err != nil {
		return nil, fmt.Errorf("update priority: %w", err)
	}
	logger.Info().Str("priority", priority.Name).Bool("hidden", hidden).Msg("priority visibility changed")
	return priority, nil
}

// List returns visible priorities. Hidden ones are included only for admins
// that ask for them.
func (s *PriorityService) List(ctx context.Context, includeHidden bool) ([]model.Priority, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Priorities.List(ctx, includeHidden && p.Admin)
}

func (s *PriorityService) authorize(ctx context.Context) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return access.Authorize(access.ManagePriority, p, access.Resource{})
}

func (s *PriorityService) get(ctx context.Context, id uuid.UUID) (*model.Priority, error) {
	priority, err := s.store.Priorities.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("priority", "idnotfound", "Priority not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get priority: %w", err)
	}
	return priority, nil
}

// checkName trims name and fails when another priority already uses it.
func (s *PriorityService) checkName(ctx context.Context, name string, self uuid.UUID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.BadRequest("priority", "nameempty", "Priority name is required")
	}
	existing, err := s.store.Priorities.FindByName(ctx, name)
	if err == nil && existing.ID != self {
		return "", apperror.Conflict("priority", "nameexists", fmt.Sprintf("Priority %s already exists", name))
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("find priority: %w", err)
	}
	return name, nil
}
