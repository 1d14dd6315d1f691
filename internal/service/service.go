// Package service holds the rule engines: membership, work-group, project and
// task lifecycles plus reference data and comments. Every operation resolves
// its caller from the context, checks it through package access and persists
// through a repository.Store.
package service

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/access"
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/google/uuid"
)

// roleIn returns the user's in-group role, or "" when the user is not in the
// group.
func roleIn(ctx context.Context, store *repository.Store, groupID, userID uuid.UUID) (model.GroupRole, error) {
	m, err := store.Memberships.FindActive(ctx, groupID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find membership: %w", err)
	}
	return m.Role, nil
}

// authorizeIn checks op for the caller against the caller's role in groupID.
func authorizeIn(ctx context.Context, store *repository.Store, op access.Operation, p auth.Principal, groupID, creatorID uuid.UUID) error {
	role, err := roleIn(ctx, store, groupID, p.UserID)
	if err != nil {
		return err
	}
	return access.Authorize(op, p, access.Resource{Role: role, CreatorID: creatorID})
}

func activeGroup(ctx context.Context, store *repository.Store, id uuid.UUID) (*model.WorkGroup, error) {
	group, err := store.WorkGroups.GetActive(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("workGroup", "idnotfound", "WorkGroup not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get work group: %w", err)
	}
	return group, nil
}

func activeProject(ctx context.Context, store *repository.Store, id uuid.UUID) (*model.Project, error) {
	project, err := store.Projects.GetActive(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("project", "idnotfound", "Project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

func activeTask(ctx context.Context, store *repository.Store, id uuid.UUID) (*model.Task, error) {
	task, err := store.Tasks.GetActive(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("task", "idnotfound", "Task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func userByLogin(ctx context.Context, store *repository.Store, login string) (*model.User, error) {
	user, err := store.Users.FindByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("user", "loginnotfound", fmt.Sprintf("User %s not found", login))
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// checkCandidates verifies that every id is an in-group member of groupID and
// resolves to a user. entity names the aggregate being assigned to.
func checkCandidates(ctx context.Context, store *repository.Store, entity string, groupID uuid.UUID, ids []uuid.UUID) error {
	inGroup, err := store.Memberships.ActiveUserIDs(ctx, groupID, ids)
	if err != nil {
		return fmt.Errorf("list group members: %w", err)
	}
	members := idSet(inGroup)
	for _, id := range ids {
		if _, ok := members[id]; !ok {
			return apperror.BadRequest(entity, "usernotingroup",
				fmt.Sprintf("User %s is not a member of the WorkGroup", id))
		}
	}

	users, err := store.Users.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("get users: %w", err)
	}
	found := make(map[uuid.UUID]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return apperror.BadRequest("user", "idnotfound", fmt.Sprintf("User %s not found", id))
		}
	}
	return nil
}

// stringOr returns *s, or def when the field was left out of the request.
func stringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
