package service

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/access"
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/logger"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/google/uuid"
)

const membershipEntity = "workGroupMembership"

// MembershipService implements the OWNER / MODERATOR / MEMBER lifecycle of a
// work group. Exactly one in-group OWNER exists per group at all times; it
// only changes hands through TransferOwnership.
type MembershipService struct {
	store *repository.Store
}

func NewMembershipService(store *repository.Store) *MembershipService {
	return &MembershipService{store: store}
}

// AddMember puts username into the group as MEMBER, reusing a dormant row.
func (s *MembershipService) AddMember(ctx context.Context, groupID uuid.UUID, username string) (*model.WorkGroupMembership, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.AddMember, p, groupID, uuid.Nil); err != nil {
		return nil, err
	}
	user, err := userByLogin(ctx, s.store, username)
	if err != nil {
		return nil, err
	}

	var membership *model.WorkGroupMembership
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.Memberships.Find(ctx, groupID, user.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			membership = &model.WorkGroupMembership{
				UserID:      user.ID,
				WorkGroupID: groupID,
				Role:        model.RoleMember,
				InGroup:     true,
			}
			return tx.Memberships.Create(ctx, membership)
		case err != nil:
			return fmt.Errorf("find membership: %w", err)
		case existing.InGroup:
			return apperror.Conflict(membershipEntity, "alreadymember", "User already belongs to this WorkGroup")
		}

		existing.Role = model.RoleMember
		existing.InGroup = true
		membership = existing
		return tx.Memberships.Update(ctx, existing)
	})
	if err != nil {
		return nil, err
	}

	membership.User = *user
	logger.Info().
		Str("group_id", groupID.String()).
		Str("user", username).
		Str("by", p.Login).
		Msg("member added")
	return membership, nil
}

// RemoveMember takes username out of the group. The OWNER can never be
// removed, whoever asks.
func (s *MembershipService) RemoveMember(ctx context.Context, groupID uuid.UUID, username string) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return err
	}
	user, err := userByLogin(ctx, s.store, username)
	if err != nil {
		return err
	}
	target, err := s.store.Memberships.FindActive(ctx, groupID, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.BadRequest(membershipEntity, "membershipnotfound", "User is not a member of this WorkGroup")
	}
	if err != nil {
		return fmt.Errorf("find membership: %w", err)
	}
	if target.Role == model.RoleOwner {
		return apperror.BadRequest(membershipEntity, "cannotremoveowner", "The OWNER cannot be removed from the WorkGroup")
	}
	if err := authorizeIn(ctx, s.store, access.RemoveMember, p, groupID, uuid.Nil); err != nil {
		return err
	}

	target.InGroup = false
	if err := s.store.Memberships.Update(ctx, target); err != nil {
		return fmt.Errorf("update membership: %w", err)
	}

	logger.Info().
		Str("group_id", groupID.String()).
		Str("user", username).
		Str("by", p.Login).
		Msg("member removed")
	return nil
}

// LeaveGroup lets a plain MEMBER leave. OWNER and MODERATOR must first be
// demoted or hand over ownership.
func (s *MembershipService) LeaveGroup(ctx context.Context, groupID uuid.UUID) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return err
	}
	own, err := s.store.Memberships.FindActive(ctx, groupID, p.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(membershipEntity, "membershipnotfound", "You are not a member of this WorkGroup")
	}
	if err != nil {
		return fmt.Errorf("find membership: %w", err)
	}
	if err := access.Authorize(access.LeaveGroup, p, access.Resource{Role: own.Role}); err != nil {
		return err
	}

	own.InGroup = false
	if err := s.store.Memberships.Update(ctx, own); err != nil {
		return fmt.Errorf("update membership: %w", err)
	}

	logger.Info().Str("group_id", groupID.String()).Str("user", p.Login).Msg("member left")
	return nil
}

// PromoteToModerator raises an in-group MEMBER to MODERATOR. Promoting a
// MODERATOR is a no-op.
func (s *MembershipService) PromoteToModerator(ctx context.Context, groupID uuid.UUID, username string) (*model.WorkGroupMembership, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}

	var (
		user     *model.User
		target   *model.WorkGroupMembership
		promoted bool
	)
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := authorizeLocked(ctx, tx, access.PromoteModerator, p, groupID); err != nil {
			return err
		}
		var err error
		user, target, err = lockedTarget(ctx, tx, groupID, username)
		if err != nil {
			return err
		}
		switch target.Role {
		case model.RoleOwner:
			return apperror.Forbidden(membershipEntity, "cannotpromoteowner", "The OWNER cannot be made a MODERATOR")
		case model.RoleModerator:
			return nil
		}
		if err := tx.Memberships.SetRole(ctx, groupID, user.ID, target.Role, model.RoleModerator); err != nil {
			return fmt.Errorf("update membership: %w", err)
		}
		target.Role = model.RoleModerator
		promoted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if promoted {
		logger.Info().
			Str("group_id", groupID.String()).
			Str("user", username).
			Str("by", p.Login).
			Msg("member promoted to moderator")
	}
	target.User = *user
	return target, nil
}

// DemoteModerator turns a MODERATOR back into a MEMBER.
func (s *MembershipService) DemoteModerator(ctx context.Context, groupID uuid.UUID, username string) (*model.WorkGroupMembership, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}

	var (
		user   *model.User
		target *model.WorkGroupMembership
	)
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := authorizeLocked(ctx, tx, access.DemoteModerator, p, groupID); err != nil {
			return err
		}
		var err error
		user, target, err = lockedTarget(ctx, tx, groupID, username)
		if err != nil {
			return err
		}
		if target.Role != model.RoleModerator {
			return apperror.BadRequest(membershipEntity, "notmoderator", "User is not a MODERATOR")
		}
		if err := tx.Memberships.SetRole(ctx, groupID, user.ID, model.RoleModerator, model.RoleMember); err != nil {
			return fmt.Errorf("update membership: %w", err)
		}
		target.Role = model.RoleMember
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("group_id", groupID.String()).
		Str("user", username).
		Str("by", p.Login).
		Msg("moderator demoted")
	target.User = *user
	return target, nil
}

// TransferOwnership makes username the OWNER; the previous OWNER stays in the
// group as MODERATOR. The caller's and the target's rows are locked and
// re-checked inside the transaction that rewrites them.
func (s *MembershipService) TransferOwnership(ctx context.Context, groupID uuid.UUID, username string) error {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if _, err := activeGroup(ctx, s.store, groupID); err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := authorizeLocked(ctx, tx, access.TransferOwnership, p, groupID); err != nil {
			return err
		}
		user, target, err := lockedTarget(ctx, tx, groupID, username)
		if err != nil {
			return err
		}
		if user.ID == p.UserID {
			return apperror.BadRequest(membershipEntity, "alreadyowner", "You already own this WorkGroup")
		}
		// Both updates are conditional on the role just read, so a row that
		// changed underneath fails the transfer instead of minting a second OWNER.
		if err := tx.Memberships.SetRole(ctx, groupID, p.UserID, model.RoleOwner, model.RoleModerator); err != nil {
			return fmt.Errorf("demote owner: %w", err)
		}
		if err := tx.Memberships.SetRole(ctx, groupID, user.ID, target.Role, model.RoleOwner); err != nil {
			return fmt.Errorf("promote new owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("group_id", groupID.String()).
		Str("from", p.Login).
		Str("to", username).
		Msg("ownership transferred")
	return nil
}

// ListMembers returns the in-group memberships of a group with their users.
func (s *MembershipService) ListMembers(ctx context.Context, groupID uuid.UUID) ([]model.WorkGroupMembership, error) {
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
	members, err := s.store.Memberships.ListActive(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// authorizeLocked is authorizeIn against the caller's locked membership row.
func authorizeLocked(ctx context.Context, tx *repository.Store, op access.Operation, p auth.Principal, groupID uuid.UUID) error {
	var role model.GroupRole
	own, err := tx.Memberships.FindActiveForUpdate(ctx, groupID, p.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return fmt.Errorf("find membership: %w", err)
	default:
		role = own.Role
	}
	return access.Authorize(op, p, access.Resource{Role: role})
}

// lockedTarget resolves username to an in-group membership and locks it.
func lockedTarget(ctx context.Context, tx *repository.Store, groupID uuid.UUID, username string) (*model.User, *model.WorkGroupMembership, error) {
	user, err := userByLogin(ctx, tx, username)
	if err != nil {
		return nil, nil, err
	}
	target, err := tx.Memberships.FindActiveForUpdate(ctx, groupID, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperror.NotFound(membershipEntity, "membershipnotfound", "User is not a member of this WorkGroup")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find membership: %w", err)
	}
	return user, target, nil
}
