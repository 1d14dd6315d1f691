// Package access is the single capability check shared by the rule engines.
//
// Every guarded operation is described by a Rule: the group roles that may
// perform it and whether the resource's creator may perform it regardless of
// role. Authorize evaluates a rule against the caller and the resource.
package access

import (
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/model"

	"github.com/google/uuid"
)

type Operation string

const (
	UpdateWorkGroup   Operation = "workGroup.update"
	DeleteWorkGroup   Operation = "workGroup.delete"
	ViewWorkGroup     Operation = "workGroup.view"
	AddMember         Operation = "membership.add"
	RemoveMember      Operation = "membership.remove"
	PromoteModerator  Operation = "membership.promote"
	DemoteModerator   Operation = "membership.demote"
	TransferOwnership Operation = "membership.transfer"
	LeaveGroup        Operation = "membership.leave"

	CreateProject        Operation = "project.create"
	UpdateProject        Operation = "project.update"
	DeleteProject        Operation = "project.delete"
	ManageProjectMembers Operation = "project.members"

	CreateTask         Operation = "task.create"
	UpdateTask         Operation = "task.update"
	DeleteTask         Operation = "task.delete"
	DeleteArchivedTask Operation = "task.deleteArchived"
	ArchiveTask        Operation = "task.archive"
	UnarchiveTask      Operation = "task.unarchive"
	AssignTask         Operation = "task.assign"
	CommentTask        Operation = "task.comment"

	ManageStatus   Operation = "status.manage"
	ManagePriority Operation = "priority.manage"
)

// RoleSet is a set of group roles.
type RoleSet map[model.GroupRole]struct{}

func Roles(roles ...model.GroupRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(r model.GroupRole) bool {
	_, ok := s[r]
	return ok
}

var (
	anyMember       = Roles(model.RoleOwner, model.RoleModerator, model.RoleMember)
	ownerOrMod      = Roles(model.RoleOwner, model.RoleModerator)
	ownerOnly       = Roles(model.RoleOwner)
	plainMemberOnly = Roles(model.RoleMember)
	noRoles         = Roles()
)

type Rule struct {
	Roles   RoleSet
	Creator bool // the resource creator passes regardless of role
	Admin   bool // only system administrators pass
	Entity  string
	Message string
}

var policy = map[Operation]Rule{
	UpdateWorkGroup:   {Roles: ownerOnly, Entity: "workGroup", Message: "Only the OWNER can update the WorkGroup."},
	DeleteWorkGroup:   {Roles: ownerOnly, Entity: "workGroup", Message: "Only the OWNER can delete the WorkGroup."},
	ViewWorkGroup:     {Roles: anyMember, Entity: "workGroup", Message: "You are not a member of this group."},
	AddMember:         {Roles: ownerOrMod, Entity: "workGroupMembership", Message: "Only OWNER or MODERATOR can add members."},
	RemoveMember:      {Roles: ownerOrMod, Entity: "workGroupMembership", Message: "Only OWNER or MODERATOR can remove members."},
	PromoteModerator:  {Roles: ownerOrMod, Entity: "workGroupMembership", Message: "Only the OWNER or MODERATOR can promote to moderator."},
	DemoteModerator:   {Roles: ownerOnly, Entity: "workGroupMembership", Message: "Only the OWNER can remove moderators."},
	TransferOwnership: {Roles: ownerOnly, Entity: "workGroupMembership", Message: "Only the OWNER can transfer ownership."},
	LeaveGroup:        {Roles: plainMemberOnly, Entity: "workGroupMembership", Message: "Only MEMBERS can leave the group themselves."},

	CreateProject:        {Roles: anyMember, Entity: "project", Message: "Only group members can create projects."},
	UpdateProject:        {Roles: noRoles, Creator: true, Entity: "project", Message: "Only the creator can update this project."},
	DeleteProject:        {Roles: noRoles, Creator: true, Entity: "project", Message: "Only the creator can delete this project."},
	ManageProjectMembers: {Roles: ownerOrMod, Creator: true, Entity: "project", Message: "Only the creator, OWNER or MODERATOR can manage project members."},

	CreateTask:         {Roles: anyMember, Entity: "task", Message: "Only group members can create tasks."},
	UpdateTask:         {Roles: noRoles, Creator: true, Entity: "task", Message: "Only the creator of the task can update it"},
	DeleteTask:         {Roles: noRoles, Creator: true, Entity: "task", Message: "Only the creator of the task can delete it"},
	DeleteArchivedTask: {Roles: ownerOrMod, Entity: "task", Message: "Only OWNER or MODERATOR can delete archived tasks."},
	ArchiveTask:        {Roles: anyMember, Entity: "task", Message: "Only group members can archive tasks."},
	UnarchiveTask:      {Roles: ownerOrMod, Entity: "task", Message: "Only OWNER or MODERATOR can unarchive tasks."},
	AssignTask:         {Roles: anyMember, Entity: "task", Message: "Only group members can change task assignees."},
	CommentTask:        {Roles: anyMember, Entity: "comment", Message: "Only group members can comment on tasks."},

	ManageStatus:   {Roles: ownerOrMod, Entity: "status", Message: "Only OWNER or MODERATOR can manage statuses."},
	ManagePriority: {Roles: noRoles, Admin: true, Entity: "priority", Message: "Only admins can manage priorities."},
}

// Resource describes what the caller acts on. Role is the caller's in-group
// role in the resource's group, empty when the caller is not a member.
type Resource struct {
	Role      model.GroupRole
	CreatorID uuid.UUID
}

// RuleFor returns the rule registered for op.
func RuleFor(op Operation) (Rule, bool) {
	r, ok := policy[op]
	return r, ok
}

// Authorize returns nil when p may perform op on res, otherwise a Forbidden
// failure. Unknown operations are always denied.
func Authorize(op Operation, p auth.Principal, res Resource) error {
	rule, ok := policy[op]
	if !ok {
		return apperror.Forbidden("access", "unknownoperation", "Operation is not permitted.")
	}

	if rule.Admin {
		if p.Admin {
			return nil
		}
		return apperror.Forbidden(rule.Entity, "adminrequired", rule.Message)
	}

	if rule.Creator && res.CreatorID != uuid.Nil && res.CreatorID == p.UserID {
		return nil
	}
	if res.Role != "" && rule.Roles.Has(res.Role) {
		return nil
	}

	key := "insufficientrole"
	switch {
	case res.Role == "" && !rule.Creator:
		key = "notmember"
	case rule.Creator && len(rule.Roles) == 0:
		key = "notcreator"
	}
	return apperror.Forbidden(rule.Entity, key, rule.Message)
}
