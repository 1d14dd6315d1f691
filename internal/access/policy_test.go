package access_test

import (
	"errors"
	"testing"

	"taskmanager/internal/access"
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var allOperations = []access.Operation{
	access.UpdateWorkGroup, access.DeleteWorkGroup, access.ViewWorkGroup,
	access.AddMember, access.RemoveMember, access.PromoteModerator,
	access.DemoteModerator, access.TransferOwnership, access.LeaveGroup,
	access.CreateProject, access.UpdateProject, access.DeleteProject,
	access.ManageProjectMembers, access.CreateTask, access.UpdateTask,
	access.DeleteTask, access.DeleteArchivedTask, access.ArchiveTask,
	access.UnarchiveTask, access.AssignTask, access.CommentTask,
	access.ManageStatus, access.ManagePriority,
}

var allRoles = []model.GroupRole{"", model.RoleOwner, model.RoleModerator, model.RoleMember}

func TestAuthorize_RoleMatrix(t *testing.T) {
	tests := []struct {
		op      access.Operation
		allowed []model.GroupRole
	}{
		{access.AddMember, []model.GroupRole{model.RoleOwner, model.RoleModerator}},
		{access.RemoveMember, []model.GroupRole{model.RoleOwner, model.RoleModerator}},
		{access.PromoteModerator, []model.GroupRole{model.RoleOwner, model.RoleModerator}},
		{access.DemoteModerator, []model.GroupRole{model.RoleOwner}},
		{access.TransferOwnership, []model.GroupRole{model.RoleOwner}},
		{access.LeaveGroup, []model.GroupRole{model.RoleMember}},
		{access.UnarchiveTask, []model.GroupRole{model.RoleOwner, model.RoleModerator}},
		{access.DeleteArchivedTask, []model.GroupRole{model.RoleOwner, model.RoleModerator}},
		{access.CreateTask, []model.GroupRole{model.RoleOwner, model.RoleModerator, model.RoleMember}},
		{access.UpdateWorkGroup, []model.GroupRole{model.RoleOwner}},
	}

	caller := auth.Principal{UserID: uuid.New(), Login: "caller"}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			allowed := access.Roles(tt.allowed...)
			for _, role := range allRoles {
				err := access.Authorize(tt.op, caller, access.Resource{Role: role})
				if allowed.Has(role) {
					assert.NoError(t, err, "role %q", role)
				} else {
					assert.True(t, errors.Is(err, apperror.ErrForbidden), "role %q", role)
				}
			}
		})
	}
}

func TestAuthorize_CreatorRules(t *testing.T) {
	creator := auth.Principal{UserID: uuid.New(), Login: "creator"}
	other := auth.Principal{UserID: uuid.New(), Login: "other"}
	res := access.Resource{Role: model.RoleOwner, CreatorID: creator.UserID}

	assert.NoError(t, access.Authorize(access.UpdateTask, creator, res))

	// The group owner is not the creator: creator-only rules still deny.
	err := access.Authorize(access.UpdateTask, other, res)
	appErr, ok := apperror.As(err)
	if assert.True(t, ok) {
		assert.Equal(t, "task/notcreator", appErr.Code())
	}

	// Project member management accepts either the creator or a privileged role.
	assert.NoError(t, access.Authorize(access.ManageProjectMembers, creator, access.Resource{Role: model.RoleMember, CreatorID: creator.UserID}))
	assert.NoError(t, access.Authorize(access.ManageProjectMembers, other, access.Resource{Role: model.RoleModerator, CreatorID: creator.UserID}))
	assert.Error(t, access.Authorize(access.ManageProjectMembers, other, access.Resource{Role: model.RoleMember, CreatorID: creator.UserID}))
}

func TestAuthorize_AdminRule(t *testing.T) {
	admin := auth.Principal{UserID: uuid.New(), Login: "admin", Admin: true}
	user := auth.Principal{UserID: uuid.New(), Login: "user"}

	assert.NoError(t, access.Authorize(access.ManagePriority, admin, access.Resource{}))

	err := access.Authorize(access.ManagePriority, user, access.Resource{Role: model.RoleOwner})
	appErr, ok := apperror.As(err)
	if assert.True(t, ok) {
		assert.Equal(t, "priority/adminrequired", appErr.Code())
	}
}

func TestAuthorize_NonMemberKey(t *testing.T) {
	err := access.Authorize(access.AddMember, auth.Principal{UserID: uuid.New()}, access.Resource{})
	appErr, ok := apperror.As(err)
	if assert.True(t, ok) {
		assert.Equal(t, "workGroupMembership/notmember", appErr.Code())
	}
}

func TestAuthorize_UnknownOperationDenied(t *testing.T) {
	err := access.Authorize("nope", auth.Principal{UserID: uuid.New(), Admin: true}, access.Resource{Role: model.RoleOwner})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

// Authorization outcome depends only on the rule: a caller passes iff it is an
// admin on an admin rule, the creator on a creator rule, or holds a listed role.
func TestAuthorize_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		op := rapid.SampledFrom(allOperations).Draw(t, "op")
		role := rapid.SampledFrom(allRoles).Draw(t, "role")
		isCreator := rapid.Bool().Draw(t, "isCreator")
		isAdmin := rapid.Bool().Draw(t, "isAdmin")

		caller := auth.Principal{UserID: uuid.New(), Login: "p", Admin: isAdmin}
		res := access.Resource{Role: role, CreatorID: uuid.New()}
		if isCreator {
			res.CreatorID = caller.UserID
		}

		rule, ok := access.RuleFor(op)
		if !ok {
			t.Fatalf("no rule for %s", op)
		}

		var want bool
		if rule.Admin {
			want = isAdmin
		} else {
			want = (rule.Creator && isCreator) || (role != "" && rule.Roles.Has(role))
		}

		err := access.Authorize(op, caller, res)
		if want && err != nil {
			t.Fatalf("%s role=%q creator=%v: unexpected denial %v", op, role, isCreator, err)
		}
		if !want && !errors.Is(err, apperror.ErrForbidden) {
			t.Fatalf("%s role=%q creator=%v: expected Forbidden, got %v", op, role, isCreator, err)
		}
	})
}
