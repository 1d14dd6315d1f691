package service_test

import (
	"context"
	"testing"

	"taskmanager/internal/apperror"
	"taskmanager/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMembership_OwnerModeratorScenario(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	bob, ctxB := f.user("bob")

	g := f.group(ctxA, "G")
	assert.Equal(t, int64(1), f.ownerCount(g.ID))

	_, err := f.members.PromoteToModerator(ctxA, g.ID, "bob")
	requireKind(t, err, apperror.KindNotFound, "")

	m, err := f.members.AddMember(ctxA, g.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, m.Role)
	assert.True(t, m.InGroup)

	m, err = f.members.PromoteToModerator(ctxA, g.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, m.Role)
	assert.Equal(t, bob.ID, m.UserID)

	err = f.members.RemoveMember(ctxB, g.ID, "alice")
	requireKind(t, err, apperror.KindBadRequest, "workGroupMembership/cannotremoveowner")
	assert.Equal(t, int64(1), f.ownerCount(g.ID))
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	bob, ctxB := f.user("bob")
	f.user("carol")
	g := f.group(ctxA, "G")

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.members.AddMember(ctxA, g.ID, "nobody")
		requireKind(t, err, apperror.KindNotFound, "user/loginnotfound")
	})

	t.Run("plain member cannot add", func(t *testing.T) {
		f.addMember(ctxA, g.ID, "bob")
		_, err := f.members.AddMember(ctxB, g.ID, "carol")
		requireKind(t, err, apperror.KindForbidden, "")
	})

	t.Run("already member", func(t *testing.T) {
		_, err := f.members.AddMember(ctxA, g.ID, "bob")
		requireKind(t, err, apperror.KindConflict, "workGroupMembership/alreadymember")
	})

	t.Run("rejoin reuses the row as MEMBER", func(t *testing.T) {
		before := f.membership(g.ID, bob.ID)
		_, err := f.members.PromoteToModerator(ctxA, g.ID, "bob")
		require.NoError(t, err)
		_, err = f.members.DemoteModerator(ctxA, g.ID, "bob")
		require.NoError(t, err)
		require.NoError(t, f.members.LeaveGroup(ctxB, g.ID))
		assert.False(t, f.membership(g.ID, bob.ID).InGroup)

		m, err := f.members.AddMember(ctxA, g.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, before.ID, m.ID)
		assert.Equal(t, model.RoleMember, m.Role)
		assert.True(t, f.membership(g.ID, bob.ID).InGroup)
	})

	t.Run("unknown group", func(t *testing.T) {
		g2 := f.group(ctxA, "G2")
		require.NoError(t, f.groups.Delete(ctxA, g2.ID))
		_, err := f.members.AddMember(ctxA, g2.ID, "carol")
		requireKind(t, err, apperror.KindNotFound, "workGroup/idnotfound")
	})
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	alice, ctxA := f.user("alice")
	bob, ctxB := f.user("bob")
	_, ctxC := f.user("carol")
	_, ctxD := f.user("dave")
	g := f.group(ctxA, "G")
	f.addMember(ctxA, g.ID, "bob")
	f.addMember(ctxA, g.ID, "carol")
	_, err := f.members.PromoteToModerator(ctxA, g.ID, "bob")
	require.NoError(t, err)

	t.Run("owner cannot be removed by anyone", func(t *testing.T) {
		for _, ctx := range []context.Context{ctxA, ctxB, ctxC, ctxD} {
			err := f.members.RemoveMember(ctx, g.ID, "alice")
			requireKind(t, err, apperror.KindBadRequest, "workGroupMembership/cannotremoveowner")
		}
		assert.True(t, f.membership(g.ID, alice.ID).InGroup)
	})

	t.Run("non member target", func(t *testing.T) {
		err := f.members.RemoveMember(ctxA, g.ID, "dave")
		requireKind(t, err, apperror.KindBadRequest, "workGroupMembership/membershipnotfound")
	})

	t.Run("plain member cannot remove", func(t *testing.T) {
		err := f.members.RemoveMember(ctxC, g.ID, "bob")
		requireKind(t, err, apperror.KindForbidden, "")
	})

	t.Run("moderator removes member and the row is kept", func(t *testing.T) {
		require.NoError(t, f.members.RemoveMember(ctxB, g.ID, "carol"))
		members, err := f.members.ListMembers(ctxA, g.ID)
		require.NoError(t, err)
		assert.Len(t, members, 2)
		_, err = f.store.Memberships.Find(context.Background(), g.ID, bob.ID)
		assert.NoError(t, err)
	})
}

func TestLeaveGroup(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	_, ctxB := f.user("bob")
	carol, ctxC := f.user("carol")
	_, ctxD := f.user("dave")
	g := f.group(ctxA, "G")
	f.addMember(ctxA, g.ID, "bob")
	f.addMember(ctxA, g.ID, "carol")
	_, err := f.members.PromoteToModerator(ctxA, g.ID, "bob")
	require.NoError(t, err)

	requireKind(t, f.members.LeaveGroup(ctxA, g.ID), apperror.KindForbidden, "")
	requireKind(t, f.members.LeaveGroup(ctxB, g.ID), apperror.KindForbidden, "")
	requireKind(t, f.members.LeaveGroup(ctxD, g.ID), apperror.KindNotFound, "")

	require.NoError(t, f.members.LeaveGroup(ctxC, g.ID))
	assert.False(t, f.membership(g.ID, carol.ID).InGroup)
	requireKind(t, f.members.LeaveGroup(ctxC, g.ID), apperror.KindNotFound, "")
}

func TestPromoteAndDemote(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	_, ctxB := f.user("bob")
	_, ctxC := f.user("carol")
	g := f.group(ctxA, "G")
	f.addMember(ctxA, g.ID, "bob")
	f.addMember(ctxA, g.ID, "carol")

	_, err := f.members.DemoteModerator(ctxA, g.ID, "bob")
	requireKind(t, err, apperror.KindBadRequest, "workGroupMembership/notmoderator")

	_, err = f.members.PromoteToModerator(ctxC, g.ID, "bob")
	requireKind(t, err, apperror.KindForbidden, "")

	_, err = f.members.PromoteToModerator(ctxA, g.ID, "bob")
	require.NoError(t, err)

	// a moderator may promote, but never the owner
	_, err = f.members.PromoteToModerator(ctxB, g.ID, "alice")
	requireKind(t, err, apperror.KindForbidden, "workGroupMembership/cannotpromoteowner")
	m, err := f.members.PromoteToModerator(ctxB, g.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, m.Role)

	// only the owner demotes
	_, err = f.members.DemoteModerator(ctxB, g.ID, "carol")
	requireKind(t, err, apperror.KindForbidden, "")
	m, err = f.members.DemoteModerator(ctxA, g.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, m.Role)
	assert.Equal(t, int64(1), f.ownerCount(g.ID))
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	alice, ctxA := f.user("alice")
	bob, ctxB := f.user("bob")
	f.user("carol")
	g := f.group(ctxA, "G")
	f.addMember(ctxA, g.ID, "bob")

	requireKind(t, f.members.TransferOwnership(ctxB, g.ID, "bob"), apperror.KindForbidden, "")
	requireKind(t, f.members.TransferOwnership(ctxA, g.ID, "alice"), apperror.KindBadRequest, "workGroupMembership/alreadyowner")
	requireKind(t, f.members.TransferOwnership(ctxA, g.ID, "carol"), apperror.KindNotFound, "")

	require.NoError(t, f.members.TransferOwnership(ctxA, g.ID, "bob"))
	assert.Equal(t, model.RoleModerator, f.membership(g.ID, alice.ID).Role)
	assert.Equal(t, model.RoleOwner, f.membership(g.ID, bob.ID).Role)
	assert.Equal(t, int64(1), f.ownerCount(g.ID))

	// the previous owner is now a moderator and may leave only after demotion
	requireKind(t, f.members.LeaveGroup(ctxA, g.ID), apperror.KindForbidden, "")
	_, err := f.members.DemoteModerator(ctxB, g.ID, "alice")
	require.NoError(t, err)
	require.NoError(t, f.members.LeaveGroup(ctxA, g.ID))
}

func TestTransferOwnership_ChecksRunInTransaction(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	bob, ctxB := f.user("bob")
	g := f.group(ctxA, "G")
	f.addMember(ctxA, g.ID, "bob")
	log := f.recordStatements()

	log.reset()
	requireKind(t, f.members.TransferOwnership(ctxB, g.ID, "bob"), apperror.KindForbidden, "")
	requireAllInTx(t, log, "work_group_memberships")

	log.reset()
	require.NoError(t, f.members.TransferOwnership(ctxA, g.ID, "bob"))
	// caller lookup, target lookup, demotion and promotion
	assert.Len(t, log.on("work_group_memberships"), 4)
	requireAllInTx(t, log, "work_group_memberships")
	assert.Equal(t, model.RoleOwner, f.membership(g.ID, bob.ID).Role)

	log.reset()
	_, err := f.members.DemoteModerator(ctxB, g.ID, "alice")
	require.NoError(t, err)
	requireAllInTx(t, log, "work_group_memberships")
	assert.Equal(t, int64(1), f.ownerCount(g.ID))
}

func TestListMembers_RequiresMembership(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	_, ctxB := f.user("bob")
	g := f.group(ctxA, "G")

	_, err := f.members.ListMembers(ctxB, g.ID)
	requireKind(t, err, apperror.KindForbidden, "workGroup/notmember")

	members, err := f.members.ListMembers(ctxA, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].User.Login)
	assert.Equal(t, model.RoleOwner, members[0].Role)
}

// Any sequence of membership operations keeps exactly one in-group OWNER,
// never lets the OWNER be removed and never lets OWNER or MODERATOR leave.
func TestMembership_SingleOwnerProperty(t *testing.T) {
	logins := []string{"u0", "u1", "u2", "u3"}
	ops := []string{"add", "remove", "leave", "promote", "demote", "transfer"}

	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		f.t = rt

		ctxs := make(map[string]context.Context, len(logins))
		ids := make(map[string]uuid.UUID, len(logins))
		for _, login := range logins {
			u, ctx := f.user(login)
			ctxs[login] = ctx
			ids[login] = u.ID
		}
		g := f.group(ctxs["u0"], "G")

		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.SampledFrom(ops).Draw(rt, "op")
			caller := rapid.SampledFrom(logins).Draw(rt, "caller")
			target := rapid.SampledFrom(logins).Draw(rt, "target")
			ctx := ctxs[caller]

			targetRole := roleOf(f, g.ID, ids[target])
			callerRole := roleOf(f, g.ID, ids[caller])

			var err error
			switch op {
			case "add":
				_, err = f.members.AddMember(ctx, g.ID, target)
			case "remove":
				err = f.members.RemoveMember(ctx, g.ID, target)
				if targetRole == model.RoleOwner {
					requireKind(rt, err, apperror.KindBadRequest, "workGroupMembership/cannotremoveowner")
				}
			case "leave":
				err = f.members.LeaveGroup(ctx, g.ID)
				if callerRole == model.RoleOwner || callerRole == model.RoleModerator {
					requireKind(rt, err, apperror.KindForbidden, "")
				}
			case "promote":
				_, err = f.members.PromoteToModerator(ctx, g.ID, target)
			case "demote":
				_, err = f.members.DemoteModerator(ctx, g.ID, target)
			case "transfer":
				err = f.members.TransferOwnership(ctx, g.ID, target)
			}
			if err != nil {
				_, ok := apperror.As(err)
				require.True(rt, ok, "untyped failure from %s: %v", op, err)
			}

			require.Equal(rt, int64(1), f.ownerCount(g.ID), "after %s by %s on %s", op, caller, target)
		}
	})
}

func roleOf(f *fixture, groupID, userID uuid.UUID) model.GroupRole {
	m, err := f.store.Memberships.FindActive(context.Background(), groupID, userID)
	if err != nil {
		return ""
	}
	return m.Role
}
