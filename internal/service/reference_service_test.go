package service_test

import (
	"context"
	"testing"

	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/model"
	"taskmanager/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatuses(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	_, ctxB := f.user("bob")
	g := f.group(ctxA, "G")
	f.addMember(ctxA, g.ID, "bob")
	p := f.project(ctxA, g.ID, "P")

	_, err := f.statuses.Create(ctxB, g.ID, service.StatusRequest{Name: "REVIEW"})
	requireKind(t, err, apperror.KindForbidden, "status/insufficientrole")

	review, err := f.statuses.Create(ctxA, g.ID, service.StatusRequest{Name: "REVIEW"})
	require.NoError(t, err)
	require.NotNil(t, review.WorkGroupID)

	statuses, err := f.statuses.List(ctxB, g.ID)
	require.NoError(t, err)
	assert.Len(t, statuses, len(model.DefaultStatuses)+1)

	_, err = f.statuses.Update(ctxA, g.ID, f.statusID("TODO"), service.StatusRequest{Name: "LATER"})
	requireKind(t, err, apperror.KindForbidden, "status/notingroup")

	renamed, err := f.statuses.Update(ctxA, g.ID, review.ID, service.StatusRequest{Name: "IN_REVIEW"})
	require.NoError(t, err)
	assert.Equal(t, "IN_REVIEW", renamed.Name)

	req := f.taskRequest("T", "TODO")
	req.StatusID = review.ID
	_, err = f.tasks.CreateTask(ctxA, g.ID, p.ID, req)
	require.NoError(t, err)

	requireKind(t, f.statuses.Delete(ctxA, g.ID, review.ID), apperror.KindBadRequest, "status/inuse")

	unused, err := f.statuses.Create(ctxA, g.ID, service.StatusRequest{Name: "UNUSED"})
	require.NoError(t, err)
	require.NoError(t, f.statuses.Delete(ctxA, g.ID, unused.ID))
}

func TestPriorities(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	_, ctxAdmin := f.admin("root")

	_, err := f.priorities.Create(ctxA, service.PriorityRequest{Name: "URGENT"})
	requireKind(t, err, apperror.KindForbidden, "priority/adminrequired")

	urgent, err := f.priorities.Create(ctxAdmin, service.PriorityRequest{Name: "URGENT"})
	require.NoError(t, err)
	assert.False(t, urgent.Hidden)

	_, err = f.priorities.Create(ctxAdmin, service.PriorityRequest{Name: "URGENT"})
	requireKind(t, err, apperror.KindConflict, "priority/nameexists")

	_, err = f.priorities.Unhide(ctxAdmin, urgent.ID)
	requireKind(t, err, apperror.KindBadRequest, "priority/nothidden")

	hidden, err := f.priorities.Hide(ctxAdmin, urgent.ID)
	require.NoError(t, err)
	assert.True(t, hidden.Hidden)

	_, err = f.priorities.Hide(ctxAdmin, urgent.ID)
	requireKind(t, err, apperror.KindBadRequest, "priority/alreadyhidden")

	visible, err := f.priorities.List(ctxA, true)
	require.NoError(t, err)
	assert.Len(t, visible, len(model.DefaultPriorities))

	all, err := f.priorities.List(ctxAdmin, true)
	require.NoError(t, err)
	assert.Len(t, all, len(model.DefaultPriorities)+1)

	_, err = f.priorities.Unhide(ctxAdmin, urgent.ID)
	require.NoError(t, err)

	renamed, err := f.priorities.Update(ctxAdmin, urgent.ID, service.PriorityRequest{Name: "CRITICAL"})
	require.NoError(t, err)
	assert.Equal(t, "CRITICAL", renamed.Name)

	require.NoError(t, f.priorities.Delete(ctxAdmin, urgent.ID))
	_, err = f.priorities.Hide(ctxAdmin, urgent.ID)
	requireKind(t, err, apperror.KindNotFound, "priority/idnotfound")
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	_, ctxB := f.user("bob")
	g := f.group(ctxA, "G")
	p := f.project(ctxA, g.ID, "P")
	task := f.task(ctxA, g.ID, p.ID, "T", "TODO")

	_, err := f.comments.Add(ctxB, task.ID, service.CommentRequest{Content: "hi"})
	requireKind(t, err, apperror.KindForbidden, "comment/notmember")

	_, err = f.comments.Add(ctxA, task.ID, service.CommentRequest{Content: "  "})
	requireKind(t, err, apperror.KindBadRequest, "comment/contentempty")

	first, err := f.comments.Add(ctxA, task.ID, service.CommentRequest{Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Author.Login)

	f.addMember(ctxA, g.ID, "bob")
	_, err = f.comments.Add(ctxB, task.ID, service.CommentRequest{Content: "second"})
	require.NoError(t, err)

	comments, err := f.comments.List(ctxB, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "bob", comments[1].Author.Login)
}

func TestComments_UnknownAuthor(t *testing.T) {
	f := newFixture(t)
	_, ctxA := f.user("alice")
	g := f.group(ctxA, "G")
	p := f.project(ctxA, g.ID, "P")
	task := f.task(ctxA, g.ID, p.ID, "T", "TODO")

	// a member row left behind for a user that no longer exists
	ghost := uuid.New()
	require.NoError(t, f.store.Memberships.Create(context.Background(), &model.WorkGroupMembership{
		UserID: ghost, WorkGroupID: g.ID, Role: model.RoleMember, InGroup: true,
	}))
	ctxGhost := auth.WithPrincipal(context.Background(), auth.Principal{UserID: ghost, Login: "ghost"})

	_, err := f.comments.Add(ctxGhost, task.ID, service.CommentRequest{Content: "boo"})
	requireKind(t, err, apperror.KindNotFound, "user/idnotfound")

	comments, err := f.comments.List(ctxA, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
