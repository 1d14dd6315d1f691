package repository_test

import (
	"context"
	"errors"
	"testing"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithTx_Commit(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	store := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "task_assignments"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx *repository.Store) error {
		return tx.Tasks.AssignUser(context.Background(), uuid.New(), uuid.New())
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_RollbackOnError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	store := repository.NewStore(gormDB)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "task_assignments"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx *repository.Store) error {
		if err := tx.Tasks.AssignUser(context.Background(), uuid.New(), uuid.New()); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_RollbackOnPanic(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	store := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithTx(context.Background(), func(tx *repository.Store) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_UnassignUser_NotAssigned(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "task_assignments" WHERE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UnassignUser(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_CountOwners(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "work_group_memberships" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountOwners(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_FindActive_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "work_group_memberships" WHERE .*in_group`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	m, err := repo.FindActive(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, m)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_FindActiveForUpdate_LocksRow(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "work_group_memberships" WHERE .*in_group.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role", "in_group"}).
			AddRow(uuid.NewString(), userID.String(), "OWNER", true))

	m, err := repo.FindActiveForUpdate(context.Background(), uuid.New(), userID)

	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, m.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_SetRole_StaleRole(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "work_group_memberships" SET .*WHERE .*role`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetRole(context.Background(), uuid.New(), uuid.New(), model.RoleOwner, model.RoleModerator)

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetActiveForUpdate_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE .*active.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	task, err := repo.GetActiveForUpdate(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListByMember(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)
	projectID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "projects" JOIN project_members ON`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "active"}).
			AddRow(projectID.String(), "Website", true))

	projects, err := repo.ListByMember(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, projectID, projects[0].ID)
	assert.Equal(t, "Website", projects[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
