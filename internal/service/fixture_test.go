package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"
	"taskmanager/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fixture wires every service over a private in-memory sqlite database with
// the default statuses and priorities seeded.
type fixture struct {
	t     require.TestingT
	store *repository.Store

	groups     *service.WorkGroupService
	members    *service.MembershipService
	projects   *service.ProjectService
	tasks      *service.TaskService
	statuses   *service.StatusService
	priorities *service.PriorityService
	comments   *service.CommentService
}

func newFixture(t *testing.T) *fixture {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	require.NoError(t, repository.Seed(context.Background(), db))

	store := repository.NewStore(db)
	return &fixture{
		t:          t,
		store:      store,
		groups:     service.NewWorkGroupService(store),
		members:    service.NewMembershipService(store),
		projects:   service.NewProjectService(store),
		tasks:      service.NewTaskService(store),
		statuses:   service.NewStatusService(store),
		priorities: service.NewPriorityService(store),
		comments:   service.NewCommentService(store),
	}
}

// user registers login and returns a context acting as that user.
func (f *fixture) user(login string) (*model.User, context.Context) {
	u := &model.User{Login: login, Email: login + "@example.com", HashedPassword: "x", Name: login}
	require.NoError(f.t, f.store.Users.Create(context.Background(), u))
	return u, auth.WithPrincipal(context.Background(), auth.Principal{UserID: u.ID, Login: u.Login})
}

func (f *fixture) admin(login string) (*model.User, context.Context) {
	u := &model.User{Login: login, Email: login + "@example.com", HashedPassword: "x", Name: login, Admin: true}
	require.NoError(f.t, f.store.Users.Create(context.Background(), u))
	return u, auth.WithPrincipal(context.Background(), auth.Principal{UserID: u.ID, Login: u.Login, Admin: true})
}

func (f *fixture) group(ctx context.Context, name string) *model.WorkGroup {
	g, err := f.groups.Create(ctx, service.WorkGroupRequest{Name: name})
	require.NoError(f.t, err)
	return g
}

func (f *fixture) addMember(ctx context.Context, groupID uuid.UUID, login string) {
	_, err := f.members.AddMember(ctx, groupID, login)
	require.NoError(f.t, err)
}

func (f *fixture) project(ctx context.Context, groupID uuid.UUID, title string) *model.Project {
	p, err := f.projects.Create(ctx, groupID, service.ProjectRequest{Title: title})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) statusID(name string) uuid.UUID {
	s, err := f.store.Statuses.FindGlobalByName(context.Background(), name)
	require.NoError(f.t, err)
	return s.ID
}

func (f *fixture) priorityID(name string) uuid.UUID {
	p, err := f.store.Priorities.FindByName(context.Background(), name)
	require.NoError(f.t, err)
	return p.ID
}

func (f *fixture) taskRequest(title, status string) service.TaskRequest {
	return service.TaskRequest{
		Title:      title,
		PriorityID: f.priorityID("MEDIUM"),
		StatusID:   f.statusID(status),
	}
}

func (f *fixture) task(ctx context.Context, groupID, projectID uuid.UUID, title, status string) *model.Task {
	task, err := f.tasks.CreateTask(ctx, groupID, projectID, f.taskRequest(title, status))
	require.NoError(f.t, err)
	return task
}

func (f *fixture) membership(groupID, userID uuid.UUID) *model.WorkGroupMembership {
	m, err := f.store.Memberships.Find(context.Background(), groupID, userID)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) ownerCount(groupID uuid.UUID) int64 {
	n, err := f.store.Memberships.CountOwners(context.Background(), groupID)
	require.NoError(f.t, err)
	return n
}

func strPtr(s string) *string { return &s }

// requireKind asserts err is an *apperror.Error of kind and, when code is
// not empty, that it carries code.
func requireKind(t require.TestingT, err error, kind apperror.Kind, code string) {
	require.Error(t, err)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected *apperror.Error, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind, "unexpected kind for %v", err)
	if code != "" {
		require.Equal(t, code, appErr.Code())
	}
}

// statement is one query or write gorm sent to the fixture's database.
type statement struct {
	table string
	inTx  bool
}

type statementLog struct {
	mu    sync.Mutex
	stmts []statement
}

func (l *statementLog) record(db *gorm.DB) {
	_, inTx := db.Statement.ConnPool.(gorm.TxCommitter)
	l.mu.Lock()
	l.stmts = append(l.stmts, statement{table: db.Statement.Table, inTx: inTx})
	l.mu.Unlock()
}

func (l *statementLog) reset() {
	l.mu.Lock()
	l.stmts = nil
	l.mu.Unlock()
}

// on returns the statements that touched table.
func (l *statementLog) on(table string) []statement {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []statement
	for _, st := range l.stmts {
		if st.table == table {
			out = append(out, st)
		}
	}
	return out
}

// recordStatements logs the table of every statement run from now on and
// whether it ran inside a transaction.
func (f *fixture) recordStatements() *statementLog {
	log := &statementLog{}
	cb := f.store.DB().Callback()
	require.NoError(f.t, cb.Query().Before("gorm:query").Register("test:record_query", log.record))
	require.NoError(f.t, cb.Create().Before("gorm:create").Register("test:record_create", log.record))
	require.NoError(f.t, cb.Update().Before("gorm:update").Register("test:record_update", log.record))
	require.NoError(f.t, cb.Delete().Before("gorm:delete").Register("test:record_delete", log.record))
	return log
}

// requireAllInTx asserts table was touched and only from inside a transaction.
func requireAllInTx(t require.TestingT, log *statementLog, table string) {
	stmts := log.on(table)
	require.NotEmpty(t, stmts, "no statement touched %s", table)
	for i, st := range stmts {
		require.True(t, st.inTx, "statement %d on %s ran outside the transaction", i, table)
	}
}
