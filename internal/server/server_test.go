package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmanager/internal/config"
	"taskmanager/internal/handler"
	"taskmanager/internal/repository"
	"taskmanager/internal/server"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type client struct {
	t      *testing.T
	engine http.Handler
	token  string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp := httptest.NewRecorder()
	c.engine.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func newTestServer(t *testing.T) *server.Server {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	require.NoError(t, repository.Seed(context.Background(), db))

	cfg := &config.Config{
		GinMode:        "test",
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		CORSOrigins:    []string{"*"},
	}
	return server.New(cfg, db)
}

func register(t *testing.T, engine http.Handler, login string) (client, handler.UserResponse) {
	anon := client{t: t, engine: engine}
	resp := anon.do(http.MethodPost, "/register", handler.RegisterRequest{
		Login:    login,
		Email:    login + "@example.com",
		Name:     "User " + login,
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	auth := decode[handler.AuthResponse](t, resp)
	return client{t: t, engine: engine, token: auth.Token}, auth.User
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	resp := client{t: t, engine: s.Engine}.do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestServer_APIRequiresToken(t *testing.T) {
	s := newTestServer(t)

	resp := client{t: t, engine: s.Engine}.do(http.MethodGet, "/api/work-groups", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestServer_LoginAfterRegister(t *testing.T) {
	s := newTestServer(t)
	register(t, s.Engine, "alice")

	anon := client{t: t, engine: s.Engine}
	resp := anon.do(http.MethodPost, "/login", handler.LoginRequest{Login: "alice", Password: "password123"})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = anon.do(http.MethodPost, "/login", handler.LoginRequest{Login: "alice", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = anon.do(http.MethodPost, "/register", handler.RegisterRequest{
		Login: "alice", Email: "other@example.com", Name: "Alice", Password: "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestServer_TaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice, _ := register(t, s.Engine, "alice")
	bob, _ := register(t, s.Engine, "bob")
	carol, _ := register(t, s.Engine, "carol")

	resp := alice.do(http.MethodPost, "/api/work-groups", map[string]string{"name": "Core"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	group := decode[handler.WorkGroupResponse](t, resp)
	groupPath := "/api/work-groups/" + group.ID

	resp = alice.do(http.MethodPost, groupPath+"/members", handler.UsernameRequest{Username: "bob"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	// carol is not a member
	resp = carol.do(http.MethodGet, groupPath+"/projects", nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = alice.do(http.MethodPost, groupPath+"/projects", map[string]string{"title": "API"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	project := decode[handler.ProjectResponse](t, resp)

	resp = bob.do(http.MethodGet, groupPath+"/statuses", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	statuses := map[string]string{}
	for _, st := range decode[[]handler.StatusResponse](t, resp) {
		statuses[st.Name] = st.ID
	}
	resp = bob.do(http.MethodGet, "/api/priorities", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	priorities := decode[[]handler.PriorityResponse](t, resp)
	require.NotEmpty(t, priorities)

	taskBody := map[string]string{
		"title":       "Ship it",
		"priority_id": priorities[0].ID,
		"status_id":   statuses["TODO"],
	}
	resp = bob.do(http.MethodPost, groupPath+"/projects/"+project.ID+"/tasks", taskBody)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	task := decode[handler.TaskResponse](t, resp)
	taskPath := "/api/tasks/" + task.ID

	// only the creator may edit
	resp = alice.do(http.MethodPut, taskPath, map[string]string{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = bob.do(http.MethodPost, taskPath+"/archive", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = bob.do(http.MethodPut, taskPath, map[string]string{"title": "Ship it", "status_id": statuses["DONE"]})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "DONE", decode[handler.TaskResponse](t, resp).Status)

	resp = bob.do(http.MethodPost, taskPath+"/archive", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, decode[handler.TaskResponse](t, resp).Archived)

	resp = bob.do(http.MethodGet, "/api/projects/"+project.ID+"/tasks/archived", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]handler.TaskResponse](t, resp), 1)

	resp = bob.do(http.MethodPost, taskPath+"/comments", map[string]string{"content": "done"})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}
