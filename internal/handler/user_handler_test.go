package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmanager/internal/auth"
	"taskmanager/internal/handler"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// Мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	args := m.Called(ctx, login)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func setupTest() (*gin.Engine, *MockUserRepository, *auth.TokenIssuer) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mockRepo := new(MockUserRepository)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	userHandler := handler.NewUserHandler(mockRepo, tokens)

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	return r, mockRepo, tokens
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, mockRepo, tokens := setupTest()

	// Логин и email свободны
	mockRepo.On("FindByLogin", mock.Anything, "tester").Return(nil, repository.ErrNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, repository.ErrNotFound)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	reqBody := handler.RegisterRequest{
		Login:    "tester",
		Name:     "Test User",
		Email:    "Test@Example.com",
		Password: "password123",
	}

	// Act
	resp := postJSON(router, "/register", reqBody)

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, reqBody.Name, response.User.Name)
	assert.Equal(t, "test@example.com", response.User.Email)
	assert.Equal(t, "tester", response.User.Login)

	principal, err := tokens.ParseToken(response.Token)
	assert.NoError(t, err)
	assert.Equal(t, "tester", principal.Login)
	assert.False(t, principal.Admin)

	mockRepo.AssertExpectations(t)
}

func TestRegister_LoginTaken(t *testing.T) {
	// Arrange
	router, mockRepo, _ := setupTest()

	existingUser := &model.User{ID: uuid.New(), Login: "tester", Email: "other@example.com"}
	mockRepo.On("FindByLogin", mock.Anything, "tester").Return(existingUser, nil)

	reqBody := handler.RegisterRequest{
		Login:    "tester",
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}

	// Act
	resp := postJSON(router, "/register", reqBody)

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "User with this login already exists", response["error"])
	assert.Equal(t, "user/loginexists", response["code"])

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UserAlreadyExists(t *testing.T) {
	// Arrange
	router, mockRepo, _ := setupTest()

	// Мокаем методы репозитория - email уже занят
	existingUser := &model.User{
		ID:             uuid.New(),
		Login:          "existing",
		Email:          "existing@example.com",
		HashedPassword: "hashed_password",
		Name:           "Existing User",
	}
	mockRepo.On("FindByLogin", mock.Anything, "tester").Return(nil, repository.ErrNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(existingUser, nil)

	reqBody := handler.RegisterRequest{
		Login:    "tester",
		Name:     "Test User",
		Email:    "existing@example.com",
		Password: "password123",
	}

	// Act
	resp := postJSON(router, "/register", reqBody)

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "User with this email already exists", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestRegister_InvalidInput(t *testing.T) {
	router, mockRepo, _ := setupTest()

	// Короткий пароль не проходит валидацию
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Login:    "tester",
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "123",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	mockRepo.AssertNotCalled(t, "FindByLogin", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router, mockRepo, tokens := setupTest()

	// Создаем хешированный пароль для тестового пользователя
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	testUser := &model.User{
		ID:             uuid.New(),
		Login:          "tester",
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
		Name:           "Test User",
		Admin:          true,
	}

	mockRepo.On("FindByLogin", mock.Anything, "tester").Return(testUser, nil)

	reqBody := handler.LoginRequest{
		Login:    "tester",
		Password: "password123",
	}

	// Act
	resp := postJSON(router, "/login", reqBody)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, testUser.Name, response.User.Name)
	assert.Equal(t, testUser.Email, response.User.Email)
	assert.Equal(t, testUser.ID.String(), response.User.ID)

	// Флаг администратора попадает в токен
	principal, err := tokens.ParseToken(response.Token)
	assert.NoError(t, err)
	assert.Equal(t, testUser.ID, principal.UserID)
	assert.True(t, principal.Admin)

	mockRepo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	// Arrange
	router, mockRepo, _ := setupTest()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.DefaultCost)
	testUser := &model.User{
		ID:             uuid.New(),
		Login:          "tester",
		Email:          "test@example.com",
		HashedPassword: string(hashedPassword),
		Name:           "Test User",
	}

	mockRepo.On("FindByLogin", mock.Anything, "tester").Return(testUser, nil)

	// Создаем тестовый запрос с неверным паролем
	reqBody := handler.LoginRequest{
		Login:    "tester",
		Password: "wrong_password",
	}

	// Act
	resp := postJSON(router, "/login", reqBody)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Invalid credentials", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestLogin_UserNotFound(t *testing.T) {
	// Arrange
	router, mockRepo, _ := setupTest()

	// Мокаем метод репозитория - пользователь не найден
	mockRepo.On("FindByLogin", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	reqBody := handler.LoginRequest{
		Login:    "ghost",
		Password: "password123",
	}

	// Act
	resp := postJSON(router, "/login", reqBody)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	err := json.Unmarshal(resp.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Invalid credentials", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestLogin_RepositoryError(t *testing.T) {
	router, mockRepo, _ := setupTest()

	mockRepo.On("FindByLogin", mock.Anything, "tester").Return(nil, assert.AnError)

	resp := postJSON(router, "/login", handler.LoginRequest{Login: "tester", Password: "password123"})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	mockRepo.AssertExpectations(t)
}
