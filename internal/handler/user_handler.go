package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskmanager/internal/auth"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
)

// UserRepository is the slice of the user store the handler needs.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type UserHandler struct {
	repo   UserRepository
	tokens *auth.TokenIssuer
}

func NewUserHandler(repo UserRepository, tokens *auth.TokenIssuer) *UserHandler {
	return &UserHandler{repo: repo, tokens: tokens}
}

type RegisterRequest struct {
	Login    string `json:"login" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	req.Email = strings.ToLower(req.Email)
	ctx := c.Request.Context()

	if taken, err := h.exists(ctx, h.repo.FindByLogin, req.Login); err != nil {
		respondError(c, err)
		return
	} else if taken {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "User with this login already exists", Code: "user/loginexists"})
		return
	}
	if taken, err := h.exists(ctx, h.repo.FindByEmail, req.Email); err != nil {
		respondError(c, err)
		return
	} else if taken {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "User with this email already exists", Code: "user/emailexists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &model.User{
		Login:          req.Login,
		Email:          req.Email,
		Name:           req.Name,
		HashedPassword: hash,
	}
	if err := h.repo.Create(ctx, user); err != nil {
		respondError(c, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	user, err := h.repo.FindByLogin(c.Request.Context(), req.Login)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, req.Password) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials", Code: "user/invalidcredentials"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, user *model.User) {
	token, err := h.tokens.GenerateToken(auth.Principal{UserID: user.ID, Login: user.Login, Admin: user.Admin})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: toUserResponse(*user)})
}

func (h *UserHandler) exists(ctx context.Context, find func(context.Context, string) (*model.User, error), key string) (bool, error) {
	_, err := find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
