package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/access"
	"taskmanager/internal/apperror"
	"taskmanager/internal/auth"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/google/uuid"
)

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentService struct {
	store *repository.Store
}

func NewCommentService(store *repository.Store) *CommentService {
	return &CommentService{store: store}
}

// Add appends a comment to a live task. Comments are never edited.
func (s *CommentService) Add(ctx context.Context, taskID uuid.UUID, req CommentRequest) (*model.Comment, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := activeTask(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.CommentTask, p, task.WorkGroupID, uuid.Nil); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.BadRequest("comment", "contentempty", "Comment content is required")
	}

	author, err := s.store.Users.GetByID(ctx, p.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("user", "idnotfound", "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}

	comment := &model.Comment{
		Content:     content,
		CreatedDate: time.Now().UTC(),
		AuthorID:    p.UserID,
		TaskID:      taskID,
	}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = *author
	return comment, nil
}

func (s *CommentService) List(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error) {
	p, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := activeTask(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorizeIn(ctx, s.store, access.ViewWorkGroup, p, task.WorkGroupID, uuid.Nil); err != nil {
		return nil, err
	}
	return s.store.Comments.ListByTask(ctx, taskID)
}
