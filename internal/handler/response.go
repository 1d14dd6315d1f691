package handler

import (
	"time"

	"taskmanager/internal/model"
)

type UserResponse struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Admin bool   `json:"admin,omitempty"`
}

type WorkGroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID string          `json:"user_id"`
	Login  string          `json:"login"`
	Name   string          `json:"name"`
	Role   model.GroupRole `json:"role"`
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creator_id"`
	WorkGroupID string    `json:"work_group_id"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type TaskResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Priority     string    `json:"priority"`
	PriorityID   string    `json:"priority_id"`
	Status       string    `json:"status"`
	StatusID     string    `json:"status_id"`
	Archived     bool      `json:"archived"`
	CreatorID    string    `json:"creator_id"`
	WorkGroupID  string    `json:"work_group_id"`
	ProjectID    string    `json:"project_id"`
	ParentTaskID *string   `json:"parent_task_id,omitempty"`
	CreateTime   time.Time `json:"create_time"`
	UpdateTime   time.Time `json:"update_time"`
}

type CommentResponse struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"author_id"`
	AuthorLogin string    `json:"author_login,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}

type StatusResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	WorkGroupID *string `json:"work_group_id,omitempty"`
}

type PriorityResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Login: u.Login, Email: u.Email, Name: u.Name, Admin: u.Admin}
}

func toUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toWorkGroupResponse(g model.WorkGroup) WorkGroupResponse {
	return WorkGroupResponse{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		Active:      g.Active,
		CreatedAt:   g.CreatedAt,
	}
}

func toMemberResponse(m model.WorkGroupMembership) MemberResponse {
	return MemberResponse{UserID: m.UserID.String(), Login: m.User.Login, Name: m.User.Name, Role: m.Role}
}

func toProjectResponse(p model.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		CreatorID:   p.CreatorID.String(),
		WorkGroupID: p.WorkGroupID.String(),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
	}
}

func toProjectResponses(projects []model.Project) []ProjectResponse {
	out := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		out[i] = toProjectResponse(p)
	}
	return out
}

func toTaskResponse(t model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.Name,
		PriorityID:  t.PriorityID.String(),
		Status:      t.Status.Name,
		StatusID:    t.StatusID.String(),
		Archived:    t.Archived,
		CreatorID:   t.CreatorID.String(),
		WorkGroupID: t.WorkGroupID.String(),
		ProjectID:   t.ProjectID.String(),
		CreateTime:  t.CreateTime,
		UpdateTime:  t.UpdateTime,
	}
	if t.ParentTaskID != nil {
		parent := t.ParentTaskID.String()
		resp.ParentTaskID = &parent
	}
	return resp
}

func toTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return out
}

func toCommentResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID.String(),
		Content:     c.Content,
		AuthorID:    c.AuthorID.String(),
		AuthorLogin: c.Author.Login,
		CreatedDate: c.CreatedDate,
	}
}

func toStatusResponse(s model.Status) StatusResponse {
	resp := StatusResponse{ID: s.ID.String(), Name: s.Name}
	if s.WorkGroupID != nil {
		groupID := s.WorkGroupID.String()
		resp.WorkGroupID = &groupID
	}
	return resp
}

func toPriorityResponse(p model.Priority) PriorityResponse {
	return PriorityResponse{ID: p.ID.String(), Name: p.Name, Hidden: p.Hidden}
}
