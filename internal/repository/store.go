package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one *gorm.DB. A Store obtained
// inside WithTx routes every call through the same transaction.
type Store struct {
	db *gorm.DB

	Users       *UserRepository
	WorkGroups  *WorkGroupRepository
	Memberships *MembershipRepository
	Projects    *ProjectRepository
	Tasks       *TaskRepository
	Comments    *CommentRepository
	Statuses    *StatusRepository
	Priorities  *PriorityRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		WorkGroups:  NewWorkGroupRepository(db),
		Memberships: NewMembershipRepository(db),
		Projects:    NewProjectRepository(db),
		Tasks:       NewTaskRepository(db),
		Comments:    NewCommentRepository(db),
		Statuses:    NewStatusRepository(db),
		Priorities:  NewPriorityRepository(db),
	}
}

// WithTx runs fn in a single transaction. It commits when fn returns nil and
// rolls back when fn returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
