package auth

import (
	"context"

	"taskmanager/internal/apperror"

	"github.com/google/uuid"
)

// Principal is the resolved caller of an operation.
type Principal struct {
	UserID uuid.UUID
	Login  string
	Admin  bool
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// CurrentUser returns the caller bound to ctx or an Unauthenticated failure.
func CurrentUser(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, apperror.Unauthenticated("Unauthenticated user")
	}
	return p, nil
}
