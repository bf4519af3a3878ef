package user

import (
	"context"

	id "rollcall/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mocks.go -package=mocks

// Store persists users. Email is unique.
type Store interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	Save(ctx context.Context, sess *Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*Session, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*Session, error)
	Revoke(ctx context.Context, sessionID id.SessionID) error
}
