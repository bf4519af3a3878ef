// Package user owns accounts and their role assignments. Every actor in the
// system is a user; students additionally have a student identity used on
// rosters and attendance entries.
package user

import (
	"time"

	id "rollcall/pkg/domain"
)

// Roles. A user holds exactly one.
const (
	RoleAdmin    = "admin"
	RoleLecturer = "lecturer"
	RoleStudent  = "student"
)

// ValidRole reports whether role is one of the supported roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLecturer, RoleStudent:
		return true
	default:
		return false
	}
}

// User is an account that can authenticate.
type User struct {
	ID           id.UserID
	Email        string
	PasswordHash []byte
	FullName     string
	Role         string
	// StudentID is set only for RoleStudent; it is the identity that
	// appears on rosters and attendance entries.
	StudentID id.StudentID
	CreatedAt time.Time
}

// Session is one authenticated login. DeviceName is derived from the
// User-Agent at login time so users can recognize their sessions.
type Session struct {
	ID         id.SessionID
	UserID     id.UserID
	DeviceName string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// Active reports whether the session is usable at t.
func (s *Session) Active(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}
