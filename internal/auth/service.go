// Package auth implements login, session management, and account creation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/audit"
	"rollcall/internal/auth/device"
	"rollcall/internal/user"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mocks.go -package=mocks

// TokenIssuer signs access tokens for authenticated sessions.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, sessionID id.SessionID, role string, expiresIn time.Duration) (string, error)
}

// AuditPublisher records domain events. Fire-and-forget.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service handles authentication and account administration.
type Service struct {
	logger   *slog.Logger
	users    user.Store
	sessions user.SessionStore
	tokens   TokenIssuer
	auditor  AuditPublisher
	tokenTTL time.Duration
}

func New(
	logger *slog.Logger,
	users user.Store,
	sessions user.SessionStore,
	tokens TokenIssuer,
	auditor AuditPublisher,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		logger:   logger,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		auditor:  auditor,
		tokenTTL: tokenTTL,
	}
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string
	User      *user.User
	Session   *user.Session
	ExpiresAt time.Time
}

// Login verifies credentials, opens a session named after the caller's
// device, and issues an access token. Wrong email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn a comparison anyway so a missing account costs the
			// same as a wrong password.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, domainerrors.New(domainerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login failed",
			"user_id", u.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, domainerrors.New(domainerrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	sess := &user.Session{
		ID:         id.NewSessionID(),
		UserID:     u.ID,
		DeviceName: device.NameFromUserAgent(requestcontext.UserAgent(ctx)),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.tokenTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, sess.ID, u.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionUserLoggedIn,
		ActorID: u.ID,
		Subject: sess.ID.String(),
		Detail:  sess.DeviceName,
	})
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", u.ID.String(),
		"session_id", sess.ID.String(),
		"device", sess.DeviceName,
	)

	return &LoginResult{
		Token:     token,
		User:      u,
		Session:   sess,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// dummyHash is a bcrypt hash of a random string, used to equalize timing on
// unknown emails.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// CreateAccountInput is the admin-provided account definition.
type CreateAccountInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// CreateAccount provisions a user. Students get a fresh student identity.
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (*user.User, error) {
	if input.Email == "" || input.FullName == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "email and full name are required")
	}
	if !user.ValidRole(input.Role) {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "unknown role")
	}
	if len(input.Password) < 8 {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           id.NewUserID(),
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if input.Role == user.RoleStudent {
		u.StudentID = id.NewStudentID()
	}

	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "email already registered")
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// ListSessions returns the caller's sessions.
func (s *Service) ListSessions(ctx context.Context, userID id.UserID) ([]*user.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Logout revokes the caller's current session.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.New(domainerrors.CodeNotFound, "session not found")
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
