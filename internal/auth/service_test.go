package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/audit"
	authmocks "rollcall/internal/auth/mocks"
	"rollcall/internal/user"
	usermocks "rollcall/internal/user/mocks"
	id "rollcall/pkg/domain"
	domainerrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

const testTokenTTL = time.Hour

type serviceMocks struct {
	users    *usermocks.MockStore
	sessions *usermocks.MockSessionStore
	tokens   *authmocks.MockTokenIssuer
	auditor  *authmocks.MockAuditPublisher
}

func newService(t *testing.T) (*Service, serviceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := serviceMocks{
		users:    usermocks.NewMockStore(ctrl),
		sessions: usermocks.NewMockSessionStore(ctrl),
		tokens:   authmocks.NewMockTokenIssuer(ctrl),
		auditor:  authmocks.NewMockAuditPublisher(ctrl),
	}
	svc := New(slog.New(slog.DiscardHandler), m.users, m.sessions, m.tokens, m.auditor, testTokenTTL)
	return svc, m
}

func hashOf(t *testing.T, password string) []byte {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}

func TestLogin_Success(t *testing.T) {
	svc, m := newService(t)
	ctx := requestcontext.WithUserAgent(context.Background(),
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	u := &user.User{
		ID:           id.NewUserID(),
		Email:        "lecturer@rollcall.edu",
		PasswordHash: hashOf(t, "correct horse"),
		Role:         user.RoleLecturer,
	}

	m.users.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)

	var savedSession *user.Session
	m.sessions.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sess *user.Session) error {
			savedSession = sess
			return nil
		})
	m.tokens.EXPECT().
		GenerateAccessToken(u.ID, gomock.Any(), user.RoleLecturer, testTokenTTL).
		Return("signed-token", nil)
	m.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, event audit.Event) {
			assert.Equal(t, audit.ActionUserLoggedIn, event.Action)
			assert.Equal(t, u.ID, event.ActorID)
		})

	result, err := svc.Login(ctx, u.Email, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	require.NotNil(t, savedSession)
	assert.Equal(t, u.ID, savedSession.UserID)
	assert.Contains(t, savedSession.DeviceName, "Chrome")
	assert.Equal(t, savedSession.ExpiresAt, result.ExpiresAt)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, m := newService(t)

	u := &user.User{
		ID:           id.NewUserID(),
		Email:        "student@rollcall.edu",
		PasswordHash: hashOf(t, "right"),
		Role:         user.RoleStudent,
	}
	m.users.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)

	_, err := svc.Login(context.Background(), u.Email, "wrong")
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
}

func TestLogin_UnknownEmailIsIndistinguishable(t *testing.T) {
	svc, m := newService(t)

	m.users.EXPECT().FindByEmail(gomock.Any(), "nobody@rollcall.edu").
		Return(nil, sentinel.ErrNotFound)

	_, err := svc.Login(context.Background(), "nobody@rollcall.edu", "whatever")
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestCreateAccount(t *testing.T) {
	t.Run("student gets a student identity", func(t *testing.T) {
		svc, m := newService(t)
		m.users.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		u, err := svc.CreateAccount(context.Background(), CreateAccountInput{
			Email:    "new@rollcall.edu",
			Password: "long enough",
			FullName: "New Student",
			Role:     user.RoleStudent,
		})
		require.NoError(t, err)
		assert.False(t, u.StudentID.IsZero())
		assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("long enough")))
	})

	t.Run("lecturer gets no student identity", func(t *testing.T) {
		svc, m := newService(t)
		m.users.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		u, err := svc.CreateAccount(context.Background(), CreateAccountInput{
			Email:    "prof@rollcall.edu",
			Password: "long enough",
			FullName: "Prof",
			Role:     user.RoleLecturer,
		})
		require.NoError(t, err)
		assert.True(t, u.StudentID.IsZero())
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, m := newService(t)
		m.users.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := svc.CreateAccount(context.Background(), CreateAccountInput{
			Email:    "dup@rollcall.edu",
			Password: "long enough",
			FullName: "Dup",
			Role:     user.RoleStudent,
		})
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))
	})

	t.Run("validation", func(t *testing.T) {
		svc, _ := newService(t)
		tests := []struct {
			name  string
			input CreateAccountInput
		}{
			{"missing email", CreateAccountInput{Password: "long enough", FullName: "X", Role: user.RoleStudent}},
			{"unknown role", CreateAccountInput{Email: "x@y.z", Password: "long enough", FullName: "X", Role: "dean"}},
			{"short password", CreateAccountInput{Email: "x@y.z", Password: "short", FullName: "X", Role: user.RoleStudent}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateAccount(context.Background(), tt.input)
				assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
			})
		}
	})
}

func TestLogout(t *testing.T) {
	svc, m := newService(t)
	sessionID := id.NewSessionID()

	m.sessions.EXPECT().Revoke(gomock.Any(), sessionID).Return(nil)
	require.NoError(t, svc.Logout(context.Background(), sessionID))

	m.sessions.EXPECT().Revoke(gomock.Any(), sessionID).Return(sentinel.ErrNotFound)
	err := svc.Logout(context.Background(), sessionID)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
}
