package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, role, student_id, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)`

	var studentID any
	if !u.StudentID.IsZero() {
		studentID = u.StudentID.String()
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID.String(), u.Email, u.PasswordHash, u.FullName, u.Role, studentID, u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, student_id, created_at
		FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, userID.String()))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, student_id, created_at
		FROM users WHERE email = lower($1)`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var rawID string
	var studentID sql.NullString
	err := row.Scan(&rawID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &studentID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID, err = id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if studentID.Valid {
		u.StudentID, err = id.ParseStudentID(studentID.String)
		if err != nil {
			return nil, fmt.Errorf("parse student id: %w", err)
		}
	}
	return &u, nil
}

type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Save(ctx context.Context, sess *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, device_name, created_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID.String(), sess.UserID.String(), sess.DeviceName,
		sess.CreatedAt, sess.ExpiresAt, sess.RevokedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) FindByID(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	query := `
		SELECT id, user_id, device_name, created_at, expires_at, revoked_at
		FROM sessions WHERE id = $1`
	rows, err := s.db.QueryContext(ctx, query, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	defer rows.Close()
	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return sessions[0], nil
}

func (s *PostgresSessionStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Session, error) {
	query := `
		SELECT id, user_id, device_name, created_at, expires_at, revoked_at
		FROM sessions WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *PostgresSessionStore) Revoke(ctx context.Context, sessionID id.SessionID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`,
		time.Now(), sessionID.String())
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var sessions []*Session
	for rows.Next() {
		var sess Session
		var rawSessionID, rawUserID string
		var revokedAt sql.NullTime
		err := rows.Scan(&rawSessionID, &rawUserID, &sess.DeviceName,
			&sess.CreatedAt, &sess.ExpiresAt, &revokedAt)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.ID, err = id.ParseSessionID(rawSessionID)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		sess.UserID, err = id.ParseUserID(rawUserID)
		if err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if revokedAt.Valid {
			sess.RevokedAt = &revokedAt.Time
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}
