package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// PostgresStore persists enrollments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, enr *Enrollment) error {
	query := `
		INSERT INTO enrollments (id, class_id, student_id, status, requested_at, decided_at, decided_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var decidedBy any
	if !enr.DecidedBy.IsZero() {
		decidedBy = enr.DecidedBy.String()
	}
	_, err := s.db.ExecContext(ctx, query,
		enr.ID.String(), enr.ClassID.String(), enr.StudentID.String(),
		string(enr.Status), enr.RequestedAt, enr.DecidedAt, decidedBy,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save enrollment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	query := selectEnrollment + ` WHERE id = $1`
	enr, err := scanEnrollment(s.db.QueryRowContext(ctx, query, enrollmentID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return enr, nil
}

func (s *PostgresStore) FindByClassAndStudent(ctx context.Context, classID id.ClassID, studentID id.StudentID) (*Enrollment, error) {
	query := selectEnrollment + ` WHERE class_id = $1 AND student_id = $2`
	enr, err := scanEnrollment(s.db.QueryRowContext(ctx, query, classID.String(), studentID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return enr, nil
}

func (s *PostgresStore) ListByClass(ctx context.Context, classID id.ClassID) ([]*Enrollment, error) {
	query := selectEnrollment + ` WHERE class_id = $1 ORDER BY requested_at`
	return s.queryList(ctx, query, classID.String())
}

func (s *PostgresStore) ListApprovedByClass(ctx context.Context, classID id.ClassID) ([]*Enrollment, error) {
	query := selectEnrollment + ` WHERE class_id = $1 AND status = $2 ORDER BY requested_at`
	return s.queryList(ctx, query, classID.String(), string(StatusApproved))
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, enrollmentID id.EnrollmentID, status Status, decidedBy id.UserID) error {
	query := `
		UPDATE enrollments
		SET status = $1, decided_at = NOW(), decided_by = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, string(status), decidedBy.String(), enrollmentID.String())
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectEnrollment = `
	SELECT id, class_id, student_id, status, requested_at, decided_at, decided_by
	FROM enrollments`

func (s *PostgresStore) queryList(ctx context.Context, query string, args ...any) ([]*Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []*Enrollment
	for rows.Next() {
		enr, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, enr)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row rowScanner) (*Enrollment, error) {
	var enr Enrollment
	var rawID, rawClass, rawStudent, rawStatus string
	var rawDecidedBy sql.NullString
	if err := row.Scan(&rawID, &rawClass, &rawStudent, &rawStatus, &enr.RequestedAt, &enr.DecidedAt, &rawDecidedBy); err != nil {
		return nil, err
	}
	enrUUID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	classUUID, err := uuid.Parse(rawClass)
	if err != nil {
		return nil, err
	}
	studentUUID, err := uuid.Parse(rawStudent)
	if err != nil {
		return nil, err
	}
	enr.ID = id.EnrollmentID(enrUUID)
	enr.ClassID = id.ClassID(classUUID)
	enr.StudentID = id.StudentID(studentUUID)
	enr.Status = Status(rawStatus)
	if rawDecidedBy.Valid {
		deciderUUID, err := uuid.Parse(rawDecidedBy.String)
		if err != nil {
			return nil, err
		}
		enr.DecidedBy = id.UserID(deciderUUID)
	}
	return &enr, nil
}
