package dispute

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rollcall/internal/attendance"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, d *Dispute) error {
	// The partial unique index on (entry_id) WHERE status = 'OPEN' enforces
	// one open dispute per entry.
	query := `
		INSERT INTO disputes (id, lecture_id, entry_id, student_id, filed_by, reason, status, filed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, query,
		d.ID.String(), d.LectureID.String(), d.EntryID.String(), d.StudentID.String(),
		d.FiledBy.String(), d.Reason, string(d.Status), d.FiledAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert dispute: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, disputeID id.DisputeID) (*Dispute, error) {
	return s.findOne(ctx, `WHERE id = $1`, disputeID.String())
}

func (s *PostgresStore) FindOpenByEntry(ctx context.Context, entryID id.EntryID) (*Dispute, error) {
	return s.findOne(ctx, `WHERE entry_id = $1 AND status = 'OPEN'`, entryID.String())
}

const disputeColumns = `
	SELECT id, lecture_id, entry_id, student_id, filed_by, reason, status,
	       filed_at, resolved_at, resolved_by, resolution_note
	FROM disputes `

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*Dispute, error) {
	rows, err := s.db.QueryContext(ctx, disputeColumns+where, arg)
	if err != nil {
		return nil, fmt.Errorf("find dispute: %w", err)
	}
	defer rows.Close()
	disputes, err := scanDisputes(rows)
	if err != nil {
		return nil, err
	}
	if len(disputes) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return disputes[0], nil
}

func (s *PostgresStore) ListByLecture(ctx context.Context, lectureID id.LectureID) ([]*Dispute, error) {
	rows, err := s.db.QueryContext(ctx, disputeColumns+`WHERE lecture_id = $1 ORDER BY filed_at`, lectureID.String())
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()
	return scanDisputes(rows)
}

func (s *PostgresStore) Resolve(ctx context.Context, d *Dispute) error {
	query := `
		UPDATE disputes
		SET status = $1, resolved_at = $2, resolved_by = $3, resolution_note = $4
		WHERE id = $5 AND status = 'OPEN'`
	res, err := s.db.ExecContext(ctx, query,
		string(d.Status), d.ResolvedAt, d.ResolvedBy.String(), d.ResolutionNote, d.ID.String())
	if err != nil {
		return fmt.Errorf("resolve dispute: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve dispute rows affected: %w", err)
	}
	if affected == 0 {
		if _, ferr := s.FindByID(ctx, d.ID); errors.Is(ferr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) AppendOverride(ctx context.Context, o *Override) error {
	query := `
		INSERT INTO entry_overrides (id, entry_id, dispute_id, status, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		o.ID.String(), o.EntryID.String(), o.DisputeID.String(),
		string(o.Status), o.CreatedAt, o.CreatedBy.String())
	if err != nil {
		return fmt.Errorf("insert override: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestOverrideByEntry(ctx context.Context, entryID id.EntryID) (*Override, error) {
	query := `
		SELECT id, entry_id, dispute_id, status, created_at, created_by
		FROM entry_overrides
		WHERE entry_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var o Override
	var rawID, rawEntryID, rawDisputeID, rawStatus, rawCreatedBy string
	err := s.db.QueryRowContext(ctx, query, entryID.String()).
		Scan(&rawID, &rawEntryID, &rawDisputeID, &rawStatus, &o.CreatedAt, &rawCreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find override: %w", err)
	}

	if o.ID, err = id.ParseOverrideID(rawID); err != nil {
		return nil, fmt.Errorf("parse override id: %w", err)
	}
	if o.EntryID, err = id.ParseEntryID(rawEntryID); err != nil {
		return nil, fmt.Errorf("parse entry id: %w", err)
	}
	if o.DisputeID, err = id.ParseDisputeID(rawDisputeID); err != nil {
		return nil, fmt.Errorf("parse dispute id: %w", err)
	}
	if o.CreatedBy, err = id.ParseUserID(rawCreatedBy); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	o.Status = attendance.EntryStatus(rawStatus)
	return &o, nil
}

func scanDisputes(rows *sql.Rows) ([]*Dispute, error) {
	var disputes []*Dispute
	for rows.Next() {
		var d Dispute
		var rawID, rawLectureID, rawEntryID, rawStudentID, rawFiledBy, rawStatus string
		var resolvedAt sql.NullTime
		var resolvedBy, note sql.NullString
		err := rows.Scan(&rawID, &rawLectureID, &rawEntryID, &rawStudentID, &rawFiledBy,
			&d.Reason, &rawStatus, &d.FiledAt, &resolvedAt, &resolvedBy, &note)
		if err != nil {
			return nil, fmt.Errorf("scan dispute: %w", err)
		}

		if d.ID, err = id.ParseDisputeID(rawID); err != nil {
			return nil, fmt.Errorf("parse dispute id: %w", err)
		}
		if d.LectureID, err = id.ParseLectureID(rawLectureID); err != nil {
			return nil, fmt.Errorf("parse lecture id: %w", err)
		}
		if d.EntryID, err = id.ParseEntryID(rawEntryID); err != nil {
			return nil, fmt.Errorf("parse entry id: %w", err)
		}
		if d.StudentID, err = id.ParseStudentID(rawStudentID); err != nil {
			return nil, fmt.Errorf("parse student id: %w", err)
		}
		if d.FiledBy, err = id.ParseUserID(rawFiledBy); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		d.Status = Status(rawStatus)
		if resolvedAt.Valid {
			d.ResolvedAt = &resolvedAt.Time
		}
		if resolvedBy.Valid {
			if d.ResolvedBy, err = id.ParseUserID(resolvedBy.String); err != nil {
				return nil, fmt.Errorf("parse resolver id: %w", err)
			}
		}
		d.ResolutionNote = note.String
		disputes = append(disputes, &d)
	}
	return disputes, rows.Err()
}
