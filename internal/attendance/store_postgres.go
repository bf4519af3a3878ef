package attendance

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

// PostgresStore persists attendance records and entries in PostgreSQL.
// Record plus entries are written inside one transaction; the unique index
// on attendance_records.lecture_id enforces the 1:1 invariant even if two
// writers slip past the application-level guards.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateRecordWithEntries(ctx context.Context, rec *Record, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	recordQuery := `
		INSERT INTO attendance_records (id, lecture_id, class_id, generated_at, generation_method, confidence_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, recordQuery,
		rec.ID.String(), rec.LectureID.String(), rec.ClassID.String(),
		rec.GeneratedAt, rec.GenerationMethod, rec.ConfidenceScore, string(rec.Status),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}

	entryQuery := `
		INSERT INTO attendance_entries (id, record_id, student_id, status, confidence_score)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, entry := range entries {
		_, err = tx.ExecContext(ctx, entryQuery,
			entry.ID.String(), entry.RecordID.String(), entry.StudentID.String(),
			string(entry.Status), entry.ConfidenceScore,
		)
		if err != nil {
			return fmt.Errorf("insert attendance entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRecordByLecture(ctx context.Context, lectureID id.LectureID) (*Record, error) {
	query := `
		SELECT id, lecture_id, class_id, generated_at, generation_method, confidence_score, status
		FROM attendance_records
		WHERE lecture_id = $1
	`
	var rec Record
	var rawID, rawLecture, rawClass, rawStatus string
	err := s.db.QueryRowContext(ctx, query, lectureID.String()).Scan(
		&rawID, &rawLecture, &rawClass, &rec.GeneratedAt,
		&rec.GenerationMethod, &rec.ConfidenceScore, &rawStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	recUUID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan attendance record id: %w", err)
	}
	lecUUID, err := uuid.Parse(rawLecture)
	if err != nil {
		return nil, fmt.Errorf("scan attendance lecture id: %w", err)
	}
	classUUID, err := uuid.Parse(rawClass)
	if err != nil {
		return nil, fmt.Errorf("scan attendance class id: %w", err)
	}
	rec.ID = id.RecordID(recUUID)
	rec.LectureID = id.LectureID(lecUUID)
	rec.ClassID = id.ClassID(classUUID)
	rec.Status = RecordStatus(rawStatus)
	return &rec, nil
}

func (s *PostgresStore) ListEntriesByRecord(ctx context.Context, recordID id.RecordID) ([]*Entry, error) {
	query := `
		SELECT id, record_id, student_id, status, confidence_score
		FROM attendance_entries
		WHERE record_id = $1
		ORDER BY student_id
	`
	rows, err := s.db.QueryContext(ctx, query, recordID.String())
	if err != nil {
		return nil, fmt.Errorf("list attendance entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindEntryByID(ctx context.Context, entryID id.EntryID) (*Entry, error) {
	query := `
		SELECT id, record_id, student_id, status, confidence_score
		FROM attendance_entries
		WHERE id = $1
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, entryID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find attendance entry: %w", err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var rawID, rawRecord, rawStudent, rawStatus string
	if err := row.Scan(&rawID, &rawRecord, &rawStudent, &rawStatus, &entry.ConfidenceScore); err != nil {
		return nil, err
	}
	entryUUID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	recordUUID, err := uuid.Parse(rawRecord)
	if err != nil {
		return nil, err
	}
	studentUUID, err := uuid.Parse(rawStudent)
	if err != nil {
		return nil, err
	}
	entry.ID = id.EntryID(entryUUID)
	entry.RecordID = id.RecordID(recordUUID)
	entry.StudentID = id.StudentID(studentUUID)
	entry.Status = EntryStatus(rawStatus)
	return &entry, nil
}
