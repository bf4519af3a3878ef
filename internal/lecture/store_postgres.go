package lecture

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// PostgresStore persists lectures in PostgreSQL. This store is pure I/O;
// lifecycle rules live in the services that call it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, lec *Lecture) error {
	query := `
		INSERT INTO lectures (id, class_id, slot_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		lec.ID.String(), lec.ClassID.String(), lec.SlotID.String(),
		string(lec.Status), lec.CreatedAt, lec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save lecture: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, lectureID id.LectureID) (*Lecture, error) {
	query := `
		SELECT id, class_id, slot_id, status, created_at, updated_at
		FROM lectures
		WHERE id = $1
	`
	lec, err := scanLecture(s.db.QueryRowContext(ctx, query, lectureID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find lecture: %w", err)
	}
	return lec, nil
}

func (s *PostgresStore) ListByClass(ctx context.Context, classID id.ClassID) ([]*Lecture, error) {
	query := `
		SELECT id, class_id, slot_id, status, created_at, updated_at
		FROM lectures
		WHERE class_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, classID.String())
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	defer rows.Close()

	var out []*Lecture
	for rows.Next() {
		lec, err := scanLecture(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lecture: %w", err)
		}
		out = append(out, lec)
	}
	return out, rows.Err()
}

// AdvanceStatus is the conditional update that serializes concurrent
// generation runs: UPDATE ... WHERE status = expected. Zero rows affected
// means either the lecture is gone or another writer advanced it first.
func (s *PostgresStore) AdvanceStatus(ctx context.Context, lectureID id.LectureID, expected, next Status) error {
	if !expected.CanAdvanceTo(next) {
		return sentinel.ErrInvalidState
	}
	query := `
		UPDATE lectures
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := s.db.ExecContext(ctx, query, string(next), lectureID.String(), string(expected))
	if err != nil {
		return fmt.Errorf("advance lecture status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance lecture status: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, lectureID); err == sentinel.ErrNotFound {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrStatusChanged
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLecture(row rowScanner) (*Lecture, error) {
	var lec Lecture
	var rawID, rawClass, rawSlot, rawStatus string
	if err := row.Scan(&rawID, &rawClass, &rawSlot, &rawStatus, &lec.CreatedAt, &lec.UpdatedAt); err != nil {
		return nil, err
	}
	lectureUUID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	classUUID, err := uuid.Parse(rawClass)
	if err != nil {
		return nil, err
	}
	slotUUID, err := uuid.Parse(rawSlot)
	if err != nil {
		return nil, err
	}
	lec.ID = id.LectureID(lectureUUID)
	lec.ClassID = id.ClassID(classUUID)
	lec.SlotID = id.SlotID(slotUUID)
	lec.Status = Status(rawStatus)
	return &lec, nil
}
