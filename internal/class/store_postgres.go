package class

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

func (s *PostgresStore) Save(ctx context.Context, c *Class) error {
	query := `
		INSERT INTO classes (id, code, name, lecturer_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.Code, c.Name, c.LecturerID.String(), c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, classID id.ClassID) (*Class, error) {
	query := `
		SELECT id, code, name, lecturer_id, created_at
		FROM classes WHERE id = $1`
	rows, err := s.db.QueryContext(ctx, query, classID.String())
	if err != nil {
		return nil, fmt.Errorf("find class: %w", err)
	}
	defer rows.Close()
	classes, err := scanClasses(rows)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return classes[0], nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Class, error) {
	query := `
		SELECT id, code, name, lecturer_id, created_at
		FROM classes ORDER BY code`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()
	return scanClasses(rows)
}

func (s *PostgresStore) ListByLecturer(ctx context.Context, lecturerID id.UserID) ([]*Class, error) {
	query := `
		SELECT id, code, name, lecturer_id, created_at
		FROM classes WHERE lecturer_id = $1 ORDER BY code`
	rows, err := s.db.QueryContext(ctx, query, lecturerID.String())
	if err != nil {
		return nil, fmt.Errorf("list classes by lecturer: %w", err)
	}
	defer rows.Close()
	return scanClasses(rows)
}

func scanClasses(rows *sql.Rows) ([]*Class, error) {
	var classes []*Class
	for rows.Next() {
		var c Class
		var rawID, rawLecturerID string
		if err := rows.Scan(&rawID, &c.Code, &c.Name, &rawLecturerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		var err error
		c.ID, err = id.ParseClassID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse class id: %w", err)
		}
		c.LecturerID, err = id.ParseUserID(rawLecturerID)
		if err != nil {
			return nil, fmt.Errorf("parse lecturer id: %w", err)
		}
		classes = append(classes, &c)
	}
	return classes, rows.Err()
}

func (s *PostgresStore) SaveSlot(ctx context.Context, slot *Slot) error {
	query := `
		INSERT INTO class_slots (id, class_id, weekday, starts_at, duration_minutes)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query,
		slot.ID.String(), slot.ClassID.String(), int(slot.Weekday),
		slot.StartsAt, int(slot.Duration.Minutes()))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSlotByID(ctx context.Context, slotID id.SlotID) (*Slot, error) {
	query := `
		SELECT id, class_id, weekday, starts_at, duration_minutes
		FROM class_slots WHERE id = $1`
	rows, err := s.db.QueryContext(ctx, query, slotID.String())
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	defer rows.Close()
	slots, err := scanSlots(rows)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return slots[0], nil
}

func (s *PostgresStore) ListSlotsByClass(ctx context.Context, classID id.ClassID) ([]*Slot, error) {
	query := `
		SELECT id, class_id, weekday, starts_at, duration_minutes
		FROM class_slots WHERE class_id = $1 ORDER BY weekday, starts_at`
	rows, err := s.db.QueryContext(ctx, query, classID.String())
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func scanSlots(rows *sql.Rows) ([]*Slot, error) {
	var slots []*Slot
	for rows.Next() {
		var slot Slot
		var rawID, rawClassID string
		var weekday, minutes int
		if err := rows.Scan(&rawID, &rawClassID, &weekday, &slot.StartsAt, &minutes); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		var err error
		slot.ID, err = id.ParseSlotID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse slot id: %w", err)
		}
		slot.ClassID, err = id.ParseClassID(rawClassID)
		if err != nil {
			return nil, fmt.Errorf("parse class id: %w", err)
		}
		slot.Weekday = time.Weekday(weekday)
		slot.Duration = time.Duration(minutes) * time.Minute
		slots = append(slots, &slot)
	}
	return slots, rows.Err()
}
