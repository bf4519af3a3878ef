package evidence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "rollcall/pkg/domain"
)

// PostgresStore persists evidence items in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO evidence_items (id, lecture_id, storage_pointer, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID.String(), item.LectureID.String(), item.StoragePointer,
		item.UploadedBy.String(), item.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("append evidence: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByLecture(ctx context.Context, lectureID id.LectureID) ([]*Item, error) {
	query := `
		SELECT id, lecture_id, storage_pointer, uploaded_by, uploaded_at
		FROM evidence_items
		WHERE lecture_id = $1
		ORDER BY uploaded_at
	`
	rows, err := s.db.QueryContext(ctx, query, lectureID.String())
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var item Item
		var rawID, rawLecture, rawUploader string
		if err := rows.Scan(&rawID, &rawLecture, &item.StoragePointer, &rawUploader, &item.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		itemUUID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("scan evidence id: %w", err)
		}
		lectureUUID, err := uuid.Parse(rawLecture)
		if err != nil {
			return nil, fmt.Errorf("scan evidence lecture id: %w", err)
		}
		uploaderUUID, err := uuid.Parse(rawUploader)
		if err != nil {
			return nil, fmt.Errorf("scan evidence uploader id: %w", err)
		}
		item.ID = id.EvidenceID(itemUUID)
		item.LectureID = id.LectureID(lectureUUID)
		item.UploadedBy = id.UserID(uploaderUUID)
		out = append(out, &item)
	}
	return out, rows.Err()
}
