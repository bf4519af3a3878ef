package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "rollcall/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, occurred_at, action, actor_id, subject, detail, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var actorID any
	if !event.ActorID.IsZero() {
		actorID = event.ActorID.String()
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		event.Timestamp,
		string(event.Action),
		actorID,
		event.Subject,
		event.Detail,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT occurred_at, action, actor_id, subject, detail, request_id
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var action string
		var actorID sql.NullString
		if err := rows.Scan(&event.Timestamp, &action, &actorID, &event.Subject, &event.Detail, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		if actorID.Valid {
			parsed, err := id.ParseUserID(actorID.String)
			if err != nil {
				return nil, fmt.Errorf("parse actor id: %w", err)
			}
			event.ActorID = parsed
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
