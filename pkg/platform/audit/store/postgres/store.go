// Package postgres persists audit events in PostgreSQL. Each Append writes the
// queryable audit_events row and an outbox row in one transaction so an
// external relay can forward events without losing any.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "trustrag/pkg/platform/audit"
	"trustrag/pkg/platform/sentinel"
	txcontext "trustrag/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Store implements audit.Store on database/sql with the lib/pq driver.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the "postgres" driver registered by lib/pq.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	return db, nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertEvent = `
	INSERT INTO audit_events (
		id, category, event_type, timestamp, user_id, role, domain,
		document_id, action, decision, reason, framework, query, request_id, details
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

const insertOutbox = `
	INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// Append writes the event and its outbox entry. When ctx already carries a
// transaction the writes join it; otherwise a new one is opened.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	return txcontext.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.write(ctx, tx, event, details, payload)
	})
}

func (s *Store) write(ctx context.Context, exec dbExecutor, event audit.Event, details, payload []byte) error {
	_, err := exec.ExecContext(ctx, insertEvent,
		event.ID,
		string(event.Category),
		string(event.Type),
		event.Timestamp,
		event.UserID,
		event.Role,
		event.Domain,
		event.DocumentID,
		event.Action,
		event.Decision,
		event.Reason,
		event.Framework,
		event.Query,
		event.RequestID,
		details,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("audit event %s: %w", event.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert audit event: %w", err)
	}

	_, err = exec.ExecContext(ctx, insertOutbox,
		uuid.New(),
		string(event.Type),
		event.ID,
		event.Action,
		payload,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListSince returns events newer than since, oldest first.
func (s *Store) ListSince(ctx context.Context, since time.Time) ([]audit.Event, error) {
	query := `
		SELECT id, category, event_type, timestamp, user_id, role, domain,
			   document_id, action, decision, reason, framework, query, request_id
		FROM audit_events
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event     audit.Event
			category  string
			eventType string
		)
		if err := rows.Scan(
			&event.ID,
			&category,
			&eventType,
			&event.Timestamp,
			&event.UserID,
			&event.Role,
			&event.Domain,
			&event.DocumentID,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.Framework,
			&event.Query,
			&event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Type = audit.EventType(eventType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
