package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fedevents/pkg/platform/tx"
)

// PostgresStore persists the trail in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, ev Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO auditoria (id, registrado_en, actor_id, evento_id, accion, sujeto, detalle)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.Timestamp, ev.ActorID, ev.EventID, string(ev.Action), ev.Subject, ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, registrado_en, actor_id, evento_id, accion, sujeto, detalle
		FROM auditoria
		WHERE evento_id = $1
		ORDER BY registrado_en`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var action string
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.ActorID, &ev.EventID,
			&action, &ev.Subject, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.Action = Action(action)
		out = append(out, ev)
	}
	return out, rows.Err()
}
