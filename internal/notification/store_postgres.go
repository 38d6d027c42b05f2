package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fedevents/pkg/platform/sentinel"
	"fedevents/pkg/platform/tx"
)

// PostgresStore persists the ledger in PostgreSQL through database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q prefers a transaction carried in the context over the pooled handle.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	row := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO notificaciones (usuario_id, evento_id, tipo, nivel, titulo, mensaje, leido, creado_en)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
		RETURNING id`,
		n.UserID, n.EventID, string(n.Kind), string(n.Level), n.Title, n.Message, n.CreatedAt,
	)
	if err := row.Scan(&n.ID); err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, q Query) ([]Notification, error) {
	query := `
		SELECT id, usuario_id, evento_id, tipo, nivel, titulo, mensaje, leido, leido_en, creado_en
		FROM notificaciones
		WHERE usuario_id = $1`
	args := []any{q.UserID}
	switch q.Filter {
	case FilterUnread:
		query += ` AND NOT leido`
	case FilterRead:
		query += ` AND leido`
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		query += fmt.Sprintf(` AND (titulo ILIKE $%d OR mensaje ILIKE $%d)`, len(args), len(args))
	}
	query += ` ORDER BY creado_en DESC`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var kind, level string
		if err := rows.Scan(&n.ID, &n.UserID, &n.EventID, &kind, &level,
			&n.Title, &n.Message, &n.Read, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = Kind(kind)
		n.Level = Level(level)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notificaciones WHERE usuario_id = $1 AND NOT leido`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) SetRead(ctx context.Context, id, userID int64, read bool, at time.Time) error {
	var readAt *time.Time
	if read {
		readAt = &at
	}
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE notificaciones SET leido = $1, leido_en = $2 WHERE id = $3 AND usuario_id = $4`,
		read, readAt, id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification: %w", err)
	}
	return affectedOrNotFound(res)
}

func (s *PostgresStore) SetReadAll(ctx context.Context, userID int64, read bool, at time.Time) (int, error) {
	var readAt *time.Time
	if read {
		readAt = &at
	}
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE notificaciones SET leido = $1, leido_en = $2 WHERE usuario_id = $3 AND leido <> $1`,
		read, readAt, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications: %w", err)
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (s *PostgresStore) Delete(ctx context.Context, id, userID int64) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM notificaciones WHERE id = $1 AND usuario_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return affectedOrNotFound(res)
}

func (s *PostgresStore) Clear(ctx context.Context, userID int64) (int, error) {
	res, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM notificaciones WHERE usuario_id = $1`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func affectedOrNotFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
