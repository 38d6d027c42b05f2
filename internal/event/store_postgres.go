package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fedevents/pkg/platform/sentinel"
	"fedevents/pkg/platform/tx"
)

// PostgresStore persists events in PostgreSQL. The nested aggregate parts
// (categories, scenarios, invitations, timeline) live in JSONB columns;
// only the fields queries filter on get their own column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type eventQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) eventQuerier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

type eventDoc struct {
	Categories  []Category
	Scenarios   []Scenario
	Invitations []Invitation
	Timeline    Timeline
}

func (s *PostgresStore) Save(ctx context.Context, ev *Event) error {
	doc, err := json.Marshal(eventDoc{
		Categories:  ev.Categories,
		Scenarios:   ev.Scenarios,
		Invitations: ev.Invitations,
		Timeline:    ev.Timeline,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ev.UpdatedAt = time.Now().UTC()

	if ev.ID == 0 {
		ev.CreatedAt = ev.UpdatedAt
		row := s.q(ctx).QueryRowContext(ctx, `
			INSERT INTO eventos (admin_id, titulo, descripcion, sexo, deporte_id, detalle,
				estado, imagen_portada, documento_planeacion, eliminado, creado_en, actualizado_en)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING id`,
			ev.AdminID, ev.Title, ev.Description, string(ev.Sex), ev.SportID, doc,
			string(ev.Status), ev.CoverImage, ev.PlanningDoc, ev.Deleted, ev.CreatedAt,
		)
		if err := row.Scan(&ev.ID); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	}

	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO eventos (id, admin_id, titulo, descripcion, sexo, deporte_id, detalle,
			estado, imagen_portada, documento_planeacion, eliminado, creado_en, actualizado_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			admin_id = EXCLUDED.admin_id,
			titulo = EXCLUDED.titulo,
			descripcion = EXCLUDED.descripcion,
			sexo = EXCLUDED.sexo,
			deporte_id = EXCLUDED.deporte_id,
			detalle = EXCLUDED.detalle,
			estado = EXCLUDED.estado,
			imagen_portada = EXCLUDED.imagen_portada,
			documento_planeacion = EXCLUDED.documento_planeacion,
			eliminado = EXCLUDED.eliminado,
			actualizado_en = EXCLUDED.actualizado_en`,
		ev.ID, ev.AdminID, ev.Title, ev.Description, string(ev.Sex), ev.SportID, doc,
		string(ev.Status), ev.CoverImage, ev.PlanningDoc, ev.Deleted, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

const eventColumns = `id, admin_id, titulo, descripcion, sexo, deporte_id, detalle,
	estado, imagen_portada, documento_planeacion, eliminado, creado_en, actualizado_en`

func scanEvent(scan func(...any) error) (*Event, error) {
	var ev Event
	var sex, status string
	var doc []byte
	if err := scan(&ev.ID, &ev.AdminID, &ev.Title, &ev.Description, &sex, &ev.SportID,
		&doc, &status, &ev.CoverImage, &ev.PlanningDoc, &ev.Deleted,
		&ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return nil, err
	}
	var detail eventDoc
	if err := json.Unmarshal(doc, &detail); err != nil {
		return nil, fmt.Errorf("unmarshal event detail: %w", err)
	}
	ev.Sex = Sex(sex)
	ev.Status = Status(status)
	ev.Categories = detail.Categories
	ev.Scenarios = detail.Scenarios
	ev.Invitations = detail.Invitations
	ev.Timeline = detail.Timeline
	return &ev, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Event, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM eventos WHERE id = $1`, id)
	ev, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) List(ctx context.Context, search string) ([]*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM eventos WHERE NOT eliminado`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += ` AND titulo ILIKE $1`
	}
	query += ` ORDER BY id`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM eventos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
