// Package store persists debate records in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"debatehub/internal/apperr"
	"debatehub/internal/model"
)

// PgStore is the Postgres-backed debate store.
type PgStore struct {
	db *sql.DB
}

// NewPgStore opens the connection and bootstraps the schema. embedDim
// sizes the pgvector column used by the pgvector index backend.
func NewPgStore(conn string, embedDim int) (*PgStore, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db, embedDim); err != nil {
		return nil, err
	}
	return &PgStore{db: db}, nil
}

// DB exposes the underlying pool for the pgvector index backend.
func (s *PgStore) DB() *sql.DB { return s.db }

// Create inserts a new debate record and returns it with the
// store-assigned id and creation time filled in.
func (s *PgStore) Create(ctx context.Context, d *model.Debate) (*model.Debate, error) {
	history, err := json.Marshal(d.ChatHistory)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	adjudication := d.Adjudication
	if len(adjudication) == 0 {
		adjudication = json.RawMessage(`{}`)
	}
	attachments := []byte(`[]`)
	if len(d.Attachments) > 0 {
		if attachments, err = json.Marshal(d.Attachments); err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
		}
	}

	saved := *d
	saved.Adjudication = adjudication
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO debates (client_id, topic, user_role, chat_history, adjudication, attachments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, d.ClientID, d.Topic, d.UserRole, history, []byte(adjudication), attachments).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert debate: %v", apperr.ErrStore, err)
	}
	return &saved, nil
}

// List returns summaries of all debates, newest first.
func (s *PgStore) List(ctx context.Context) ([]model.DebateSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, user_role, client_id, created_at
		FROM debates
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list debates: %v", apperr.ErrStore, err)
	}
	defer rows.Close()

	out := []model.DebateSummary{}
	for rows.Next() {
		var d model.DebateSummary
		if err := rows.Scan(&d.ID, &d.Topic, &d.UserRole, &d.ClientID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return out, nil
}

// GetByID loads one full debate record.
func (s *PgStore) GetByID(ctx context.Context, id int64) (*model.Debate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, topic, user_role, chat_history, adjudication, attachments, created_at
		FROM debates
		WHERE id = $1
	`, id)
	d, err := scanDebate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: debate %d", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get debate: %v", apperr.ErrStore, err)
	}
	return d, nil
}

// ListByClient returns the full records matching clientID, newest
// first. An empty clientID matches every record.
func (s *PgStore) ListByClient(ctx context.Context, clientID string) ([]model.Debate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, topic, user_role, chat_history, adjudication, attachments, created_at
		FROM debates
		WHERE $1 = '' OR client_id = $1
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: list debates by client: %v", apperr.ErrStore, err)
	}
	defer rows.Close()

	var out []model.Debate
	for rows.Next() {
		d, err := scanDebate(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebate(row rowScanner) (*model.Debate, error) {
	var (
		d            model.Debate
		history      []byte
		adjudication []byte
		attachments  []byte
	)
	if err := row.Scan(&d.ID, &d.ClientID, &d.Topic, &d.UserRole, &history, &adjudication, &attachments, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &d.ChatHistory); err != nil {
		return nil, err
	}
	d.Adjudication = json.RawMessage(adjudication)
	if err := json.Unmarshal(attachments, &d.Attachments); err != nil {
		return nil, err
	}
	return &d, nil
}
