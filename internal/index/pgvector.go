package index

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"debatehub/internal/apperr"
)

// PGVector keeps a request's entries as rows in the rag_chunks pgvector
// table behind an ivfflat cosine index. Rows are keyed by a random
// request token and deleted on Close, so the table never outlives the
// requests that filled it.
type PGVector struct {
	db    *sql.DB
	token string
	count int
}

// NewPGVector creates an empty pgvector-backed index for one request.
func NewPGVector(db *sql.DB) (*PGVector, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("%w: request token: %v", apperr.ErrStore, err)
	}
	return &PGVector{db: db, token: hex.EncodeToString(buf)}, nil
}

// Add inserts entries in one transaction so a failed build leaves no
// partial index behind.
func (p *PGVector) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rag_chunks (request_id, seq, topic, client_id, chunk_text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, p.token, p.count+i, e.Topic, e.ClientID, e.Text, vectorLiteral(e.Vector)); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("%w: %v", apperr.ErrStore, err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	p.count += len(entries)
	return nil
}

// Query returns up to k entries by ascending cosine distance; seq keeps
// insertion order for ties.
func (p *PGVector) Query(ctx context.Context, vector []float32, k int) ([]Entry, error) {
	if k <= 0 || p.count == 0 {
		return nil, nil
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT topic, client_id, chunk_text
		FROM rag_chunks
		WHERE request_id = $1
		ORDER BY embedding <=> $2::vector, seq
		LIMIT $3
	`, p.token, vectorLiteral(vector), k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Topic, &e.ClientID, &e.Text); err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return out, nil
}

// Close drops this request's rows.
func (p *PGVector) Close(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM rag_chunks WHERE request_id = $1`, p.token); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStore, err)
	}
	return nil
}

func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, f := range v {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("%.6f", float64(f)))
	}
	sb.WriteString("]")
	return sb.String()
}
