package store

import (
	"database/sql"
	"fmt"
)

// ensureSchema creates the pgvector extension, the debates table and
// the request-scoped rag_chunks table with its ivfflat cosine index.
func ensureSchema(db *sql.DB, embedDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS debates (
			id BIGSERIAL PRIMARY KEY,
			client_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			user_role TEXT NOT NULL,
			chat_history JSONB NOT NULL DEFAULT '[]',
			adjudication JSONB NOT NULL DEFAULT '{}',
			attachments JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS debates_client_created_idx
			ON debates (client_id, created_at DESC)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_chunks (
			id BIGSERIAL PRIMARY KEY,
			request_id TEXT NOT NULL,
			seq INT NOT NULL,
			topic TEXT,
			client_id TEXT,
			chunk_text TEXT NOT NULL,
			embedding vector(%d)
		)`, embedDim),
		`CREATE INDEX IF NOT EXISTS rag_chunks_request_idx ON rag_chunks (request_id)`,
		// rows are request-scoped; anything still here at startup was
		// stranded by a crash mid-request
		`DELETE FROM rag_chunks`,
		`DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_class c
				JOIN pg_namespace n ON n.oid=c.relnamespace
				WHERE c.relname='rag_chunks_embedding_ivfflat_idx'
			) THEN
				EXECUTE 'CREATE INDEX rag_chunks_embedding_ivfflat_idx ON rag_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists=100)';
			END IF;
		END $$;`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}

	// ANALYZE keeps the ivfflat planner stats usable
	_, _ = db.Exec(`ANALYZE rag_chunks`)
	return nil
}
