package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aimux/aimux/models"
)

const interactionSchema = `
CREATE TABLE IF NOT EXISTS llm_interactions (
	id             UUID PRIMARY KEY,
	provider       TEXT NOT NULL,
	operation      TEXT NOT NULL,
	input          TEXT NOT NULL,
	output         TEXT,
	options        TEXT NOT NULL DEFAULT '{}',
	tokens_used    INTEGER NOT NULL DEFAULT 0,
	duration_secs  DOUBLE PRECISION NOT NULL DEFAULT 0,
	success        BOOLEAN NOT NULL,
	error_message  TEXT,
	caller_id      TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_llm_interactions_provider_created
	ON llm_interactions (provider, created_at DESC);
`

// InteractionRepository persists audit records in PostgreSQL.
type InteractionRepository struct {
	db *sql.DB
}

// NewInteractionRepository creates a repository on an existing pool.
func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// EnsureSchema creates the audit table when it does not exist yet.
func (r *InteractionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, interactionSchema); err != nil {
		return fmt.Errorf("ensure interaction schema: %w", err)
	}
	return nil
}

// Insert writes one interaction record.
func (r *InteractionRepository) Insert(ctx context.Context, record *models.InteractionRecord) error {
	const query = `
		INSERT INTO llm_interactions
			(id, provider, operation, input, output, options, tokens_used,
			 duration_secs, success, error_message, caller_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Provider,
		record.Operation,
		record.Input,
		record.Output,
		record.Options,
		record.TokensUsed,
		record.DurationSecs,
		record.Success,
		record.ErrorMessage,
		record.CallerID,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert interaction record: %w", err)
	}
	return nil
}
