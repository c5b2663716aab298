package models

import (
	"time"

	"github.com/google/uuid"
)

// Operation kinds recorded in the audit log.
const (
	OperationGenerate   = "generate"
	OperationChat       = "chat"
	OperationEmbeddings = "embeddings"
)

// InteractionRecord is one durable audit entry for a single provider call.
// Records are written once and never updated.
type InteractionRecord struct {
	ID           uuid.UUID `json:"id"`
	Provider     string    `json:"provider"`
	Operation    string    `json:"operation"`
	Input        string    `json:"input"`
	Output       *string   `json:"output,omitempty"`
	Options      string    `json:"options"`
	TokensUsed   int       `json:"tokens_used"`
	DurationSecs float64   `json:"duration_seconds"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CallerID     *string   `json:"caller_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewInteractionRecord creates a record with a fresh id and timestamp.
func NewInteractionRecord(provider, operation string) *InteractionRecord {
	return &InteractionRecord{
		ID:        uuid.New(),
		Provider:  provider,
		Operation: operation,
		CreatedAt: time.Now(),
	}
}
