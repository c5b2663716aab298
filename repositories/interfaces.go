// Package repositories defines the persistence interfaces consumed by the
// services layer.
package repositories

import (
	"context"

	"github.com/aimux/aimux/models"
)

// InteractionRepository is the durable store for audit records.
type InteractionRepository interface {
	// Insert writes one interaction record.
	Insert(ctx context.Context, record *models.InteractionRecord) error
}
