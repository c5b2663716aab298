package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/aimux/aimux/models"
)

// LogRepository is the development fallback used when no database is
// configured: records go to the structured log only.
type LogRepository struct {
	logger *zap.Logger
}

// NewLogRepository creates a log-only interaction repository.
func NewLogRepository(logger *zap.Logger) *LogRepository {
	return &LogRepository{logger: logger}
}

// Insert writes the record as a structured log line.
func (r *LogRepository) Insert(_ context.Context, record *models.InteractionRecord) error {
	fields := []zap.Field{
		zap.String("record_id", record.ID.String()),
		zap.String("provider", record.Provider),
		zap.String("operation", record.Operation),
		zap.Int("tokens_used", record.TokensUsed),
		zap.Float64("duration_seconds", record.DurationSecs),
		zap.Bool("success", record.Success),
	}
	if record.ErrorMessage != nil {
		fields = append(fields, zap.String("error_message", *record.ErrorMessage))
	}
	if record.CallerID != nil {
		fields = append(fields, zap.String("caller_id", *record.CallerID))
	}
	r.logger.Info("llm interaction", fields...)
	return nil
}
