// Package audit writes interaction records asynchronously through a
// buffered worker pool. Write failures are reported to the process log and
// never surface to the request path.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aimux/aimux/models"
	"github.com/aimux/aimux/repositories"
)

// Config sizes the audit pipeline.
type Config struct {
	// BufferSize is the capacity of the pending-record channel.
	BufferSize int

	// WorkerCount is the number of concurrent writers.
	WorkerCount int

	// WriteTimeout bounds one repository insert.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default pipeline sizing.
func DefaultConfig() Config {
	return Config{
		BufferSize:   10000,
		WorkerCount:  5,
		WriteTimeout: 5 * time.Second,
	}
}

// Service is the asynchronous audit logger.
type Service struct {
	repo    repositories.InteractionRepository
	logger  *zap.Logger
	config  Config
	records chan *models.InteractionRecord
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewService creates an audit service; Start must be called before Record.
func NewService(repo repositories.InteractionRepository, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Service{
		repo:    repo,
		logger:  logger,
		config:  config,
		records: make(chan *models.InteractionRecord, config.BufferSize),
	}
}

// Start launches the worker pool.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}
	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.config.WorkerCount),
		zap.Int("buffer_size", s.config.BufferSize))
	return nil
}

// Stop drains pending records, waiting at most timeout.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_records", len(s.records)))
	close(s.records)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Record enqueues one interaction record. When the buffer is full the record
// is dropped with a warning; auditing never blocks or fails the caller.
func (s *Service) Record(record *models.InteractionRecord) {
	s.mu.Lock()
	stopped := s.stopped || !s.started
	s.mu.Unlock()
	if stopped {
		s.logger.Warn("audit record discarded, service not running",
			zap.String("provider", record.Provider),
			zap.String("operation", record.Operation))
		return
	}

	select {
	case s.records <- record:
	default:
		s.logger.Warn("audit buffer full, record dropped",
			zap.String("provider", record.Provider),
			zap.String("operation", record.Operation))
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	for record := range s.records {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
		if err := s.repo.Insert(ctx, record); err != nil {
			s.logger.Error("failed to write audit record",
				zap.Int("worker", id),
				zap.String("record_id", record.ID.String()),
				zap.Error(err))
		}
		cancel()
	}
}
