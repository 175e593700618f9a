package runs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service journals runs. Journal failures are logged and never propagate to
// the operation being journaled.
type Service struct {
	Store  StoreAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store StoreAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{Store: store, logger: logger, now: time.Now}
}

// Start records run as running and returns its id.
func (s *Service) Start(ctx context.Context, run Run) string {
	run.ID = uuid.NewString()
	run.Status = StatusRunning
	run.CreatedAt = s.now().UTC()
	if err := s.Store.Insert(ctx, run); err != nil {
		s.logger.Warn("run journal insert failed", "kind", run.Kind, "err", err)
	}
	return run.ID
}

// Finish marks the run completed, or failed when runErr is not nil.
func (s *Service) Finish(ctx context.Context, id string, runErr error) {
	status, msg := StatusCompleted, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	if err := s.Store.Complete(ctx, id, status, msg, s.now().UTC()); err != nil {
		s.logger.Warn("run journal update failed", "runId", id, "err", err)
	}
}

// Record journals a run that has already finished.
func (s *Service) Record(ctx context.Context, run Run, runErr error) string {
	id := s.Start(ctx, run)
	s.Finish(ctx, id, runErr)
	return id
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.List(ctx, limit, offset)
}
