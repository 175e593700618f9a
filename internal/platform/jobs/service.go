package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"designreport/internal/domain/runs"
)

var ErrQueueFull = errors.New("job queue full")

// Job is one unit of background work journaled as a run.
type Job struct {
	Kind      string
	Period    string
	SessionID string
	Run       func(context.Context) error
}

// Service runs queued jobs on a single worker and scheduled jobs on cron
// specs. Every queued job is journaled; scheduled jobs only log.
type Service struct {
	runs   *runs.Service
	logger *slog.Logger
	queue  chan Job
	cron   *cron.Cron

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func New(journal *runs.Service, logger *slog.Logger, queueSize int) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Service{
		runs:   journal,
		logger: logger,
		queue:  make(chan Job, queueSize),
		cron:   cron.New(cron.WithParser(parser)),
	}
}

// Schedule registers fn under a five-field cron spec. It must be called
// before Start.
func (s *Service) Schedule(spec, name string, fn func(context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("scheduled job started", "job", name)
		fn(s.ctx)
	})
	return err
}

func (s *Service) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.worker(s.ctx)
	s.cron.Start()
}

// Stop cancels the worker and waits for it and any running scheduled job.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Service) Enqueue(j Job) error {
	select {
	case s.queue <- j:
		return nil
	default:
		s.logger.Warn("job queue full", "jobType", j.Kind, "sessionId", j.SessionID)
		return ErrQueueFull
	}
}

func (s *Service) RunNow(ctx context.Context, j Job) error {
	return s.runJob(ctx, j)
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.runJob(ctx, j); err != nil {
				s.logger.Warn("job run failed", "jobType", j.Kind, "sessionId", j.SessionID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j Job) error {
	runID := s.runs.Start(ctx, runs.Run{Kind: j.Kind, Period: j.Period, SessionID: j.SessionID})
	err := j.Run(ctx)
	s.runs.Finish(ctx, runID, err)
	return err
}
