package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rl1809/formalin/internal/core/service"
	"github.com/rl1809/formalin/internal/port"
)

// Scheduler runs the periodic expiry report.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	expirySvc *service.ExpiryService
	sink      port.ReportRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a scheduler for the given cron spec (standard 5-field
// syntax). sink may be nil, in which case reports are only logged.
func NewScheduler(spec string, expirySvc *service.ExpiryService, sink port.ReportRepository, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:      cron.New(),
		spec:      spec,
		expirySvc: expirySvc,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the expiry job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.spec))

	if _, err := s.cron.AddFunc(s.spec, s.runExpiryReport); err != nil {
		return fmt.Errorf("schedule expiry report %q: %w", s.spec, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runExpiryReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("expiry report failed", zap.Error(err))
	}
}

// RunOnce builds one report for the current time and stores it.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	report, err := s.expirySvc.Report(ctx, s.now())
	if err != nil {
		return err
	}

	s.logger.Info("expiry report generated",
		zap.String("as_of", report.AsOf),
		zap.Int("expired", report.Count))

	if s.sink == nil {
		return nil
	}
	if err := s.sink.SaveExpiryReport(ctx, report); err != nil {
		return fmt.Errorf("save expiry report: %w", err)
	}
	return nil
}
