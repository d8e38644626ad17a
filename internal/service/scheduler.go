package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"banreport/internal/domain"
)

// RunTrigger starts one report run.
type RunTrigger interface {
	Run(ctx context.Context) (*domain.RunStats, error)
}

// Scheduler runs the report service on a cron schedule in serve mode.
type Scheduler struct {
	service RunTrigger
	spec    string
	logger  *zap.Logger
}

func NewScheduler(service RunTrigger, spec string, logger *zap.Logger) (*Scheduler, error) {
	if service == nil {
		return nil, fmt.Errorf("run trigger is required")
	}

	trimmedSpec := strings.TrimSpace(spec)
	if trimmedSpec == "" {
		return nil, fmt.Errorf("cron spec is required")
	}
	if _, err := cron.ParseStandard(trimmedSpec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		service: service,
		spec:    trimmedSpec,
		logger:  logger,
	}, nil
}

// Start blocks until the context is done, then waits for any in-flight run.
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c := cron.New()
	_, err := c.AddFunc(s.spec, func() {
		stats, err := s.service.Run(ctx)
		if err != nil {
			s.logger.Error("scheduled run failed", zap.Error(err))
			return
		}
		s.logger.Info("scheduled run finished",
			zap.String("runId", stats.RunID),
			zap.String("status", stats.Status.String()),
			zap.Duration("duration", stats.Duration),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule report run: %w", err)
	}

	c.Start()
	s.logger.Info("report scheduler started", zap.String("schedule", s.spec))

	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("scheduler stop timed out waiting for running job")
	}

	return nil
}
