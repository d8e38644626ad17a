package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"banreport/internal/domain"
	"banreport/internal/notify"
	"banreport/internal/observability"
	"banreport/internal/pipeline"
)

// BatchRunner executes one enrichment run.
type BatchRunner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// ReportWriter renders the final batch to the report file.
type ReportWriter interface {
	Write(records []domain.Record) error
}

// RunStore persists completed runs for the history API.
type RunStore interface {
	Create(ctx context.Context, stats domain.RunStats, records []domain.Record, reportPath string) error
}

// ReportService runs the full report flow: enrich, render, persist, notify.
// Report, persistence, and notification failures are logged and never fail a
// completed run.
type ReportService struct {
	runner     BatchRunner
	writer     ReportWriter
	runs       RunStore
	notifier   notify.Notifier
	reportPath string
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	// Serializes runs: manual triggers and the schedule share one pipeline
	// and one output file.
	mu sync.Mutex
}

func NewReportService(
	runner BatchRunner,
	writer ReportWriter,
	runs RunStore,
	reportPath string,
	logger *zap.Logger,
) (*ReportService, error) {
	if runner == nil {
		return nil, fmt.Errorf("batch runner is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("report writer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReportService{
		runner:     runner,
		writer:     writer,
		runs:       runs,
		reportPath: reportPath,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *ReportService) SetNotifier(notifier notify.Notifier) {
	if s == nil {
		return
	}
	s.notifier = notifier
}

func (s *ReportService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *ReportService) Run(ctx context.Context) (*domain.RunStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	logger := observability.WithContextLogger(s.logger, ctx)

	start := s.now()
	result, err := s.runner.Run(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncRun("failed")
		}
		return nil, fmt.Errorf("enrichment run failed: %w", err)
	}

	writeErr := s.writer.Write(result.Records)
	if writeErr != nil {
		logger.Error("report write failed", zap.Error(writeErr))
	}

	stats := domain.RunStats{
		RunID:     runID,
		Status:    runStatus(result.State),
		StartTime: start.UTC(),
		Duration:  s.now().Sub(start),
		TotalKeys: len(result.Records),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}

	if s.notifier != nil {
		if err := s.notifier.SendStats(ctx, stats); err != nil {
			logger.Warn("stats notification failed", zap.Error(err))
		}
		if writeErr == nil {
			if err := s.notifier.SendDocument(ctx, s.reportPath); err != nil {
				logger.Warn("report upload failed", zap.Error(err))
			}
		}
	}

	if s.runs != nil {
		if err := s.runs.Create(ctx, stats, result.Records, s.reportPath); err != nil {
			logger.Error("failed to persist run", zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.IncRun(stats.Status.String())
		s.metrics.ObserveRunDuration(stats.Duration)
	}

	logger.Info("report run completed",
		zap.String("status", stats.Status.String()),
		zap.Int("totalKeys", stats.TotalKeys),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", stats.Duration),
	)

	return &stats, nil
}

func runStatus(state pipeline.State) domain.RunStatus {
	if state == pipeline.StateCompletedEmpty {
		return domain.RunStatusCompletedEmpty
	}
	return domain.RunStatusCompleted
}
