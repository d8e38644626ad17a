package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"banreport/internal/domain"
	"banreport/internal/pipeline"
)

type fakeRunner struct {
	runFn func(ctx context.Context) (*pipeline.Result, error)
	calls int
}

func (f *fakeRunner) Run(ctx context.Context) (*pipeline.Result, error) {
	f.calls++
	return f.runFn(ctx)
}

type fakeWriter struct {
	writeFn func(records []domain.Record) error
	calls   int
	records []domain.Record
}

func (f *fakeWriter) Write(records []domain.Record) error {
	f.calls++
	f.records = records
	if f.writeFn != nil {
		return f.writeFn(records)
	}
	return nil
}

type fakeRunStore struct {
	createFn   func(ctx context.Context, stats domain.RunStats, records []domain.Record, reportPath string) error
	calls      int
	stats      domain.RunStats
	records    []domain.Record
	reportPath string
}

func (f *fakeRunStore) Create(ctx context.Context, stats domain.RunStats, records []domain.Record, reportPath string) error {
	f.calls++
	f.stats = stats
	f.records = records
	f.reportPath = reportPath
	if f.createFn != nil {
		return f.createFn(ctx, stats, records, reportPath)
	}
	return nil
}

type fakeNotifier struct {
	sendStatsFn    func(ctx context.Context, stats domain.RunStats) error
	sendDocumentFn func(ctx context.Context, path string) error
	statsCalls     int
	documentCalls  int
	lastStats      domain.RunStats
	lastPath       string
}

func (f *fakeNotifier) SendStats(ctx context.Context, stats domain.RunStats) error {
	f.statsCalls++
	f.lastStats = stats
	if f.sendStatsFn != nil {
		return f.sendStatsFn(ctx, stats)
	}
	return nil
}

func (f *fakeNotifier) SendDocument(ctx context.Context, path string) error {
	f.documentCalls++
	f.lastPath = path
	if f.sendDocumentFn != nil {
		return f.sendDocumentFn(ctx, path)
	}
	return nil
}

func completedResult() *pipeline.Result {
	return &pipeline.Result{
		State: pipeline.StateCompleted,
		Records: []domain.Record{
			{Key: "203.0.113.7", Country: "Germany", City: "Berlin", Provider: "Example AG", Status: domain.RecordStatusOK},
			{Key: "198.51.100.23", Status: domain.RecordStatusFailed},
		},
		Succeeded: 1,
		Failed:    1,
	}
}

func TestNewReportService_Validation(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) { return completedResult(), nil }}
	writer := &fakeWriter{}

	if _, err := NewReportService(nil, writer, nil, "report.xlsx", nil); err == nil {
		t.Fatal("expected error for nil runner")
	}
	if _, err := NewReportService(runner, nil, nil, "report.xlsx", nil); err == nil {
		t.Fatal("expected error for nil writer")
	}
	if _, err := NewReportService(runner, writer, nil, "report.xlsx", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReportService_Run_HappyPath(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) { return completedResult(), nil }}
	writer := &fakeWriter{}
	store := &fakeRunStore{}
	notifier := &fakeNotifier{}

	svc, err := NewReportService(runner, writer, store, "ip_report.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.SetNotifier(notifier)

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Status != domain.RunStatusCompleted {
		t.Fatalf("status=%s, want=%s", stats.Status, domain.RunStatusCompleted)
	}
	if stats.RunID == "" {
		t.Fatal("expected a run id")
	}
	if stats.TotalKeys != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Fatalf("counts=%d/%d/%d, want=2/1/1", stats.TotalKeys, stats.Succeeded, stats.Failed)
	}

	if writer.calls != 1 {
		t.Fatalf("writer calls=%d, want=1", writer.calls)
	}
	if len(writer.records) != 2 {
		t.Fatalf("written records=%d, want=2", len(writer.records))
	}

	if notifier.statsCalls != 1 {
		t.Fatalf("stats notifications=%d, want=1", notifier.statsCalls)
	}
	if notifier.documentCalls != 1 {
		t.Fatalf("document uploads=%d, want=1", notifier.documentCalls)
	}
	if notifier.lastPath != "ip_report.xlsx" {
		t.Fatalf("uploaded path=%q, want=%q", notifier.lastPath, "ip_report.xlsx")
	}

	if store.calls != 1 {
		t.Fatalf("store calls=%d, want=1", store.calls)
	}
	if store.stats.RunID != stats.RunID {
		t.Fatalf("persisted run id=%q, want=%q", store.stats.RunID, stats.RunID)
	}
	if store.reportPath != "ip_report.xlsx" {
		t.Fatalf("persisted report path=%q, want=%q", store.reportPath, "ip_report.xlsx")
	}
}

func TestReportService_Run_EmptyBatch(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) {
		return &pipeline.Result{State: pipeline.StateCompletedEmpty}, nil
	}}
	writer := &fakeWriter{}

	svc, err := NewReportService(runner, writer, nil, "report.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Status != domain.RunStatusCompletedEmpty {
		t.Fatalf("status=%s, want=%s", stats.Status, domain.RunStatusCompletedEmpty)
	}
	if stats.TotalKeys != 0 {
		t.Fatalf("total keys=%d, want=0", stats.TotalKeys)
	}
	if writer.calls != 1 {
		t.Fatalf("writer calls=%d, want=1", writer.calls)
	}
}

func TestReportService_Run_RunnerFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) {
		return nil, errors.New("iptables unavailable")
	}}
	writer := &fakeWriter{}
	notifier := &fakeNotifier{}

	svc, err := NewReportService(runner, writer, nil, "report.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.SetNotifier(notifier)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error when the runner fails")
	}

	if writer.calls != 0 {
		t.Fatalf("writer calls=%d, want=0", writer.calls)
	}
	if notifier.statsCalls != 0 {
		t.Fatalf("stats notifications=%d, want=0", notifier.statsCalls)
	}
}

func TestReportService_Run_WriterFailureSkipsUpload(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) { return completedResult(), nil }}
	writer := &fakeWriter{writeFn: func(records []domain.Record) error {
		return errors.New("disk full")
	}}
	store := &fakeRunStore{}
	notifier := &fakeNotifier{}

	svc, err := NewReportService(runner, writer, store, "report.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.SetNotifier(notifier)

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Status != domain.RunStatusCompleted {
		t.Fatalf("status=%s, want=%s", stats.Status, domain.RunStatusCompleted)
	}
	if notifier.statsCalls != 1 {
		t.Fatalf("stats notifications=%d, want=1", notifier.statsCalls)
	}
	if notifier.documentCalls != 0 {
		t.Fatalf("document uploads=%d, want=0", notifier.documentCalls)
	}
	if store.calls != 1 {
		t.Fatalf("store calls=%d, want=1", store.calls)
	}
}

func TestReportService_Run_NotifierFailuresAreNonFatal(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) { return completedResult(), nil }}
	writer := &fakeWriter{}
	notifier := &fakeNotifier{
		sendStatsFn:    func(ctx context.Context, stats domain.RunStats) error { return errors.New("telegram down") },
		sendDocumentFn: func(ctx context.Context, path string) error { return errors.New("telegram down") },
	}

	svc, err := NewReportService(runner, writer, nil, "report.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.SetNotifier(notifier)

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Status != domain.RunStatusCompleted {
		t.Fatalf("status=%s, want=%s", stats.Status, domain.RunStatusCompleted)
	}
}

func TestReportService_Run_StoreFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) { return completedResult(), nil }}
	writer := &fakeWriter{}
	store := &fakeRunStore{createFn: func(ctx context.Context, stats domain.RunStats, records []domain.Record, reportPath string) error {
		return errors.New("database locked")
	}}

	svc, err := NewReportService(runner, writer, store, "report.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReportService_Run_DurationFromInjectedClock(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{runFn: func(ctx context.Context) (*pipeline.Result, error) { return completedResult(), nil }}
	writer := &fakeWriter{}

	svc, err := NewReportService(runner, writer, nil, "report.xlsx", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Date(2026, time.March, 1, 6, 0, 0, 0, time.UTC)
	ticks := 0
	svc.now = func() time.Time {
		ticks++
		if ticks == 1 {
			return start
		}
		return start.Add(42 * time.Second)
	}

	stats, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !stats.StartTime.Equal(start) {
		t.Fatalf("start=%v, want=%v", stats.StartTime, start)
	}
	if stats.Duration != 42*time.Second {
		t.Fatalf("duration=%v, want=%v", stats.Duration, 42*time.Second)
	}
}
