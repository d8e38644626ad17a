// Package pipeline coordinates the bounded-concurrency enrichment of banned
// addresses: discover keys, fan out rate-limited lookups, aggregate results.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"banreport/internal/domain"
	"banreport/internal/keysource"
	"banreport/internal/lookup"
	"banreport/internal/observability"
	"banreport/internal/ratelimit"
)

// State identifies where a run currently is.
type State string

const (
	StateIdle           State = "IDLE"
	StateDiscovering    State = "DISCOVERING"
	StateEnriching      State = "ENRICHING"
	StateCompleted      State = "COMPLETED"
	StateCompletedEmpty State = "COMPLETED_EMPTY"
)

// Enricher resolves metadata for one key.
type Enricher interface {
	Lookup(ctx context.Context, key string) (lookup.Metadata, error)
}

// Observer is called after every recorded key.
type Observer func(completed, total int)

// Result is the read-only outcome of one run.
type Result struct {
	State     State
	Records   []domain.Record
	Succeeded int
	Failed    int
}

type Pipeline struct {
	lister   keysource.Lister
	enricher Enricher
	slots    *ratelimit.Slots
	waiter   ratelimit.Waiter
	logger   *zap.Logger
	metrics  *observability.Metrics
	observer Observer
	now      func() time.Time

	mu    sync.Mutex
	state State
}

func New(
	lister keysource.Lister,
	enricher Enricher,
	slots *ratelimit.Slots,
	waiter ratelimit.Waiter,
	logger *zap.Logger,
) (*Pipeline, error) {
	if lister == nil {
		return nil, fmt.Errorf("lister is required")
	}
	if enricher == nil {
		return nil, fmt.Errorf("enricher is required")
	}
	if slots == nil {
		return nil, fmt.Errorf("slots limiter is required")
	}
	if waiter == nil {
		waiter = ratelimit.NopWaiter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		lister:   lister,
		enricher: enricher,
		slots:    slots,
		waiter:   waiter,
		logger:   logger,
		now:      time.Now,
		state:    StateIdle,
	}, nil
}

func (p *Pipeline) SetMetrics(metrics *observability.Metrics) {
	if p == nil {
		return
	}
	p.metrics = metrics
}

func (p *Pipeline) SetObserver(observer Observer) {
	if p == nil {
		return
	}
	p.observer = observer
}

func (p *Pipeline) State() State {
	if p == nil {
		return StateIdle
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run discovers the banned keys and enriches every one of them under the
// slot cap. A run never completes while any record is still pending: every
// submitted key resolves to OK or FAILED before Run returns.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	p.setState(StateDiscovering)

	listing, err := p.lister.List(ctx)
	if err != nil {
		// Discovery failure is not fatal; the run proceeds with zero keys.
		p.logger.Warn("firewall listing failed, continuing with empty key set", zap.Error(err))
		listing = ""
	}

	keys := keysource.Extract(listing)
	aggregator := NewAggregator(keys)
	if p.metrics != nil {
		p.metrics.AddKeysDiscovered(aggregator.Total())
	}

	if aggregator.Total() == 0 {
		p.setState(StateCompletedEmpty)
		return p.result(StateCompletedEmpty, aggregator), nil
	}

	p.setState(StateEnriching)
	p.logger.Info("enriching banned addresses",
		zap.Int("keys", aggregator.Total()),
		zap.Int("maxConcurrent", p.slots.Capacity()),
	)

	g, groupCtx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		// Acquiring before spawning keeps admission in discovery order.
		if err := p.slots.Acquire(groupCtx); err != nil {
			p.record(aggregator, key, lookup.Metadata{}, &lookup.LookupError{
				Key:     key,
				Message: "slot acquire failed",
				Cause:   err,
			})
			continue
		}

		g.Go(func() error {
			defer p.slots.Release()
			p.enrichOne(groupCtx, key, aggregator)
			return nil
		})
	}
	_ = g.Wait()

	p.setState(StateCompleted)
	return p.result(StateCompleted, aggregator), nil
}

func (p *Pipeline) enrichOne(ctx context.Context, key string, aggregator *Aggregator) {
	if err := p.waiter.Wait(ctx, "lookup"); err != nil {
		p.record(aggregator, key, lookup.Metadata{}, &lookup.LookupError{
			Key:     key,
			Message: "rate limiter wait failed",
			Cause:   err,
		})
		return
	}

	if p.metrics != nil {
		p.metrics.IncLookupInFlight()
		defer p.metrics.DecLookupInFlight()
	}

	start := p.now()
	meta, err := p.enricher.Lookup(ctx, key)
	if p.metrics != nil {
		p.metrics.ObserveLookupDuration(p.now().Sub(start))
	}

	p.record(aggregator, key, meta, err)
}

func (p *Pipeline) record(aggregator *Aggregator, key string, meta lookup.Metadata, lookupErr error) {
	if lookupErr != nil {
		p.logger.Warn("lookup failed", zap.String("ip", key), zap.Error(lookupErr))
		if p.metrics != nil {
			p.metrics.IncLookup("failed")
		}
	} else if p.metrics != nil {
		p.metrics.IncLookup("ok")
	}

	if !aggregator.Record(key, meta, lookupErr) {
		p.logger.Warn("duplicate completion ignored", zap.String("ip", key))
		return
	}

	if p.observer != nil {
		completed, total := aggregator.Progress()
		p.observer(completed, total)
	}
}

func (p *Pipeline) result(state State, aggregator *Aggregator) *Result {
	records := aggregator.Snapshot()

	result := &Result{
		State:   state,
		Records: records,
	}
	for _, record := range records {
		switch record.Status {
		case domain.RecordStatusOK:
			result.Succeeded++
		case domain.RecordStatusFailed:
			result.Failed++
		}
	}
	return result
}

func (p *Pipeline) setState(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}
