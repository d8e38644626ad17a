package pipeline

import (
	"sync"

	"banreport/internal/domain"
	"banreport/internal/lookup"
)

// Aggregator exclusively owns the batch for the duration of a run. Records
// are seeded pending in discovery order and each key is written at most once.
type Aggregator struct {
	mu      sync.Mutex
	order   []string
	records map[string]*domain.Record
	done    int
}

func NewAggregator(keys []string) *Aggregator {
	a := &Aggregator{
		records: make(map[string]*domain.Record, len(keys)),
	}
	for _, key := range keys {
		if _, ok := a.records[key]; ok {
			continue
		}
		a.order = append(a.order, key)
		a.records[key] = &domain.Record{
			Key:    key,
			Status: domain.RecordStatusPending,
		}
	}
	return a
}

func (a *Aggregator) Total() int {
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Record stores the lookup outcome for key. The first call wins; a repeated
// call for an already-resolved key is ignored and reports false.
func (a *Aggregator) Record(key string, meta lookup.Metadata, lookupErr error) bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.records[key]
	if !ok || record.Status != domain.RecordStatusPending {
		return false
	}

	if lookupErr != nil {
		record.Status = domain.RecordStatusFailed
	} else {
		record.Status = domain.RecordStatusOK
		record.Country = meta.Country
		record.City = meta.City
		record.Provider = meta.Provider
	}

	a.done++
	return true
}

// Progress reports how many keys have resolved out of the total. The
// completed count only ever grows.
func (a *Aggregator) Progress() (completed int, total int) {
	if a == nil {
		return 0, 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done, len(a.order)
}

// Snapshot returns record copies in discovery order.
func (a *Aggregator) Snapshot() []domain.Record {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	records := make([]domain.Record, 0, len(a.order))
	for _, key := range a.order {
		records = append(records, *a.records[key])
	}
	return records
}
