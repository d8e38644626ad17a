package ratelimit

import (
	"context"
	"fmt"
)

// Slots caps the number of concurrently in-flight lookup calls. Callers
// acquire a slot before dispatching a call and release it when the call
// resolves, success or failure alike. When the dispatcher acquires from a
// single goroutine, admission happens in submission order.
type Slots struct {
	sem chan struct{}
}

func NewSlots(capacity int) (*Slots, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("slot capacity must be at least 1, got %d", capacity)
	}
	return &Slots{sem: make(chan struct{}, capacity)}, nil
}

// Acquire blocks until a slot is free or the context is done.
func (s *Slots) Acquire(ctx context.Context) error {
	if s == nil || s.sem == nil {
		return fmt.Errorf("slots limiter is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees one slot. Releasing more than was acquired is a no-op.
func (s *Slots) Release() {
	if s == nil || s.sem == nil {
		return
	}
	select {
	case <-s.sem:
	default:
	}
}

func (s *Slots) Capacity() int {
	if s == nil {
		return 0
	}
	return cap(s.sem)
}

// InFlight reports how many slots are currently held.
func (s *Slots) InFlight() int {
	if s == nil {
		return 0
	}
	return len(s.sem)
}
