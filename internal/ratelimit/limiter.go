package ratelimit

import "context"

// Waiter throttles outbound lookup calls beyond the in-process slot cap,
// e.g. when several report hosts share one API token.
type Waiter interface {
	Wait(ctx context.Context, scope string) error
}

// NopWaiter applies no additional throttling.
type NopWaiter struct{}

func (NopWaiter) Wait(ctx context.Context, scope string) error { return nil }
