// Package pipeline serializes import and migration passes. Both rewrite the
// staging database and the attachment directory, so only one pass may be in
// flight per process.
package pipeline

import (
	"context"
	"sync/atomic"

	"railbridge/pkg/types"
)

// Coordinator admits one run at a time. The zero value is ready to use.
type Coordinator struct {
	busy atomic.Bool
}

// Do runs fn if no other run is in flight, otherwise returns ErrBusy
// immediately; callers are expected to retry later, not queue.
func (c *Coordinator) Do(ctx context.Context, fn func(context.Context) error) error {
	if !c.busy.CompareAndSwap(false, true) {
		return types.ErrBusy
	}
	defer c.busy.Store(false)
	return fn(ctx)
}

// Busy reports whether a run is currently in flight.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}
