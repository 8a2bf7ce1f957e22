package reactor

import (
	"context"
	"sync/atomic"
)

// Run drives the reactor on the calling goroutine, calling Wait until it
// returns false or an error.
//
// Cancelling ctx calls Notify, so Run returns ctx.Err() once the blocked Wait
// observes it. Run returns nil if it stopped because of some other Notify, and
// the first error returned by Wait otherwise. Drivers that want to recover
// from callback errors should call Wait directly.
func (r *Reactor) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var cancelled atomic.Bool

	// Start context watcher goroutine to wake the reactor on cancellation
	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancelled.Store(true)
			r.Notify()
		case <-ctxDone:
		}
	}()
	defer close(ctxDone)

	for {
		ok, err := r.Wait()
		if err != nil {
			return err
		}
		if !ok {
			if cancelled.Load() {
				return ctx.Err()
			}
			return nil
		}
	}
}
