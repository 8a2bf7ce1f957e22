package reactor

import (
	"runtime"
	"time"
)

// Wait performs one reactor iteration, and reports whether the driver should
// call it again. The intended driver is:
//
//	for {
//		ok, err := r.Wait()
//		if err != nil {
//			// handle, possibly unregister the offending fd, and continue
//		}
//		if !ok {
//			break
//		}
//	}
//
// An iteration blocks in poll(2) until a watched descriptor is ready, the
// earliest timer is due, or the wakeup channel is signalled. It then invokes,
// in order: ready reader callbacks, ready writer callbacks, ready error
// handlers (each in registration order), then every due timer (earliest
// deadline first, ties in SetTimer order). The set of I/O callbacks to invoke
// is fixed before the first one runs, so changes made by a callback apply
// from the next Wait, except that a timer cancelled by an earlier callback of
// the same pass is skipped.
//
// Wait returns false when it consumed a [Reactor.Notify] signal, and true
// otherwise. A poll failure is returned as a [*PollError] and a callback
// failure, which ends the pass early, as a [*CallbackError]. In both cases
// the tables remain consistent, and Wait may be called again. Panics raised
// by callbacks are not recovered.
//
// Wait must only be called by one goroutine at a time, and never from within
// a callback ([ErrReentrantWait]). After Close it returns [ErrClosed].
func (r *Reactor) Wait() (bool, error) {
	// callbacks are the only code that runs holding the lock
	if r.mu.HeldByCurrent() {
		return false, ErrReentrantWait
	}

	// registrations from other goroutines woke the previous pass, and go first
	for r.contended.Load() > 0 {
		runtime.Gosched()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return false, ErrClosed
	}

	ok, err := r.iterate()
	r.stats.waits.Add(1)
	switch {
	case err != nil:
		r.metrics.recordWait(outcomeError)
	case ok:
		r.metrics.recordWait(outcomeContinue)
	default:
		r.metrics.recordWait(outcomeStop)
	}
	return ok, err
}

func (r *Reactor) iterate() (bool, error) {
	r.buildPollSet()

	timeout := r.pollTimeout(time.Now())
	interrupted, err := r.polls.wait(timeout)
	if err != nil {
		r.logPollError(err)
		return false, err
	}
	if interrupted {
		r.logInterrupted()
	}

	wakeReady := r.polls.ready(r.wake.readFd, readyRead)

	r.queueReady(&r.readers, KindReader, readyRead)
	r.queueReady(&r.writers, KindWriter, readyWrite)
	r.queueReady(&r.errs, KindError, readyError)
	dispatched := r.ready.Length()

	r.logIteration(timeout, wakeReady, dispatched)

	if err := r.dispatchReady(); err != nil {
		return false, err
	}
	if r.closed.Load() {
		return false, nil
	}

	if err := r.runTimers(time.Now()); err != nil {
		return false, err
	}
	if r.closed.Load() {
		return false, nil
	}

	if !wakeReady {
		return true, nil
	}
	if _, err := r.wake.drain(); err != nil {
		err = &PollError{Op: "drain wakeup", Fd: r.wake.readFd, Err: err}
		r.logPollError(err)
		return false, err
	}
	return r.cont.Swap(true), nil
}

// buildPollSet collects the descriptors for the next poll(2): the wakeup
// channel, then every reader, writer and error handler.
func (r *Reactor) buildPollSet() {
	r.polls.reset()
	r.polls.add(r.wake.readFd, pollIn)
	for _, fd := range r.readers.fds() {
		r.polls.add(fd, pollIn)
	}
	for _, fd := range r.writers.fds() {
		r.polls.add(fd, pollOut)
	}
	for _, fd := range r.errs.fds() {
		r.polls.add(fd, pollPri)
	}
}

// pollTimeout returns the time until the earliest timer is due, clamped to
// zero, or -1 (block indefinitely) when no timer is scheduled.
func (r *Reactor) pollTimeout(now time.Time) time.Duration {
	when, ok := r.timers.next()
	if !ok {
		return -1
	}
	if d := when.Sub(now); d > 0 {
		return d
	}
	return 0
}

// queueReady appends the callbacks of set whose descriptor reported any of
// mask, in registration order.
func (r *Reactor) queueReady(set *watchSet, kind Kind, mask int16) {
	for _, fd := range set.fds() {
		if !r.polls.ready(fd, mask) {
			continue
		}
		cb, _ := set.get(fd)
		r.ready.Add(dispatchEntry{cb: cb, fd: fd, kind: kind})
	}
}

// dispatchReady runs the queued I/O callbacks. Whatever remains queued when
// a callback fails (or panics) is discarded.
func (r *Reactor) dispatchReady() error {
	defer func() {
		for r.ready.Length() > 0 {
			r.ready.Remove()
		}
	}()
	for r.ready.Length() > 0 {
		entry := r.ready.Remove().(dispatchEntry)
		r.stats.dispatch.Add(1)
		r.metrics.recordCallback(entry.kind)
		if err := entry.cb(); err != nil {
			cbErr := &CallbackError{Err: err, Fd: entry.fd, Kind: entry.kind}
			r.logCallbackError(cbErr)
			return cbErr
		}
		if r.closed.Load() {
			return nil
		}
	}
	return nil
}

// runTimers fires every timer due at now. Each timer is removed from the
// table before its callback runs. If a callback fails (or panics), the due
// timers that have not run yet are put back, to fire on the next Wait.
func (r *Reactor) runTimers(now time.Time) error {
	expired := r.timers.popExpired(now)
	if len(expired) == 0 {
		return nil
	}

	i := 0
	defer func() {
		r.timers.restore(expired[i:])
	}()

	for ; i < len(expired); i++ {
		t := expired[i]
		if !r.timers.take(t) {
			continue // cancelled by an earlier callback
		}
		r.stats.timers.Store(int64(r.timers.len()))
		r.metrics.addPendingTimers(-1)

		if t.cb == nil {
			continue
		}
		r.stats.dispatch.Add(1)
		r.metrics.recordCallback(KindTimer)
		if err := t.cb(); err != nil {
			cbErr := &CallbackError{Err: err, Timer: t.id, Fd: -1, Kind: KindTimer}
			r.logCallbackError(cbErr)
			return cbErr
		}
		if r.closed.Load() {
			return nil
		}
	}
	return nil
}
