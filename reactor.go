package reactor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/joeycumines/go-reactor/internal/rmutex"
	"github.com/joeycumines/logiface"
)

// Reactor multiplexes readiness of file descriptors and one-shot timers onto
// a single driver goroutine, see [Reactor.Wait].
//
// Registration methods, [Reactor.Notify] and [Reactor.Wake] may be called from
// any goroutine. Wait holds the registration lock for its whole poll and
// dispatch pass, so a registration made from another goroutine wakes the
// blocked Wait, and the next Wait lets it in before polling again. Callbacks
// run on the goroutine calling Wait, which already holds that (re-entrant)
// lock, so they may freely call back into the reactor.
type Reactor struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	logger  *logiface.Logger[logiface.Event]
	metrics *reactorMetrics
	wake    *wakeupChannel

	// Registrations blocked on mu, see lock.
	contended atomic.Int32

	// Registration lock. Guards everything below it, until notifyMu.
	mu      rmutex.Mutex
	readers watchSet
	writers watchSet
	errs    watchSet
	timers  timerTable
	polls   pollSet
	ready   *queue.Queue // of dispatchEntry, built before each dispatch pass

	// Serializes writes to the wakeup channel.
	notifyMu sync.Mutex

	cont      atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	stats struct {
		readers  atomic.Int64
		writers  atomic.Int64
		errs     atomic.Int64
		timers   atomic.Int64
		waits    atomic.Uint64
		dispatch atomic.Uint64
	}

	id string
}

// dispatchEntry is a callback selected for the current pass.
type dispatchEntry struct {
	cb   Callback
	fd   int
	kind Kind
}

// Stats is a point-in-time snapshot of a reactor's tables and counters.
type Stats struct {
	// Readers, Writers and ErrorHandlers count registered descriptors per set.
	Readers       int
	Writers       int
	ErrorHandlers int
	// Timers counts scheduled timers that have neither fired nor been cancelled.
	Timers int
	// Waits counts completed Wait calls.
	Waits uint64
	// Dispatched counts invoked callbacks, of every kind.
	Dispatched uint64
}

// New creates a reactor, including its wakeup channel. The reactor must be
// released with [Reactor.Close].
func New(opts ...ReactorOption) (*Reactor, error) {
	cfg, err := resolveReactorOptions(opts)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("reactor: generate id: %w", err)
	}

	metrics, err := newReactorMetrics(cfg.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("reactor: create instruments: %w", err)
	}

	wake, err := newWakeupChannel()
	if err != nil {
		return nil, err
	}

	r := &Reactor{
		logger:  cfg.logger,
		metrics: metrics,
		wake:    wake,
		readers: newWatchSet(),
		writers: newWatchSet(),
		errs:    newWatchSet(),
		timers:  newTimerTable(),
		polls:   newPollSet(),
		ready:   queue.New(),
		id:      id.String(),
	}
	r.cont.Store(true)

	r.logCreated()

	return r, nil
}

// ID returns the reactor's unique identifier, as used in log entries.
func (r *Reactor) ID() string {
	return r.id
}

// SetReader installs cb to be called whenever fd is readable, replacing any
// previous reader callback for fd. A nil cb is equivalent to UnsetReader.
//
// The descriptor is not validated; an invalid fd causes the next Wait to fail
// with a [*PollError].
func (r *Reactor) SetReader(fd int, cb Callback) {
	r.setWatch(&r.readers, &r.stats.readers, fd, cb)
}

// SetWriter installs cb to be called whenever fd is writable, replacing any
// previous writer callback for fd. A nil cb is equivalent to UnsetWriter.
func (r *Reactor) SetWriter(fd int, cb Callback) {
	r.setWatch(&r.writers, &r.stats.writers, fd, cb)
}

// SetErrorHandler installs cb to be called whenever fd has an exceptional
// condition pending (out-of-band data, error or hangup), replacing any
// previous error handler for fd. A nil cb is equivalent to UnsetErrorHandler.
func (r *Reactor) SetErrorHandler(fd int, cb Callback) {
	r.setWatch(&r.errs, &r.stats.errs, fd, cb)
}

// UnsetReader removes the reader callback for fd, if any.
func (r *Reactor) UnsetReader(fd int) {
	r.unsetWatch(&r.readers, &r.stats.readers, fd)
}

// UnsetWriter removes the writer callback for fd, if any.
func (r *Reactor) UnsetWriter(fd int) {
	r.unsetWatch(&r.writers, &r.stats.writers, fd)
}

// UnsetErrorHandler removes the error handler for fd, if any.
func (r *Reactor) UnsetErrorHandler(fd int) {
	r.unsetWatch(&r.errs, &r.stats.errs, fd)
}

func (r *Reactor) setWatch(set *watchSet, count *atomic.Int64, fd int, cb Callback) {
	if cb == nil {
		r.unsetWatch(set, count, fd)
		return
	}
	r.lock()
	defer r.mu.Unlock()
	set.set(fd, cb)
	count.Store(int64(set.len()))
}

func (r *Reactor) unsetWatch(set *watchSet, count *atomic.Int64, fd int) {
	r.lock()
	defer r.mu.Unlock()
	if set.unset(fd) {
		count.Store(int64(set.len()))
	}
}

// SetTimer schedules cb to be called once, by the first Wait that observes
// the deadline (now + d) as passed. A negative d is treated as zero. The
// returned id may be passed to UnsetTimer.
//
// Called from another goroutine while Wait is blocked, SetTimer wakes it, so
// that the next poll timeout accounts for the new deadline.
func (r *Reactor) SetTimer(d time.Duration, cb Callback) TimerID {
	if d < 0 {
		d = 0
	}
	when := time.Now().Add(d)

	r.lock()
	defer r.mu.Unlock()

	id := r.timers.add(when, cb)
	r.stats.timers.Store(int64(r.timers.len()))
	r.metrics.addPendingTimers(1)

	return id
}

// UnsetTimer cancels the timer identified by id, if it has not yet fired.
// Like SetTimer, it wakes a blocked Wait.
func (r *Reactor) UnsetTimer(id TimerID) {
	r.lock()
	defer r.mu.Unlock()

	if r.timers.remove(id) {
		r.stats.timers.Store(int64(r.timers.len()))
		r.metrics.addPendingTimers(-1)
	}
}

// lock acquires the registration lock. If another goroutine holds it, that is
// normally a Wait blocked in poll(2), which is woken. While contended is
// non-zero, Wait yields before re-taking the lock, so the registration gets
// in ahead of the next poll.
func (r *Reactor) lock() {
	if r.mu.TryLock() {
		return
	}
	r.contended.Add(1)
	r.Wake()
	r.mu.Lock()
	r.contended.Add(-1)
}

// Notify asks the driver to stop: the next Wait to observe the wakeup channel
// (the one currently blocked, or else the next one called) returns false.
// Subsequent calls to Wait return true again, until Notify is next called.
//
// Notify never blocks on the registration lock, and is safe to call from any
// goroutine, including from within a callback.
func (r *Reactor) Notify() {
	r.signal(true)
}

// Wake interrupts a blocked Wait without asking the driver to stop. The
// interrupted Wait returns true. Registration methods wake a blocked Wait
// themselves, so Wake is only needed to re-run the driver loop.
func (r *Reactor) Wake() {
	r.signal(false)
}

func (r *Reactor) signal(notify bool) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	if notify {
		r.cont.Store(false)
	}

	if r.closed.Load() {
		return
	}

	if err := r.wake.signal(); err != nil {
		r.logWakeupError(err)
		return
	}
	r.metrics.recordWakeup(notify)
}

// Close releases the wakeup channel. Registered callbacks and pending timers
// are dropped without being invoked. A Wait blocked on another goroutine is
// woken first, and returns false. Calling Close again returns [ErrClosed].
//
// Close may be called from within a callback, in which case the dispatching
// Wait returns false after its current pass.
func (r *Reactor) Close() error {
	err := ErrClosed
	r.closeOnce.Do(func() {
		// a blocked Wait observes closed once woken, and releases the lock
		r.notifyMu.Lock()
		r.closed.Store(true)
		_ = r.wake.signal()
		r.notifyMu.Unlock()

		r.lock()
		defer r.mu.Unlock()

		if n := r.timers.clear(); n > 0 {
			r.stats.timers.Store(0)
			r.metrics.addPendingTimers(-int64(n))
		}
		r.closeErr = r.wake.close()
		r.logClosed(r.closeErr)
		err = r.closeErr
	})
	return err
}

// Stats returns a snapshot of the reactor's tables and counters. It does not
// take the registration lock, so it never blocks behind Wait.
func (r *Reactor) Stats() Stats {
	return Stats{
		Readers:       int(r.stats.readers.Load()),
		Writers:       int(r.stats.writers.Load()),
		ErrorHandlers: int(r.stats.errs.Load()),
		Timers:        int(r.stats.timers.Load()),
		Waits:         r.stats.waits.Load(),
		Dispatched:    r.stats.dispatch.Load(),
	}
}
