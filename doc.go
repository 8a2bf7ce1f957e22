// Package reactor provides a single-goroutine readiness-multiplexing reactor:
// callbacks keyed on the readable, writable and exceptional state of file
// descriptors, plus one-shot timers, dispatched by a caller-owned loop around
// poll(2).
//
// # Architecture
//
// A [Reactor] owns three watch sets (readers, writers, error handlers), a
// timer table, and a wakeup channel (a non-blocking socket pair whose read end
// is always polled). Each call to [Reactor.Wait] performs exactly one poll and
// one dispatch pass, then reports whether the driver should keep going. The
// reactor never starts a goroutine of its own to do this, the caller decides
// which goroutine blocks:
//
//	r, err := reactor.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	r.SetReader(fd, func() error {
//	    // fd is readable
//	    return nil
//	})
//
//	for {
//	    ok, err := r.Wait()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if !ok {
//	        break
//	    }
//	}
//
// [Reactor.Run] wraps the same loop, stopping on context cancellation.
//
// # Thread Safety
//
//   - Registration methods may be called from any goroutine. They share a
//     re-entrant lock with Wait, which holds it for the whole of its poll and
//     dispatch pass, so from another goroutine a registration applies between
//     iterations.
//   - A registration blocked on that lock wakes the Wait holding it, and the
//     next Wait lets it in before polling again. A timer set from another
//     goroutine therefore bounds the very next poll timeout.
//   - [Reactor.Notify] uses a separate lock, and never waits on Wait. It is
//     the only way to make Wait return false without an error, other than
//     [Reactor.Close].
//   - Callbacks run on the driver goroutine, while it holds the lock, and may
//     call any method except Wait.
//
// # Dispatch Order
//
// Within one pass: ready readers, ready writers, ready error handlers, each
// in registration order (replacing a callback keeps its position), then due
// timers, earliest deadline first with ties broken by SetTimer order.
//
// # Errors
//
// A callback returning an error ends the pass; Wait returns it wrapped in a
// [*CallbackError]. Poll failures, such as a registered descriptor having
// been closed, are returned as a [*PollError] naming the descriptor. Neither
// leaves the tables inconsistent, and the driver may simply call Wait again
// after dealing with the cause.
//
// # Platform Support
//
// Any unix platform supported by golang.org/x/sys/unix. Elsewhere, [New]
// returns [ErrUnsupportedPlatform].
package reactor
