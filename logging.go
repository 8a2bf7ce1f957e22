package reactor

import (
	"time"
)

// Logging helpers. Every builder returned by a nil or level-disabled
// logiface logger is nil, and nil builders are no-ops, so these are cheap
// when logging is off.

func (r *Reactor) logCreated() {
	r.logger.Debug().
		Str("reactor", r.id).
		Int("wake_fd", r.wake.readFd).
		Log("reactor created")
}

func (r *Reactor) logClosed(err error) {
	b := r.logger.Debug().Str("reactor", r.id)
	if err != nil {
		b = b.Err(err)
	}
	b.Log("reactor closed")
}

func (r *Reactor) logPollError(err error) {
	r.logger.Err().
		Str("reactor", r.id).
		Err(err).
		Log("poll failed")
}

func (r *Reactor) logInterrupted() {
	r.logger.Trace().
		Str("reactor", r.id).
		Log("poll interrupted")
}

func (r *Reactor) logCallbackError(err *CallbackError) {
	b := r.logger.Warning().
		Str("reactor", r.id).
		Str("kind", err.Kind.String())
	if err.Kind == KindTimer {
		b = b.Str("timer", err.Timer.String())
	} else {
		b = b.Int("fd", err.Fd)
	}
	b.Err(err.Err).Log("callback failed")
}

func (r *Reactor) logWakeupError(err error) {
	r.logger.Err().
		Str("reactor", r.id).
		Err(err).
		Log("wakeup signal failed")
}

func (r *Reactor) logIteration(timeout time.Duration, wake bool, dispatched int) {
	r.logger.Trace().
		Str("reactor", r.id).
		Dur("timeout", timeout).
		Bool("wake", wake).
		Int("dispatched", dispatched).
		Log("wait iteration")
}
