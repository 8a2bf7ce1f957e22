// Package rmutex provides a re-entrant mutex, keyed by goroutine.
//
// The goroutine holding a [Mutex] may lock it again without deadlocking, and
// must unlock it the same number of times before any other goroutine can
// acquire it. This is what allows reactor callbacks, which run while the
// driver goroutine holds the registration lock, to call back into the
// registration API.
package rmutex

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Mutex is a re-entrant mutual exclusion lock. The zero value is unlocked.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	_     [0]func()
	mu    sync.Mutex
	owner atomic.Uint64
	depth int
}

// Lock locks m, or increments the hold count if the calling goroutine already
// holds it.
func (m *Mutex) Lock() {
	id := goroutineID()
	if m.owner.Load() == id {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(id)
	m.depth = 1
}

// Unlock decrements the hold count, releasing m once it reaches zero.
// It panics if the calling goroutine does not hold m.
func (m *Mutex) Unlock() {
	if m.owner.Load() != goroutineID() {
		panic("rmutex: unlock of mutex not held by this goroutine")
	}
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// TryLock is like Lock, but returns false instead of blocking when another
// goroutine holds m.
func (m *Mutex) TryLock() bool {
	id := goroutineID()
	if m.owner.Load() == id {
		m.depth++
		return true
	}
	if !m.mu.TryLock() {
		return false
	}
	m.owner.Store(id)
	m.depth = 1
	return true
}

// HeldByCurrent reports whether the calling goroutine holds m.
func (m *Mutex) HeldByCurrent() bool {
	return m.owner.Load() == goroutineID()
}

// goroutineID returns the current goroutine's ID, parsed from the header of
// its stack trace ("goroutine N [...]"). IDs start at 1, so 0 means unowned.
//
// The parse is the one getGoroutineID uses in github.com/joeycumines/go-eventloop.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	const prefix = len("goroutine ")
	var id uint64
	for _, c := range buf[min(prefix, n):n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
