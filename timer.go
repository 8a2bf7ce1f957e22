package reactor

import (
	"container/heap"
	"strconv"
	"time"
)

// TimerID identifies a timer scheduled with [Reactor.SetTimer]. IDs are never
// reused by a reactor, so cancelling a stale ID cannot affect a later timer.
// The zero value identifies no timer.
type TimerID struct {
	seq uint64
}

// IsZero reports whether id is the zero TimerID.
func (id TimerID) IsZero() bool {
	return id.seq == 0
}

// String returns a debugging representation of the id.
func (id TimerID) String() string {
	return "timer#" + strconv.FormatUint(id.seq, 10)
}

// timer represents a scheduled callback
type timer struct {
	when  time.Time
	cb    Callback
	id    TimerID
	index int // heap index, -1 once popped
}

// timerHeap is a min-heap of timers, ordered by deadline then allocation order
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].id.seq < h[j].id.seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// timerTable owns every live timer. A timer stays in byID from registration
// until it is cancelled or about to be invoked, including while it sits in an
// expired batch outside the heap.
type timerTable struct {
	byID map[TimerID]*timer
	heap timerHeap
	seq  uint64
}

func newTimerTable() timerTable {
	return timerTable{byID: make(map[TimerID]*timer)}
}

func (tt *timerTable) add(when time.Time, cb Callback) TimerID {
	tt.seq++
	t := &timer{when: when, cb: cb, id: TimerID{seq: tt.seq}}
	heap.Push(&tt.heap, t)
	tt.byID[t.id] = t
	return t.id
}

// remove reports whether id was live.
func (tt *timerTable) remove(id TimerID) bool {
	t, ok := tt.byID[id]
	if !ok {
		return false
	}
	delete(tt.byID, id)
	if t.index >= 0 {
		heap.Remove(&tt.heap, t.index)
	}
	return true
}

func (tt *timerTable) len() int {
	return len(tt.byID)
}

// next returns the earliest deadline still in the heap.
func (tt *timerTable) next() (time.Time, bool) {
	if len(tt.heap) == 0 {
		return time.Time{}, false
	}
	return tt.heap[0].when, true
}

// popExpired removes and returns, in firing order, every timer due at now.
// The timers remain live (see take) until invoked.
func (tt *timerTable) popExpired(now time.Time) []*timer {
	var expired []*timer
	for len(tt.heap) > 0 && !tt.heap[0].when.After(now) {
		expired = append(expired, heap.Pop(&tt.heap).(*timer))
	}
	return expired
}

// take marks t as fired, reporting false if it was cancelled after being
// popped.
func (tt *timerTable) take(t *timer) bool {
	if tt.byID[t.id] != t {
		return false
	}
	delete(tt.byID, t.id)
	return true
}

// clear drops every live timer, returning how many there were. Ids are not
// reused afterwards.
func (tt *timerTable) clear() int {
	n := len(tt.byID)
	clear(tt.byID)
	tt.heap = nil
	return n
}

// restore returns popped timers that were neither fired nor cancelled.
func (tt *timerTable) restore(timers []*timer) {
	for _, t := range timers {
		if tt.byID[t.id] == t && t.index < 0 {
			heap.Push(&tt.heap, t)
		}
	}
}
