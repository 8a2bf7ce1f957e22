//go:build unix

package reactor

import (
	"math"
	"time"

	"golang.org/x/sys/unix"
)

const (
	pollIn  = unix.POLLIN
	pollOut = unix.POLLOUT
	pollPri = unix.POLLPRI

	// select(2) reports hangup and error conditions as readable, writable and
	// exceptional, so they satisfy every interest set.
	readyRead  = unix.POLLIN | unix.POLLHUP | unix.POLLERR
	readyWrite = unix.POLLOUT | unix.POLLHUP | unix.POLLERR
	readyError = unix.POLLPRI | unix.POLLHUP | unix.POLLERR
)

// pollSet is the argument to a single poll(2) call. Each descriptor appears
// once, with the union of the events of every set it is registered in.
type pollSet struct {
	index map[int]int
	fds   []unix.PollFd
}

func newPollSet() pollSet {
	return pollSet{index: make(map[int]int)}
}

func (p *pollSet) reset() {
	clear(p.index)
	p.fds = p.fds[:0]
}

func (p *pollSet) add(fd int, events int16) {
	if i, ok := p.index[fd]; ok {
		p.fds[i].Events |= events
		return
	}
	p.index[fd] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: events})
}

// ready reports whether fd's returned events intersect mask.
func (p *pollSet) ready(fd int, mask int16) bool {
	i, ok := p.index[fd]
	return ok && p.fds[i].Revents&mask != 0
}

// wait blocks in poll(2) for at most timeout (negative blocks indefinitely).
// An interrupted call is reported as nothing ready. A descriptor the kernel
// flags as invalid fails the whole call, as select(2) does.
func (p *pollSet) wait(timeout time.Duration) (interrupted bool, err error) {
	_, err = unix.Poll(p.fds, pollTimeoutMillis(timeout))
	if err != nil {
		for i := range p.fds {
			p.fds[i].Revents = 0
		}
		if err == unix.EINTR {
			return true, nil
		}
		return false, &PollError{Op: "poll", Fd: -1, Err: err}
	}
	for i := range p.fds {
		if p.fds[i].Revents&unix.POLLNVAL != 0 {
			return false, &PollError{Op: "poll", Fd: int(p.fds[i].Fd), Err: unix.EBADF}
		}
	}
	return false, nil
}

// pollTimeoutMillis converts timeout to poll(2) milliseconds, rounding up so
// that a timer is never observed before its deadline.
func pollTimeoutMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	ms := (timeout + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
