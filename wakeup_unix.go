//go:build unix

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// wakeupChannel is a connected socket pair used to interrupt a blocked poll.
// Both ends are non-blocking: a full buffer already guarantees a pending
// wake-up, and draining must never block the reactor.
type wakeupChannel struct {
	readFd  int
	writeFd int
}

func newWakeupChannel() (*wakeupChannel, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("reactor: socketpair: %w", err)
	}

	cleanup := func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	}

	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])

	if err := unix.SetNonblock(fds[0], true); err != nil {
		cleanup()
		return nil, fmt.Errorf("reactor: set nonblock: %w", err)
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		cleanup()
		return nil, fmt.Errorf("reactor: set nonblock: %w", err)
	}

	return &wakeupChannel{readFd: fds[0], writeFd: fds[1]}, nil
}

// signal writes a single byte. Callers serialize via the notify lock.
func (w *wakeupChannel) signal() error {
	buf := [1]byte{'@'}
	for {
		_, err := unix.Write(w.writeFd, buf[:])
		switch err {
		case nil, unix.EAGAIN:
			return nil
		case unix.EINTR:
			continue
		default:
			return err
		}
	}
}

// drain consumes every byte currently buffered, returning the count.
func (w *wakeupChannel) drain() (int, error) {
	var (
		buf   [256]byte
		total int
	)
	for {
		n, err := unix.Read(w.readFd, buf[:])
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return total, nil
		case err != nil:
			return total, err
		case n == 0:
			return total, nil
		}
		total += n
	}
}

func (w *wakeupChannel) close() error {
	_ = unix.Shutdown(w.readFd, unix.SHUT_RDWR)
	_ = unix.Shutdown(w.writeFd, unix.SHUT_RDWR)
	err := unix.Close(w.readFd)
	if err2 := unix.Close(w.writeFd); err == nil {
		err = err2
	}
	return err
}
