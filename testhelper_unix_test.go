//go:build unix

package reactor

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// testCreatePipe creates a non-blocking pipe, closed on cleanup.
func testCreatePipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatal("pipe failed:", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			t.Fatal("set nonblock failed:", err)
		}
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

// testCreateSocketPair creates a connected, non-blocking unix socket pair of
// the given type (e.g. unix.SOCK_DGRAM), closed on cleanup.
func testCreateSocketPair(t *testing.T, typ int) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, typ, 0)
	if err != nil {
		t.Fatal("socketpair failed:", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			t.Fatal("set nonblock failed:", err)
		}
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func testWrite(t *testing.T, fd int, b []byte) {
	t.Helper()
	if _, err := unix.Write(fd, b); err != nil {
		t.Fatal("write failed:", err)
	}
}

// testDrain reads and discards everything buffered on fd.
func testDrain(fd int) {
	var buf [512]byte
	for {
		if n, err := unix.Read(fd, buf[:]); err != nil || n == 0 {
			return
		}
	}
}

func newTestReactor(t *testing.T, opts ...ReactorOption) *Reactor {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatal("New failed:", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// startDriver runs the canonical driver loop on a new goroutine. The returned
// channel receives the error that ended the loop (nil after a Notify).
func startDriver(r *Reactor) <-chan error {
	done := make(chan error, 1)
	go func() {
		for {
			ok, err := r.Wait()
			if err != nil {
				done <- err
				return
			}
			if !ok {
				done <- nil
				return
			}
		}
	}()
	return done
}

func awaitDriver(t *testing.T, done <-chan error, timeout time.Duration) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		t.Fatalf("driver did not stop within %v", timeout)
		return nil
	}
}

// waitWithTimer runs a single Wait that is bounded by a timer, so that it
// returns even when nothing else is ready.
func waitWithTimer(t *testing.T, r *Reactor, d time.Duration) bool {
	t.Helper()
	id := r.SetTimer(d, nil)
	ok, err := r.Wait()
	if err != nil {
		t.Fatal("Wait failed:", err)
	}
	r.UnsetTimer(id)
	return ok
}
