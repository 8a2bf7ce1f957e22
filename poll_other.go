//go:build !unix

package reactor

import "time"

const (
	pollIn  = 0x1
	pollOut = 0x4
	pollPri = 0x2

	readyRead  = pollIn
	readyWrite = pollOut
	readyError = pollPri
)

type pollSet struct{}

func newPollSet() pollSet { return pollSet{} }

func (p *pollSet) reset() {}

func (p *pollSet) add(fd int, events int16) {}

func (p *pollSet) ready(fd int, mask int16) bool { return false }

func (p *pollSet) wait(timeout time.Duration) (bool, error) { return false, ErrUnsupportedPlatform }

type wakeupChannel struct {
	readFd  int
	writeFd int
}

func newWakeupChannel() (*wakeupChannel, error) { return nil, ErrUnsupportedPlatform }

func (w *wakeupChannel) signal() error { return ErrUnsupportedPlatform }

func (w *wakeupChannel) drain() (int, error) { return 0, ErrUnsupportedPlatform }

func (w *wakeupChannel) close() error { return nil }
