package reactor

// watchSet maps fd to callback, remembering first-registration order so that
// dispatch is reproducible. Replacing a callback keeps the fd's position.
type watchSet struct {
	entries map[int]Callback
	order   []int
}

func newWatchSet() watchSet {
	return watchSet{entries: make(map[int]Callback)}
}

func (s *watchSet) set(fd int, cb Callback) {
	if _, ok := s.entries[fd]; !ok {
		s.order = append(s.order, fd)
	}
	s.entries[fd] = cb
}

// unset reports whether fd was present.
func (s *watchSet) unset(fd int) bool {
	if _, ok := s.entries[fd]; !ok {
		return false
	}
	delete(s.entries, fd)
	for i, v := range s.order {
		if v == fd {
			copy(s.order[i:], s.order[i+1:])
			s.order[len(s.order)-1] = 0
			s.order = s.order[:len(s.order)-1]
			break
		}
	}
	return true
}

func (s *watchSet) get(fd int) (Callback, bool) {
	cb, ok := s.entries[fd]
	return cb, ok
}

func (s *watchSet) len() int {
	return len(s.order)
}

// fds returns the registered descriptors in registration order. The slice is
// owned by the set and is only valid until the next mutation.
func (s *watchSet) fds() []int {
	return s.order
}
