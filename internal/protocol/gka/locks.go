package gka

import (
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// sessionLocks serializes work per group session while letting distinct
// sessions proceed in parallel.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[domain.GroupID]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[domain.GroupID]*sessionLock)}
}

// lock acquires the mutex for groupID and returns its release function.
func (s *sessionLocks) lock(groupID domain.GroupID) func() {
	s.mu.Lock()
	l, ok := s.locks[groupID]
	if !ok {
		l = &sessionLock{}
		s.locks[groupID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, groupID)
		}
		s.mu.Unlock()
	}
}
