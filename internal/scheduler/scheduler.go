// Package scheduler arms one-shot, cancellable expiry deadlines for active
// polls. Timers are best effort: a lost timer is harmless because the
// coordinator's lazy expiry check on read independently enforces
// completion.
package scheduler

import (
	"sync"
	"time"
)

type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func New() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Arm schedules fire to run after d, replacing any timer already armed for
// the same poll.
func (s *Scheduler) Arm(pollID string, d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[pollID]; ok {
		t.Stop()
	}
	s.timers[pollID] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, pollID)
		s.mu.Unlock()
		fire()
	})
}

// Cancel stops the poll's timer if one is still armed. Safe to call when
// the timer has already fired or was never armed.
func (s *Scheduler) Cancel(pollID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[pollID]; ok {
		t.Stop()
		delete(s.timers, pollID)
	}
}

// Stop cancels every armed timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
