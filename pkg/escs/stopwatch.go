package escs

import "time"

// Stopwatch accumulates elapsed wall-clock time across start/stop pairs. It
// backs every deadline check in the solver: the branch-and-bound node loop,
// the iterative-deepening outer loop, and the primal heuristics' own
// residual time budgets all read a Stopwatch rather than calling time.Now
// directly, so a single fake clock could stand in for all of them in tests.
type Stopwatch struct {
	running bool
	start   time.Time
	total   time.Duration
}

// Start begins accumulating time. Idempotent while already running.
func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.running = true
	s.start = time.Now()
}

// Stop folds the time since the last Start into the accumulated total.
// Idempotent while already stopped.
func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}
	s.total += time.Since(s.start)
	s.running = false
}

// TotalDuration returns the accumulated duration, including time elapsed
// since the current Start if the stopwatch is still running.
func (s *Stopwatch) TotalDuration() time.Duration {
	if s.running {
		return s.total + time.Since(s.start)
	}
	return s.total
}

// RemainingTime returns max(0, limit-total), or an effectively unlimited
// duration when limit is nil.
func (s *Stopwatch) RemainingTime(limit *time.Duration) time.Duration {
	if limit == nil {
		return time.Duration(1<<62 - 1)
	}
	remaining := *limit - s.TotalDuration()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeLimitReached reports whether total strictly exceeds limit. A nil
// limit means unlimited and never reaches.
func (s *Stopwatch) TimeLimitReached(limit *time.Duration) bool {
	if limit == nil {
		return false
	}
	return s.TotalDuration() > *limit
}
