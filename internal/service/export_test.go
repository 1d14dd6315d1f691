package service

import "time"

// SetClock replaces the time source used for task timestamps.
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}
