package schedule

import (
	"context"
	"sync"
)

// Static is an in-memory Directory and Aggregator used in tests and local
// development when no scheduling service is running.
type Static struct {
	mu       sync.Mutex
	lectures map[string]Lecture
	enrolled map[string][]string
	recalcs  map[string]int
}

// NewStatic creates an empty static directory.
func NewStatic() *Static {
	return &Static{
		lectures: make(map[string]Lecture),
		enrolled: make(map[string][]string),
		recalcs:  make(map[string]int),
	}
}

// AddLecture registers a lecture with its instructor and enrolled sets.
func (s *Static) AddLecture(lec Lecture, enrolled []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lectures[lec.ID] = lec
	s.enrolled[lec.ID] = enrolled
}

// GetLecture returns the lecture, or nil when unknown.
func (s *Static) GetLecture(_ context.Context, lectureID string) (*Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lec, ok := s.lectures[lectureID]
	if !ok {
		return nil, nil
	}
	return &lec, nil
}

// ListEnrolled returns the enrolled student ids for a lecture.
func (s *Static) ListEnrolled(_ context.Context, lectureID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.enrolled[lectureID]...), nil
}

// Recalculate records the call; the static directory has nothing to derive.
func (s *Static) Recalculate(_ context.Context, lectureID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recalcs[lectureID]++
	return nil
}

// RecalcCount reports how many times Recalculate ran for a lecture.
func (s *Static) RecalcCount(lectureID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recalcs[lectureID]
}
