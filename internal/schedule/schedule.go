package schedule

import "context"

// Lecture is a scheduled course occurrence, owned by the scheduling
// subsystem. The check-in core only ever reads it.
type Lecture struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Instructors []string `json:"instructors"`
}

// Directory is the read-only view of the scheduling subsystem consumed by
// the check-in core: lecture existence, enrollment and instructor sets.
type Directory interface {
	// GetLecture returns the lecture, or nil when it does not exist.
	GetLecture(ctx context.Context, lectureID string) (*Lecture, error)
	// ListEnrolled returns the student ids enrolled in the lecture.
	ListEnrolled(ctx context.Context, lectureID string) ([]string, error)
}

// Aggregator re-derives downstream grade totals after bulk mutations. The
// call is opaque from this core's perspective and idempotent on the far side.
type Aggregator interface {
	Recalculate(ctx context.Context, lectureID string) error
}

// IsInstructor reports whether userID is in the lecture's instructor set.
func (l *Lecture) IsInstructor(userID string) bool {
	if l == nil {
		return false
	}
	for _, id := range l.Instructors {
		if id == userID {
			return true
		}
	}
	return false
}

// IsEnrolled reports whether studentID appears in the enrolled list.
func IsEnrolled(enrolled []string, studentID string) bool {
	for _, id := range enrolled {
		if id == studentID {
			return true
		}
	}
	return false
}
