package roster

import (
	"context"
	"time"
)

// Session is one instance of "attendance is open" for a lecture. Sessions are
// never explicitly closed; the most recently opened one is the active one.
type Session struct {
	ID        string    `json:"id"`
	LectureID string    `json:"lecture_id"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Signals carries best-effort advisory metadata captured at check-in. It is
// informational only and never consulted when deciding whether a check-in
// succeeds.
type Signals struct {
	IP         string   `json:"ip,omitempty"`
	DeviceHash string   `json:"device_hash,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	UserAgent  string   `json:"user_agent,omitempty"`
}

// Record is one student's presence row for a session. Uniqueness per
// (session, student) is enforced by the storage layer, not by callers.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	StudentID string    `json:"student_id"`
	Present   bool      `json:"present"`
	MarkedAt  time.Time `json:"marked_at"`
	Signals   Signals   `json:"signals"`
}

// Grade is the derived attendance grade component for (student, lecture).
type Grade struct {
	StudentID string    `json:"student_id"`
	LectureID string    `json:"lecture_id"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence surface consumed by the check-in core. It is the
// single source of truth for who is marked present; concurrent writers rely
// on its upsert semantics for deduplication.
type Store interface {
	// ListSessions returns sessions for a lecture, most recently opened first.
	ListSessions(ctx context.Context, lectureID string) ([]Session, error)
	// CreateSession opens a new session for a lecture.
	CreateSession(ctx context.Context, lectureID string) (Session, error)
	// ListRecords returns all presence records for a session.
	ListRecords(ctx context.Context, sessionID string) ([]Record, error)
	// UpsertRecord creates the (session, student) row if absent, else updates
	// its present flag in place. Signals are merged, never cleared.
	UpsertRecord(ctx context.Context, sessionID, studentID string, present bool, sig Signals) (Record, error)
	// GetGrade returns the attendance grade for (student, lecture), or nil.
	GetGrade(ctx context.Context, studentID, lectureID string) (*Grade, error)
	// UpsertGrade creates or replaces the attendance grade for (student, lecture).
	UpsertGrade(ctx context.Context, studentID, lectureID string, value float64) (Grade, error)
}
