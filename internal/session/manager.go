package session

import (
	"context"
	"log"

	"rollcall/internal/auth"
	"rollcall/internal/errs"
	"rollcall/internal/roster"
	"rollcall/internal/schedule"
)

// Manager resolves or creates the one active attendance session for a
// lecture. Lookup always runs before create so concurrent open attempts
// converge on the same session instead of minting duplicates.
type Manager struct {
	store roster.Store
	dir   schedule.Directory
}

// NewManager creates a session manager.
func NewManager(store roster.Store, dir schedule.Directory) *Manager {
	return &Manager{store: store, dir: dir}
}

// GetOrCreate returns the most recent session for the lecture, creating one
// when none exists. Creation requires instructor/staff capability for the
// lecture; a student arriving via a deep link can only join an existing
// session.
func (m *Manager) GetOrCreate(ctx context.Context, lectureID string, caller auth.Identity) (roster.Session, error) {
	if lectureID == "" {
		return roster.Session{}, errs.NewValidationError("lecture id required")
	}

	lec, err := m.dir.GetLecture(ctx, lectureID)
	if err != nil {
		return roster.Session{}, errs.NewTransientError("schedule lookup failed", err)
	}
	if lec == nil {
		return roster.Session{}, errs.NewNotFoundError("lecture not found")
	}

	sessions, err := m.store.ListSessions(ctx, lectureID)
	if err != nil {
		return roster.Session{}, errs.NewTransientError("session lookup failed", err)
	}
	if len(sessions) > 0 {
		return sessions[0], nil
	}

	if !m.canOpen(caller, lec) {
		return roster.Session{}, errs.NewAuthorizationError("no open session; ask the instructor to open one")
	}

	sess, err := m.store.CreateSession(ctx, lectureID)
	if err != nil {
		return roster.Session{}, errs.NewTransientError("session create failed", err)
	}
	log.Printf("opened attendance session %s for lecture %s", sess.ID, lectureID)
	return sess, nil
}

// canOpen requires the instructor/staff capability for this lecture: staff
// open any lecture, instructors only their own.
func (m *Manager) canOpen(caller auth.Identity, lec *schedule.Lecture) bool {
	if !caller.CanOpenSession() {
		return false
	}
	if caller.Role == auth.RoleStaff {
		return true
	}
	return lec.IsInstructor(caller.UserID)
}
