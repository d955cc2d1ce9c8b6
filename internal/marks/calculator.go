package marks

import (
	"context"
	"log"

	"rollcall/internal/errs"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
)

// MsgRecalc is the queue message type consumed by the recalculation worker.
const MsgRecalc = "recalc"

// Calculator converts current presence state into the attendance grade
// component. Assignment is selective: only students present at the moment
// the call runs are touched, absent students keep whatever grade they had.
type Calculator struct {
	store roster.Store
	q     queue.Queue
}

// NewCalculator creates a calculator. q may be nil when no downstream
// aggregation is wired (tests).
func NewCalculator(store roster.Store, q queue.Queue) *Calculator {
	return &Calculator{store: store, q: q}
}

// SetAttendanceGrade assigns value as the attendance grade of every student
// currently marked present in any of the lecture's sessions, then enqueues
// a recalculation so downstream totals catch up. Returns how many grades
// were written.
func (c *Calculator) SetAttendanceGrade(ctx context.Context, lectureID string, value float64) (int, error) {
	if lectureID == "" {
		return 0, errs.NewValidationError("lecture id required")
	}

	sessions, err := c.store.ListSessions(ctx, lectureID)
	if err != nil {
		return 0, errs.NewTransientError("session lookup failed", err)
	}
	if len(sessions) == 0 {
		return 0, errs.NewNotFoundError("no attendance sessions for lecture")
	}

	present := make(map[string]bool)
	for _, sess := range sessions {
		records, err := c.store.ListRecords(ctx, sess.ID)
		if err != nil {
			return 0, errs.NewTransientError("roster read failed", err)
		}
		for _, rec := range records {
			if rec.Present {
				present[rec.StudentID] = true
			}
		}
	}

	updated := 0
	for studentID := range present {
		if _, err := c.store.UpsertGrade(ctx, studentID, lectureID, value); err != nil {
			return updated, errs.NewTransientError("grade write failed", err)
		}
		updated++
	}
	log.Printf("assigned attendance grade %.2f to %d students in lecture %s", value, updated, lectureID)

	if updated > 0 {
		c.enqueueRecalc(ctx, lectureID)
	}
	return updated, nil
}

// Recalculate asks the external aggregation side to re-derive totals for a
// lecture. From this core's perspective the call is opaque and idempotent.
func (c *Calculator) Recalculate(ctx context.Context, lectureID string) error {
	if lectureID == "" {
		return errs.NewValidationError("lecture id required")
	}
	c.enqueueRecalc(ctx, lectureID)
	return nil
}

func (c *Calculator) enqueueRecalc(ctx context.Context, lectureID string) {
	if c.q == nil {
		return
	}
	msg := queue.Message{Type: MsgRecalc, Body: []byte(lectureID)}
	if err := c.q.Publish(ctx, msg); err != nil {
		// Recalculation is a consistency sweep, not part of the user-visible
		// operation; the next bulk mutation enqueues again.
		log.Printf("recalc enqueue failed for lecture %s: %v", lectureID, err)
	}
}
