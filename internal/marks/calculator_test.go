package marks

import (
	"context"
	"testing"

	"rollcall/internal/errs"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
)

func seedLecture(t *testing.T, store *roster.MemStore) roster.Session {
	t.Helper()
	sess, err := store.CreateSession(context.Background(), "lec-1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return sess
}

func mark(t *testing.T, store *roster.MemStore, sessionID, studentID string, present bool) {
	t.Helper()
	if _, err := store.UpsertRecord(context.Background(), sessionID, studentID, present, roster.Signals{}); err != nil {
		t.Fatalf("UpsertRecord() error = %v", err)
	}
}

func TestSetAttendanceGradeSelective(t *testing.T) {
	ctx := context.Background()
	store := roster.NewMemStore()
	sess := seedLecture(t, store)
	mark(t, store, sess.ID, "s1", true)
	mark(t, store, sess.ID, "s2", true)
	mark(t, store, sess.ID, "s3", false) // toggled absent

	q := queue.NewInMemory(4)
	calc := NewCalculator(store, q)

	updated, err := calc.SetAttendanceGrade(ctx, "lec-1", 7.5)
	if err != nil {
		t.Fatalf("SetAttendanceGrade() error = %v", err)
	}
	if updated != 2 {
		t.Fatalf("updated = %d, want 2", updated)
	}

	for _, id := range []string{"s1", "s2"} {
		g, err := store.GetGrade(ctx, id, "lec-1")
		if err != nil || g == nil {
			t.Fatalf("grade for %s missing: %v %v", id, g, err)
		}
		if g.Value != 7.5 {
			t.Errorf("grade for %s = %v, want 7.5", id, g.Value)
		}
	}
	if g, _ := store.GetGrade(ctx, "s3", "lec-1"); g != nil {
		t.Errorf("absent student graded: %+v", g)
	}

	// Downstream recalculation was queued exactly once.
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	msg := <-msgs
	if msg.Type != MsgRecalc || string(msg.Body) != "lec-1" {
		t.Fatalf("queued message = %+v", msg)
	}
}

func TestSetAttendanceGradeOverwrites(t *testing.T) {
	ctx := context.Background()
	store := roster.NewMemStore()
	sess := seedLecture(t, store)
	mark(t, store, sess.ID, "s1", true)

	calc := NewCalculator(store, nil)
	if _, err := calc.SetAttendanceGrade(ctx, "lec-1", 5); err != nil {
		t.Fatalf("SetAttendanceGrade() error = %v", err)
	}
	if _, err := calc.SetAttendanceGrade(ctx, "lec-1", 9); err != nil {
		t.Fatalf("repeat SetAttendanceGrade() error = %v", err)
	}

	g, err := store.GetGrade(ctx, "s1", "lec-1")
	if err != nil || g == nil {
		t.Fatalf("grade missing: %v %v", g, err)
	}
	if g.Value != 9 {
		t.Fatalf("grade = %v, want the later assignment 9", g.Value)
	}
}

func TestSetAttendanceGradeAcrossSessions(t *testing.T) {
	ctx := context.Background()
	store := roster.NewMemStore()
	sess1 := seedLecture(t, store)
	sess2 := seedLecture(t, store)
	mark(t, store, sess1.ID, "s1", true)
	mark(t, store, sess2.ID, "s2", true)

	calc := NewCalculator(store, nil)
	updated, err := calc.SetAttendanceGrade(ctx, "lec-1", 10)
	if err != nil {
		t.Fatalf("SetAttendanceGrade() error = %v", err)
	}
	if updated != 2 {
		t.Fatalf("updated = %d, want one grade per student across sessions", updated)
	}
}

func TestSetAttendanceGradeNoSessions(t *testing.T) {
	calc := NewCalculator(roster.NewMemStore(), nil)
	_, err := calc.SetAttendanceGrade(context.Background(), "lec-1", 10)
	if !errs.IsNotFound(err) {
		t.Fatalf("SetAttendanceGrade() error = %v, want NotFoundError", err)
	}
}

func TestSetAttendanceGradeNobodyPresent(t *testing.T) {
	ctx := context.Background()
	store := roster.NewMemStore()
	sess := seedLecture(t, store)
	mark(t, store, sess.ID, "s1", false)

	q := queue.NewInMemory(1)
	calc := NewCalculator(store, q)
	updated, err := calc.SetAttendanceGrade(ctx, "lec-1", 10)
	if err != nil {
		t.Fatalf("SetAttendanceGrade() error = %v", err)
	}
	if updated != 0 {
		t.Fatalf("updated = %d, want 0", updated)
	}

	// Nothing changed, so no recalculation was queued.
	if err := calc.Recalculate(ctx, "lec-1"); err != nil {
		t.Fatalf("Recalculate() error = %v", err)
	}
	msgs, _ := q.Consume(ctx)
	msg := <-msgs
	if msg.Type != MsgRecalc {
		t.Fatalf("first queued message = %+v, want the explicit recalc", msg)
	}
	select {
	case extra := <-msgs:
		t.Fatalf("unexpected extra message %+v", extra)
	default:
	}
}
