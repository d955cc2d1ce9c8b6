package roster

import (
	"context"
	"testing"
	"time"
)

func TestMemStoreSessionOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	first, err := store.CreateSession(ctx, "lec-1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := store.CreateSession(ctx, "lec-1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	sessions, err := store.ListSessions(ctx, "lec-1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Fatalf("sessions not most-recent-first: %+v", sessions)
	}

	other, err := store.ListSessions(ctx, "lec-other")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("foreign lecture returned sessions: %+v", other)
	}
}

func TestMemStoreUpsertRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	sess, _ := store.CreateSession(ctx, "lec-1")

	lat := 1.5
	rec, err := store.UpsertRecord(ctx, sess.ID, "s1", true, Signals{IP: "10.0.0.1", Lat: &lat})
	if err != nil {
		t.Fatalf("UpsertRecord() error = %v", err)
	}
	if rec.ID == "" || !rec.Present {
		t.Fatalf("first upsert = %+v", rec)
	}

	// Re-upsert keeps the same row and merges rather than clears signals.
	rec2, err := store.UpsertRecord(ctx, sess.ID, "s1", true, Signals{DeviceHash: "dh"})
	if err != nil {
		t.Fatalf("second UpsertRecord() error = %v", err)
	}
	if rec2.ID != rec.ID {
		t.Fatalf("repeat upsert created a new row: %s vs %s", rec2.ID, rec.ID)
	}
	if rec2.Signals.IP != "10.0.0.1" || rec2.Signals.DeviceHash != "dh" {
		t.Fatalf("signals not merged: %+v", rec2.Signals)
	}
	if rec2.Signals.Lat == nil || *rec2.Signals.Lat != 1.5 {
		t.Fatalf("location dropped on merge: %+v", rec2.Signals)
	}

	// Flipping present is an in-place update.
	rec3, err := store.UpsertRecord(ctx, sess.ID, "s1", false, Signals{})
	if err != nil {
		t.Fatalf("toggle UpsertRecord() error = %v", err)
	}
	if rec3.Present {
		t.Fatal("present flag not flipped")
	}

	records, err := store.ListRecords(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestMemStoreGrades(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	g, err := store.GetGrade(ctx, "s1", "lec-1")
	if err != nil {
		t.Fatalf("GetGrade() error = %v", err)
	}
	if g != nil {
		t.Fatalf("grade before assignment = %+v, want nil", g)
	}

	if _, err := store.UpsertGrade(ctx, "s1", "lec-1", 5); err != nil {
		t.Fatalf("UpsertGrade() error = %v", err)
	}
	if _, err := store.UpsertGrade(ctx, "s1", "lec-1", 8); err != nil {
		t.Fatalf("repeat UpsertGrade() error = %v", err)
	}

	g, err = store.GetGrade(ctx, "s1", "lec-1")
	if err != nil || g == nil {
		t.Fatalf("GetGrade() = %v, %v", g, err)
	}
	if g.Value != 8 {
		t.Fatalf("grade = %v, want the replacement 8", g.Value)
	}

	// Grades are scoped per lecture.
	if g, _ := store.GetGrade(ctx, "s1", "lec-2"); g != nil {
		t.Fatalf("grade leaked across lectures: %+v", g)
	}
}
