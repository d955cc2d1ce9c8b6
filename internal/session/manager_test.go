package session

import (
	"context"
	"testing"

	"rollcall/internal/auth"
	"rollcall/internal/errs"
	"rollcall/internal/roster"
	"rollcall/internal/schedule"
)

func newManager(t *testing.T) (*Manager, *roster.MemStore) {
	t.Helper()
	dir := schedule.NewStatic()
	dir.AddLecture(schedule.Lecture{
		ID:          "lec-1",
		Title:       "Operating Systems",
		Instructors: []string{"instr-1"},
	}, []string{"s1"})
	store := roster.NewMemStore()
	return NewManager(store, dir), store
}

func TestGetOrCreateCapability(t *testing.T) {
	tests := []struct {
		name    string
		caller  auth.Identity
		wantErr func(error) bool
	}{
		{name: "own instructor", caller: auth.Identity{UserID: "instr-1", Role: auth.RoleInstructor}},
		{name: "staff", caller: auth.Identity{UserID: "admin-1", Role: auth.RoleStaff}},
		{
			name:    "foreign instructor",
			caller:  auth.Identity{UserID: "instr-2", Role: auth.RoleInstructor},
			wantErr: errs.IsAuthorization,
		},
		{
			name:    "student before session exists",
			caller:  auth.Identity{UserID: "s1", Role: auth.RoleStudent},
			wantErr: errs.IsAuthorization,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newManager(t)
			sess, err := m.GetOrCreate(context.Background(), "lec-1", tt.caller)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("GetOrCreate() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetOrCreate() error = %v", err)
			}
			if sess.ID == "" || sess.LectureID != "lec-1" {
				t.Errorf("GetOrCreate() = %+v", sess)
			}
		})
	}
}

func TestGetOrCreateConverges(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()
	instructor := auth.Identity{UserID: "instr-1", Role: auth.RoleInstructor}

	first, err := m.GetOrCreate(ctx, "lec-1", instructor)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	second, err := m.GetOrCreate(ctx, "lec-1", instructor)
	if err != nil {
		t.Fatalf("second GetOrCreate() error = %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat open minted a new session: %s then %s", first.ID, second.ID)
	}

	// Once open, a student deep link resolves the same session without any
	// create capability.
	student := auth.Identity{UserID: "s1", Role: auth.RoleStudent}
	joined, err := m.GetOrCreate(ctx, "lec-1", student)
	if err != nil {
		t.Fatalf("student GetOrCreate() error = %v", err)
	}
	if joined.ID != first.ID {
		t.Fatalf("student resolved session %s, want %s", joined.ID, first.ID)
	}

	sessions, err := store.ListSessions(ctx, "lec-1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
}

func TestGetOrCreateUnknownLecture(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.GetOrCreate(context.Background(), "lec-missing", auth.Identity{UserID: "instr-1", Role: auth.RoleInstructor})
	if !errs.IsNotFound(err) {
		t.Fatalf("GetOrCreate() error = %v, want NotFoundError", err)
	}
}

func TestGetOrCreateEmptyLecture(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.GetOrCreate(context.Background(), "", auth.Identity{UserID: "instr-1", Role: auth.RoleInstructor})
	if !errs.IsValidation(err) {
		t.Fatalf("GetOrCreate() error = %v, want ValidationError", err)
	}
}
