package roster

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for development and tests. It enforces the
// same (session, student) uniqueness as the Postgres store.
type MemStore struct {
	mu       sync.Mutex
	sessions map[string]Session            // session id -> session
	records  map[string]map[string]*Record // session id -> student id -> record
	grades   map[string]*Grade             // student id + "/" + lecture id -> grade
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string]Session),
		records:  make(map[string]map[string]*Record),
		grades:   make(map[string]*Grade),
	}
}

// ListSessions returns sessions for a lecture, newest first.
func (s *MemStore) ListSessions(_ context.Context, lectureID string) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Session
	for _, sess := range s.sessions {
		if sess.LectureID == lectureID {
			res = append(res, sess)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].OpenedAt.After(res[j].OpenedAt) })
	return res, nil
}

// CreateSession opens a new session for a lecture.
func (s *MemStore) CreateSession(_ context.Context, lectureID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := Session{ID: uuid.NewString(), LectureID: lectureID, OpenedAt: time.Now().UTC()}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// ListRecords returns all presence records for a session sorted by student id.
func (s *MemStore) ListRecords(_ context.Context, sessionID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for _, rec := range s.records[sessionID] {
		res = append(res, *rec)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].StudentID < res[j].StudentID })
	return res, nil
}

// UpsertRecord creates or updates the (session, student) row under the store
// lock, matching the Postgres unique-constraint behavior.
func (s *MemStore) UpsertRecord(_ context.Context, sessionID, studentID string, present bool, sig Signals) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byStudent, ok := s.records[sessionID]
	if !ok {
		byStudent = make(map[string]*Record)
		s.records[sessionID] = byStudent
	}
	rec, ok := byStudent[studentID]
	if !ok {
		rec = &Record{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			StudentID: studentID,
		}
		byStudent[studentID] = rec
	}
	rec.Present = present
	rec.MarkedAt = time.Now().UTC()
	mergeSignals(&rec.Signals, sig)
	return *rec, nil
}

// GetGrade returns the attendance grade for (student, lecture), or nil.
func (s *MemStore) GetGrade(_ context.Context, studentID, lectureID string) (*Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grades[studentID+"/"+lectureID]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

// UpsertGrade creates or replaces the attendance grade for (student, lecture).
func (s *MemStore) UpsertGrade(_ context.Context, studentID, lectureID string, value float64) (Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &Grade{StudentID: studentID, LectureID: lectureID, Value: value, UpdatedAt: time.Now().UTC()}
	s.grades[studentID+"/"+lectureID] = g
	return *g, nil
}

func mergeSignals(dst *Signals, src Signals) {
	if src.IP != "" {
		dst.IP = src.IP
	}
	if src.DeviceHash != "" {
		dst.DeviceHash = src.DeviceHash
	}
	if src.Lat != nil {
		dst.Lat = src.Lat
	}
	if src.Lon != nil {
		dst.Lon = src.Lon
	}
	if src.UserAgent != "" {
		dst.UserAgent = src.UserAgent
	}
}
