package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PGStore persists sessions, records and grades in Postgres.
type PGStore struct {
	db *sql.DB
}

// NewPGStore creates a store backed by the given connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// ListSessions returns sessions for a lecture, newest first.
func (s *PGStore) ListSessions(ctx context.Context, lectureID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lecture_id, opened_at
		FROM attendance_sessions
		WHERE lecture_id = $1
		ORDER BY opened_at DESC
	`, lectureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.LectureID, &sess.OpenedAt); err != nil {
			return nil, err
		}
		res = append(res, sess)
	}
	return res, rows.Err()
}

// CreateSession opens a new session for a lecture.
func (s *PGStore) CreateSession(ctx context.Context, lectureID string) (Session, error) {
	sess := Session{ID: uuid.NewString(), LectureID: lectureID}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions (id, lecture_id)
		VALUES ($1, $2)
		RETURNING opened_at
	`, sess.ID, lectureID)
	if err := row.Scan(&sess.OpenedAt); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ListRecords returns all presence records for a session ordered by student.
func (s *PGStore) ListRecords(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, student_id, present, marked_at, ip, device_hash, lat, lon, user_agent
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY student_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// UpsertRecord creates or updates the (session, student) row. The unique
// constraint on (session_id, student_id) makes concurrent first check-ins
// from multiple devices collapse into one row.
func (s *PGStore) UpsertRecord(ctx context.Context, sessionID, studentID string, present bool, sig Signals) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, present, marked_at, ip, device_hash, lat, lon, user_agent)
		VALUES ($1, $2, $3, $4, NOW(), NULLIF($5,''), NULLIF($6,''), $7, $8, NULLIF($9,''))
		ON CONFLICT (session_id, student_id) DO UPDATE SET
			present     = EXCLUDED.present,
			marked_at   = NOW(),
			ip          = COALESCE(EXCLUDED.ip, attendance_records.ip),
			device_hash = COALESCE(EXCLUDED.device_hash, attendance_records.device_hash),
			lat         = COALESCE(EXCLUDED.lat, attendance_records.lat),
			lon         = COALESCE(EXCLUDED.lon, attendance_records.lon),
			user_agent  = COALESCE(EXCLUDED.user_agent, attendance_records.user_agent)
		RETURNING id, session_id, student_id, present, marked_at, ip, device_hash, lat, lon, user_agent
	`, uuid.NewString(), sessionID, studentID, present, sig.IP, sig.DeviceHash, sig.Lat, sig.Lon, sig.UserAgent)
	return scanRecord(row)
}

// GetGrade returns the attendance grade for (student, lecture), or nil when
// none has been assigned yet.
func (s *PGStore) GetGrade(ctx context.Context, studentID, lectureID string) (*Grade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT student_id, lecture_id, value, updated_at
		FROM attendance_grades
		WHERE student_id = $1 AND lecture_id = $2
	`, studentID, lectureID)
	var g Grade
	if err := row.Scan(&g.StudentID, &g.LectureID, &g.Value, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// UpsertGrade creates or replaces the attendance grade for (student, lecture).
func (s *PGStore) UpsertGrade(ctx context.Context, studentID, lectureID string, value float64) (Grade, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_grades (student_id, lecture_id, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (student_id, lecture_id) DO UPDATE SET
			value = EXCLUDED.value, updated_at = NOW()
		RETURNING student_id, lecture_id, value, updated_at
	`, studentID, lectureID, value)
	var g Grade
	if err := row.Scan(&g.StudentID, &g.LectureID, &g.Value, &g.UpdatedAt); err != nil {
		return Grade{}, err
	}
	return g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec       Record
		ip, hash  sql.NullString
		userAgent sql.NullString
		lat, lon  sql.NullFloat64
		markedAt  sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Present, &markedAt, &ip, &hash, &lat, &lon, &userAgent); err != nil {
		return Record{}, err
	}
	if markedAt.Valid {
		rec.MarkedAt = markedAt.Time
	} else {
		rec.MarkedAt = time.Time{}
	}
	rec.Signals.IP = ip.String
	rec.Signals.DeviceHash = hash.String
	rec.Signals.UserAgent = userAgent.String
	if lat.Valid {
		v := lat.Float64
		rec.Signals.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		rec.Signals.Lon = &v
	}
	return rec, nil
}
