package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/errs"
	"rollcall/internal/join"
	"rollcall/internal/marks"
	"rollcall/internal/roster"
	"rollcall/internal/schedule"
	"rollcall/internal/session"
	"rollcall/internal/token"
)

// Server bundles the check-in core behind HTTP handlers.
type Server struct {
	cfg      config.App
	sessions *session.Manager
	store    roster.Store
	rotators *token.Registry
	joins    *join.Handler
	calc     *marks.Calculator
	dir      schedule.Directory
}

// NewServer creates the handler set.
func NewServer(cfg config.App, sessions *session.Manager, store roster.Store, rotators *token.Registry, joins *join.Handler, calc *marks.Calculator, dir schedule.Directory) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		rotators: rotators,
		joins:    joins,
		calc:     calc,
		dir:      dir,
	}
}

// Register mounts all versioned routes on the router group. The group is
// expected to carry the auth middleware already.
func (s *Server) Register(v1 *gin.RouterGroup) {
	v1.POST("/lectures/:id/sessions", s.openSession)
	v1.POST("/lectures/:id/rotate", s.rotate)
	v1.DELETE("/sessions/:id/rotator", s.stopRotator)
	v1.POST("/attendance/join", s.checkIn)
	v1.GET("/sessions/:id/roster", s.listRoster)
	v1.POST("/sessions/:id/roster/:studentID/toggle", s.toggle)
	v1.POST("/lectures/:id/grade", s.setGrade)
	v1.POST("/lectures/:id/recalculate", s.recalculate)
}

// tokenPayload is the response shape shared by open and rotate: everything
// the instructor view needs to render the scannable code.
type tokenPayload struct {
	Session  roster.Session `json:"session"`
	Token    string         `json:"token"`
	JoinLink string         `json:"join_link"`
	JoinJSON string         `json:"join_json"`
}

func (s *Server) tokenResponse(sess roster.Session, tok string) tokenPayload {
	p := join.Payload{Token: tok, LectureID: sess.LectureID}
	return tokenPayload{
		Session:  sess,
		Token:    tok,
		JoinLink: p.Link(s.cfg.PublicBaseURL),
		JoinJSON: p.JSON(),
	}
}

// openSession resolves or creates the active session for a lecture and makes
// sure its token rotation is running.
func (s *Server) openSession(c *gin.Context) {
	caller := auth.FromContext(c)
	sess, err := s.sessions.GetOrCreate(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}

	_, tok, err := s.rotators.Ensure(sess.ID)
	if err != nil {
		abortWithError(c, errs.NewTransientError("token rotation failed", err))
		return
	}
	c.JSON(http.StatusOK, s.tokenResponse(sess, tok))
}

// rotate performs a manual out-of-band rotation and resets the countdown.
func (s *Server) rotate(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.CanOpenSession() {
		abortWithError(c, errs.NewAuthorizationError("instructor capability required"))
		return
	}

	sess, err := s.sessions.GetOrCreate(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}

	tok, err := s.rotators.RotateNow(c.Request.Context(), sess.ID)
	if err != nil {
		abortWithError(c, errs.NewTransientError("rotation failed", err))
		return
	}
	c.JSON(http.StatusOK, s.tokenResponse(sess, tok))
}

// stopRotator cancels rotation when the instructor leaves the view. The
// session itself is never explicitly closed.
func (s *Server) stopRotator(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.CanOpenSession() {
		abortWithError(c, errs.NewAuthorizationError("instructor capability required"))
		return
	}
	s.rotators.Stop(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// checkIn is the student-facing redemption endpoint. It accepts the token
// and lecture id as fields, or the raw scanned payload (either wire form)
// for generic scanner apps.
func (s *Server) checkIn(c *gin.Context) {
	var req struct {
		Token     string   `json:"token"`
		LectureID string   `json:"lectureId"`
		Payload   string   `json:"payload"`
		Lat       *float64 `json:"lat"`
		Lon       *float64 `json:"lon"`
		DeviceRaw string   `json:"device_fingerprint"`
		DeviceHsh string   `json:"device_hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.NewValidationError("malformed request body"))
		return
	}

	p := join.Payload{Token: req.Token, LectureID: req.LectureID}
	if req.Payload != "" {
		var err error
		if p, err = join.ParsePayload(req.Payload); err != nil {
			abortWithError(c, err)
			return
		}
	}

	hash := req.DeviceHsh
	if hash == "" {
		hash = join.HashFingerprint(req.DeviceRaw)
	}
	sig := roster.Signals{
		IP:         c.ClientIP(),
		DeviceHash: hash,
		Lat:        req.Lat,
		Lon:        req.Lon,
		UserAgent:  c.Request.UserAgent(),
	}

	res, err := s.joins.CheckIn(c.Request.Context(), p, auth.FromContext(c), sig)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// listRoster returns the presence records for a session. The optional q
// parameter filters by student id substring; filtering is a projection and
// never mutates anything.
func (s *Server) listRoster(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.CanOpenSession() {
		abortWithError(c, errs.NewAuthorizationError("instructor capability required"))
		return
	}

	records, err := s.store.ListRecords(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, errs.NewTransientError("roster read failed", err))
		return
	}
	if q := c.Query("q"); q != "" {
		records = filterRecords(records, q)
	}
	c.JSON(http.StatusOK, gin.H{
		"records":          records,
		"poll_interval_ms": s.cfg.RosterPollInterval.Milliseconds(),
	})
}

// toggle flips a student's present flag. A student without a row yet gets
// one created, marked present.
func (s *Server) toggle(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.CanOpenSession() {
		abortWithError(c, errs.NewAuthorizationError("instructor capability required"))
		return
	}

	sessionID := c.Param("id")
	studentID := c.Param("studentID")
	records, err := s.store.ListRecords(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, errs.NewTransientError("roster read failed", err))
		return
	}
	present := true
	for _, rec := range records {
		if rec.StudentID == studentID {
			present = !rec.Present
			break
		}
	}

	rec, err := s.store.UpsertRecord(c.Request.Context(), sessionID, studentID, present, roster.Signals{})
	if err != nil {
		abortWithError(c, errs.NewTransientError("toggle failed", err))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// setGrade assigns the attendance grade to currently present students only.
func (s *Server) setGrade(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.CanOpenSession() {
		abortWithError(c, errs.NewAuthorizationError("instructor capability required"))
		return
	}

	// Pointer so an explicit zero grade binds; "required" would reject it.
	var req struct {
		Value *float64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		abortWithError(c, errs.NewValidationError("grade value required"))
		return
	}

	updated, err := s.calc.SetAttendanceGrade(c.Request.Context(), c.Param("id"), *req.Value)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// recalculate enqueues a downstream totals re-derivation.
func (s *Server) recalculate(c *gin.Context) {
	caller := auth.FromContext(c)
	if !caller.CanOpenSession() {
		abortWithError(c, errs.NewAuthorizationError("instructor capability required"))
		return
	}

	if err := s.calc.Recalculate(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func filterRecords(records []roster.Record, q string) []roster.Record {
	var res []roster.Record
	for _, rec := range records {
		if containsFold(rec.StudentID, q) {
			res = append(res, rec)
		}
	}
	return res
}
