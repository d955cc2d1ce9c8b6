package join

import (
	"context"
	"log"

	"rollcall/internal/auth"
	"rollcall/internal/errs"
	"rollcall/internal/metrics"
	"rollcall/internal/roster"
	"rollcall/internal/schedule"
	"rollcall/internal/session"
	"rollcall/internal/token"
)

// Handler runs the student check-in protocol: resolve the session, redeem
// the presented token, verify enrollment, and upsert the presence record.
type Handler struct {
	sessions *session.Manager
	store    roster.Store
	tokens   token.Store
	dir      schedule.Directory
}

// NewHandler creates a check-in handler.
func NewHandler(sessions *session.Manager, store roster.Store, tokens token.Store, dir schedule.Directory) *Handler {
	return &Handler{sessions: sessions, store: store, tokens: tokens, dir: dir}
}

// Result is a successful check-in.
type Result struct {
	Session roster.Session `json:"session"`
	Record  roster.Record  `json:"record"`
}

// CheckIn redeems a join token for the caller. Repeat redemptions by the
// same student are idempotent: the storage layer keeps one row per
// (session, student) and this call only ever sets present=true on it.
// Advisory signals are attached when present but never affect the outcome.
func (h *Handler) CheckIn(ctx context.Context, p Payload, caller auth.Identity, sig roster.Signals) (Result, error) {
	res, err := h.checkIn(ctx, p, caller, sig)
	switch {
	case err == nil:
		metrics.CheckinsTotal.WithLabelValues("ok").Inc()
	case errs.IsTransient(err):
		metrics.CheckinsTotal.WithLabelValues("error").Inc()
	default:
		metrics.CheckinsTotal.WithLabelValues("rejected").Inc()
	}
	return res, err
}

func (h *Handler) checkIn(ctx context.Context, p Payload, caller auth.Identity, sig roster.Signals) (Result, error) {
	if p.LectureID == "" || p.Token == "" {
		return Result{}, errs.NewValidationError("lecture id and token required")
	}
	if caller.UserID == "" {
		return Result{}, errs.NewAuthorizationError("authentication required")
	}

	// Students only ever join an existing session here; creation stays an
	// instructor capability inside the manager.
	sess, err := h.sessions.GetOrCreate(ctx, p.LectureID, caller)
	if err != nil {
		return Result{}, err
	}

	// Every path revalidates against the live token store, including
	// manually pasted payloads. Current and the immediately superseded
	// token are accepted; anything older was retired by rotation.
	ok, err := h.tokens.Valid(ctx, sess.ID, p.Token)
	if err != nil {
		return Result{}, errs.NewTransientError("token check failed", err)
	}
	if !ok {
		return Result{}, errs.NewValidationError("join token expired or invalid")
	}

	enrolled, err := h.dir.ListEnrolled(ctx, p.LectureID)
	if err != nil {
		return Result{}, errs.NewTransientError("enrollment lookup failed", err)
	}
	if !schedule.IsEnrolled(enrolled, caller.UserID) {
		return Result{}, errs.NewAuthorizationError("NotEnrolled")
	}

	rec, err := h.store.UpsertRecord(ctx, sess.ID, caller.UserID, true, sig)
	if err != nil {
		return Result{}, errs.NewTransientError("record write failed", err)
	}
	log.Printf("student %s checked in to session %s", caller.UserID, sess.ID)
	return Result{Session: sess, Record: rec}, nil
}
