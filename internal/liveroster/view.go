package liveroster

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"rollcall/internal/errs"
	"rollcall/internal/roster"
)

// failStreakThreshold is how many consecutive poll failures accumulate
// before a single notice is surfaced. Individual failures are only logged.
const failStreakThreshold = 5

// View is the instructor-facing live roster for one session. It polls the
// roster store at a short fixed interval while mounted, resyncs immediately
// after local mutations or on Refresh, and keeps the latest snapshot for
// rendering. Each instructor view owns its poller and stops it on unmount.
type View struct {
	sessionID string
	store     roster.Store
	interval  time.Duration
	onNotice  func(msg string)

	mu         sync.Mutex
	snapshot   []roster.Record
	failStreak int
	noticed    bool
	started    bool

	refreshCh chan struct{}
	stop      context.CancelFunc
	done      chan struct{}
}

// NewView creates an idle view. onNotice receives the one sustained-failure
// notice; nil disables it.
func NewView(store roster.Store, sessionID string, interval time.Duration, onNotice func(string)) *View {
	if interval <= 0 {
		interval = time.Second
	}
	return &View{
		sessionID: sessionID,
		store:     store,
		interval:  interval,
		onNotice:  onNotice,
		refreshCh: make(chan struct{}, 1),
	}
}

// Start performs the initial fetch and begins polling.
func (v *View) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.started {
		v.mu.Unlock()
		return errors.New("view already started")
	}
	v.started = true
	v.mu.Unlock()

	v.fetch(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	v.stop = cancel
	v.done = make(chan struct{})
	go v.run(runCtx)
	return nil
}

// Stop cancels the poll timer immediately.
func (v *View) Stop() {
	v.mu.Lock()
	started := v.started
	stop := v.stop
	done := v.done
	v.mu.Unlock()
	if !started || stop == nil {
		return
	}
	stop()
	<-done
	v.mu.Lock()
	v.started = false
	v.mu.Unlock()
}

// Refresh requests an immediate out-of-band resync, used when the view
// regains visibility or focus. Coalesces when one is already pending.
func (v *View) Refresh() {
	select {
	case v.refreshCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the latest fetched roster.
func (v *View) Snapshot() []roster.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]roster.Record(nil), v.snapshot...)
}

// Filter is a pure projection over the snapshot: records whose student id
// contains the query, case-insensitive. It never touches the backend.
func (v *View) Filter(query string) []roster.Record {
	query = strings.ToLower(strings.TrimSpace(query))
	all := v.Snapshot()
	if query == "" {
		return all
	}
	var res []roster.Record
	for _, rec := range all {
		if strings.Contains(strings.ToLower(rec.StudentID), query) {
			res = append(res, rec)
		}
	}
	return res
}

// Toggle flips a student's present flag via an upsert and resyncs right
// away so the change is visible before the next scheduled poll. A student
// with no row yet gets one created, marked present.
func (v *View) Toggle(ctx context.Context, studentID string) (roster.Record, error) {
	if studentID == "" {
		return roster.Record{}, errs.NewValidationError("student id required")
	}

	present := true
	v.mu.Lock()
	for _, rec := range v.snapshot {
		if rec.StudentID == studentID {
			present = !rec.Present
			break
		}
	}
	v.mu.Unlock()

	rec, err := v.store.UpsertRecord(ctx, v.sessionID, studentID, present, roster.Signals{})
	if err != nil {
		return roster.Record{}, errs.NewTransientError("toggle failed", err)
	}
	v.fetch(ctx)
	return rec, nil
}

func (v *View) run(ctx context.Context) {
	defer close(v.done)
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.fetch(ctx)
		case <-v.refreshCh:
			v.fetch(ctx)
		}
	}
}

// fetch pulls the roster once. Failures are logged per poll and only a
// sustained streak surfaces a single notice, to avoid notification spam.
func (v *View) fetch(ctx context.Context) {
	records, err := v.store.ListRecords(ctx, v.sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		v.mu.Lock()
		v.failStreak++
		streak := v.failStreak
		notify := streak >= failStreakThreshold && !v.noticed
		if notify {
			v.noticed = true
		}
		onNotice := v.onNotice
		v.mu.Unlock()

		log.Printf("session %s: roster poll failed (streak %d): %v", v.sessionID, streak, err)
		if notify && onNotice != nil {
			onNotice("roster updates are failing; check your connection")
		}
		return
	}

	v.mu.Lock()
	v.snapshot = records
	v.failStreak = 0
	v.noticed = false
	v.mu.Unlock()
}
