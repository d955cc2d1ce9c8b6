package token

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"rollcall/internal/metrics"
)

// Rotator issues a fresh join token for one session at a fixed cadence. It
// is an explicitly owned object: each instructor view holds its own rotator
// and stops it on the way out, so two tabs on the same session cannot fight
// over a shared timer.
//
// Rotations are strictly sequential: the run loop installs token N before
// the timer for N+1 is armed.
type Rotator struct {
	sessionID string
	store     Store
	period    time.Duration

	mu      sync.Mutex
	last    string
	started bool

	rotateCh chan chan rotateResult
	stop     context.CancelFunc
	done     chan struct{}
}

type rotateResult struct {
	tok string
	err error
}

// DefaultPeriod is the production rotation cadence.
const DefaultPeriod = 30 * time.Second

// NewRotator creates an idle rotator for a session.
func NewRotator(store Store, sessionID string, period time.Duration) *Rotator {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Rotator{
		sessionID: sessionID,
		store:     store,
		period:    period,
		rotateCh:  make(chan chan rotateResult),
	}
}

// Start issues the first token and begins the rotation timer. Calling Start
// on an active rotator is an error.
func (r *Rotator) Start(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return "", errors.New("rotator already started")
	}
	r.started = true
	r.mu.Unlock()

	tok, err := r.rotate(ctx)
	if err != nil {
		r.mu.Lock()
		r.started = false
		r.mu.Unlock()
		return "", err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.stop = cancel
	r.done = make(chan struct{})
	go r.run(runCtx)
	return tok, nil
}

// Stop cancels the timer. No further rotations occur; the last token simply
// ages out of the store.
func (r *Rotator) Stop() {
	r.mu.Lock()
	started := r.started
	stop := r.stop
	done := r.done
	r.mu.Unlock()
	if !started || stop == nil {
		return
	}
	stop()
	<-done
	r.mu.Lock()
	r.started = false
	r.mu.Unlock()
}

// RotateNow performs an out-of-band rotation and resets the countdown to the
// full period. The scheduled rotation does not double-fire.
func (r *Rotator) RotateNow(ctx context.Context) (string, error) {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return "", errors.New("rotator not started")
	}

	reply := make(chan rotateResult, 1)
	select {
	case r.rotateCh <- reply:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case res := <-reply:
		return res.tok, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Current returns the last token this rotator issued.
func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Rotator) run(ctx context.Context) {
	defer close(r.done)
	timer := time.NewTimer(r.period)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := r.rotate(ctx); err != nil && ctx.Err() == nil {
				log.Printf("session %s: scheduled rotation failed: %v", r.sessionID, err)
			}
			timer.Reset(r.period)
		case reply := <-r.rotateCh:
			tok, err := r.rotate(ctx)
			reply <- rotateResult{tok: tok, err: err}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(r.period)
		}
	}
}

// rotate generates a token and atomically installs it as current.
func (r *Rotator) rotate(ctx context.Context) (string, error) {
	tok, err := Generate()
	if err != nil {
		return "", err
	}
	if err := r.store.Install(ctx, r.sessionID, tok); err != nil {
		return "", err
	}
	r.mu.Lock()
	r.last = tok
	r.mu.Unlock()
	metrics.RotationsTotal.Inc()
	return tok, nil
}
