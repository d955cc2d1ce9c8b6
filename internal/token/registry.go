package token

import (
	"context"
	"sync"
	"time"
)

// Registry tracks the active rotator per session on the API side, so there
// is exactly one rotation timer and one current token per session no matter
// how many instructor tabs are open. Rotators run on the registry's base
// context, not on request contexts.
type Registry struct {
	store  Store
	period time.Duration
	base   context.Context

	mu      sync.Mutex
	entries map[string]*entry
}

// entry is a rotator plus its startup handshake. ready is closed once Start
// finished, successfully or not; err is written before the close, so waiters
// observing the closed channel see it.
type entry struct {
	rot   *Rotator
	ready chan struct{}
	err   error
}

// NewRegistry creates a registry. base governs the lifetime of all rotators
// it starts; cancelling it stops every timer.
func NewRegistry(base context.Context, store Store, period time.Duration) *Registry {
	return &Registry{
		store:   store,
		period:  period,
		base:    base,
		entries: make(map[string]*entry),
	}
}

// Ensure returns the session's rotator, starting one (and issuing the first
// token) when none is active. The second return is the current token.
func (g *Registry) Ensure(sessionID string) (*Rotator, string, error) {
	rot, tok, _, err := g.ensure(sessionID)
	return rot, tok, err
}

// ensure resolves or starts the session's rotator. A concurrent caller that
// finds an entry mid-startup blocks until the first token is installed, so
// nobody ever observes a rotator without a current token. A failed start is
// reported to every waiter and the entry removed, letting a later call retry.
func (g *Registry) ensure(sessionID string) (*Rotator, string, bool, error) {
	g.mu.Lock()
	if e, ok := g.entries[sessionID]; ok {
		g.mu.Unlock()
		<-e.ready
		if e.err != nil {
			return nil, "", false, e.err
		}
		return e.rot, e.rot.Current(), false, nil
	}
	e := &entry{
		rot:   NewRotator(g.store, sessionID, g.period),
		ready: make(chan struct{}),
	}
	g.entries[sessionID] = e
	g.mu.Unlock()

	tok, err := e.rot.Start(g.base)
	if err != nil {
		e.err = err
		g.mu.Lock()
		delete(g.entries, sessionID)
		g.mu.Unlock()
		close(e.ready)
		return nil, "", false, err
	}
	close(e.ready)
	return e.rot, tok, true, nil
}

// RotateNow forces an out-of-band rotation for the session, starting a
// rotator first if needed. A freshly started rotator already issued its
// first token, so that one is returned as-is instead of being burned.
func (g *Registry) RotateNow(ctx context.Context, sessionID string) (string, error) {
	rot, tok, started, err := g.ensure(sessionID)
	if err != nil {
		return "", err
	}
	if started {
		return tok, nil
	}
	return rot.RotateNow(ctx)
}

// Stop cancels the session's rotation timer, if any. Waits out an in-flight
// startup first so the rotator is never left running unowned.
func (g *Registry) Stop(sessionID string) {
	g.mu.Lock()
	e, ok := g.entries[sessionID]
	if ok {
		delete(g.entries, sessionID)
	}
	g.mu.Unlock()
	if !ok {
		return
	}
	<-e.ready
	if e.err == nil {
		e.rot.Stop()
	}
}

// StopAll cancels every active rotation timer. Used on shutdown.
func (g *Registry) StopAll() {
	g.mu.Lock()
	entries := g.entries
	g.entries = make(map[string]*entry)
	g.mu.Unlock()
	for _, e := range entries {
		<-e.ready
		if e.err == nil {
			e.rot.Stop()
		}
	}
}
