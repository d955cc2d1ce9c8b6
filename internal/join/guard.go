package join

import "sync"

// GuardState is the lifecycle of one check-in flow instance.
type GuardState int

const (
	// Idle means no attempt has started.
	Idle GuardState = iota
	// InFlight means one attempt is running; further triggers are suppressed.
	InFlight
	// Confirmed is terminal: the attempt succeeded and the guard stays latched.
	Confirmed
	// Failed is terminal for this flow instance; the user re-initiates with a
	// fresh flow rather than retrying in place.
	Failed
)

func (s GuardState) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Guard is the re-entrancy latch for a check-in flow. Duplicate trigger
// events (a second scan, a re-render) hitting Begin while an attempt is in
// flight, or after one finished, are rejected. Transitions are driven only
// by protocol events: Begin, Succeed, Fail.
type Guard struct {
	mu    sync.Mutex
	state GuardState
}

// Begin attempts Idle -> InFlight. It returns false from any other state,
// closing the window where two near-simultaneous triggers could both pass a
// bare boolean check.
func (g *Guard) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Idle {
		return false
	}
	g.state = InFlight
	return true
}

// Succeed moves InFlight -> Confirmed. No-op from any other state.
func (g *Guard) Succeed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == InFlight {
		g.state = Confirmed
	}
}

// Fail moves InFlight -> Failed. No-op from any other state.
func (g *Guard) Fail() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == InFlight {
		g.state = Failed
	}
}

// State returns the current guard state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
