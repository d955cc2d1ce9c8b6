package join

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"rollcall/internal/roster"
)

// SignalProvider collects best-effort advisory metadata about the device
// performing a check-in. Signals are strictly informational: they are stored
// on the record and never gate acceptance. A deployment can disable
// collection by plugging in NoSignals.
type SignalProvider interface {
	Collect(ctx context.Context) roster.Signals
}

// NoSignals collects nothing.
type NoSignals struct{}

// Collect returns empty signals.
func (NoSignals) Collect(context.Context) roster.Signals { return roster.Signals{} }

// StaticSignals returns a fixed set of signals, useful for clients that
// gathered geolocation and fingerprint up front.
type StaticSignals struct {
	Signals roster.Signals
}

// Collect returns the configured signals.
func (s StaticSignals) Collect(context.Context) roster.Signals { return s.Signals }

// HashFingerprint reduces a raw device fingerprint to a stable sha256 hex
// digest so the raw value never leaves the device.
func HashFingerprint(raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
