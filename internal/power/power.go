// Package power reports whether the host is suspending. Detection is
// pluggable; without a supported mechanism the host is reported as active.
package power

import "sync/atomic"

// Probe reports the host power state.
type Probe interface {
	// Suspended reports whether the host is suspended or about to suspend.
	Suspended() bool
}

// Unsupported is the default probe. It cannot detect suspension and always
// reports the host as active.
type Unsupported struct{}

// Suspended always returns false.
func (Unsupported) Suspended() bool { return false }

// Fixed is a probe whose state is set by the caller. It is safe for
// concurrent use and is used by tests and by signal-driven probes.
type Fixed struct {
	v atomic.Bool
}

// NewFixed creates a Fixed probe with the given initial state.
func NewFixed(suspended bool) *Fixed {
	f := &Fixed{}
	f.v.Store(suspended)
	return f
}

// Set changes the reported state.
func (f *Fixed) Set(suspended bool) { f.v.Store(suspended) }

// Suspended returns the current state.
func (f *Fixed) Suspended() bool { return f.v.Load() }
