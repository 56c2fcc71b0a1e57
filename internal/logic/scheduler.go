package logic

import (
	"math"
	"time"
)

// Decision is the scheduler output for one tick.
type Decision struct {
	Interval time.Duration
	// Emergency is the new value of the session's emergency-active flag.
	// The scheduler is the only place that decides it.
	Emergency bool
}

// NextInterval picks how long to wait before the next sample.
//
// Rules, first match wins:
//  1. critical: emergency interval
//  2. elevated: twice the emergency interval
//  3. suspended: suspended interval
//  4. enough stable readings: relaxed interval
//  5. small temperature change: normal interval
//  6. otherwise: half the normal interval
//
// Emergency levels are checked before suspension so a suspended device still
// polls fast when it gets hot.
func NextInterval(level Level, stab Stability, suspended bool, ladder Ladder) Decision {
	switch level {
	case LevelCritical:
		return Decision{Interval: ladder.Emergency, Emergency: true}
	case LevelElevated:
		return Decision{Interval: ladder.Emergency * 2, Emergency: true}
	}

	switch {
	case suspended:
		return Decision{Interval: ladder.Suspended}
	case stab.Stable():
		return Decision{Interval: ladder.Relaxed}
	case stab.TempDelta < TempStabilityThreshold*2:
		return Decision{Interval: ladder.Normal}
	default:
		return Decision{Interval: ladder.Normal / 2}
	}
}

// ShouldPush decides whether a new duty cycle is worth writing to the device.
// applied is the last duty successfully written.
func ShouldPush(emergency, suspended bool, duty, applied float64) bool {
	if emergency {
		return true
	}
	if math.Abs(duty-applied) > OutputChangeThreshold {
		return true
	}
	return suspended && duty > MinimumAudibleDuty
}
