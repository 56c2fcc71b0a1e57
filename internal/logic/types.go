// Package logic contains the pure thermal decision engine: curve evaluation,
// emergency classification, stability tracking and poll-interval scheduling.
// This package has NO external dependencies (no device, sensor, OS, or time.Sleep).
package logic

import "time"

// Thermal thresholds. These are fixed for the lifetime of the process.
const (
	ElevatedTemp           = 80.0 // °C, emergency polling starts here
	CriticalTemp           = 90.0 // °C, fastest polling
	TempStabilityThreshold = 2.0  // °C between ticks still counted as stable
	DutyStabilityThreshold = 0.05 // duty change between ticks still counted as stable
	RequiredStableReadings = 10   // stable ticks before relaxing the poll interval

	OutputChangeThreshold = 0.02 // minimum duty change worth writing to the device
	MinimumAudibleDuty    = 0.1  // duty above which a suspended device still gets writes
)

// Level is the emergency classification of a temperature.
type Level int

const (
	LevelNormal Level = iota
	LevelElevated
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "NORMAL"
	case LevelElevated:
		return "ELEVATED"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Ladder is the ordered set of poll intervals the scheduler chooses from.
type Ladder struct {
	Emergency time.Duration
	Normal    time.Duration
	Relaxed   time.Duration
	Suspended time.Duration
}

// DefaultLadder returns the standard 1s / 10s / 30s / 5m ladder.
func DefaultLadder() Ladder {
	return Ladder{
		Emergency: 1 * time.Second,
		Normal:    10 * time.Second,
		Relaxed:   30 * time.Second,
		Suspended: 5 * time.Minute,
	}
}

// Valid reports whether the ladder has usable ordering.
// Emergency must be shorter than Normal and Suspended must be the longest.
func (l Ladder) Valid() bool {
	if l.Emergency <= 0 || l.Emergency >= l.Normal {
		return false
	}
	return l.Suspended >= l.Normal && l.Suspended >= l.Relaxed
}
