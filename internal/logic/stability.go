package logic

import "math"

// Stability is the history the scheduler relies on: the previous reading and
// how many consecutive ticks stayed within the stability thresholds.
type Stability struct {
	LastTemperature float64
	LastDutyCycle   float64
	// TempDelta is the absolute temperature change seen by the most recent update.
	TempDelta float64
	// Count saturates at RequiredStableReadings.
	Count int
}

// UpdateStability compares a new reading against the previous one and returns
// the updated history. The counter resets to zero as soon as either delta
// reaches its threshold.
func UpdateStability(prev Stability, temperature, duty float64) Stability {
	tempDelta := math.Abs(temperature - prev.LastTemperature)
	dutyDelta := math.Abs(duty - prev.LastDutyCycle)

	next := Stability{
		LastTemperature: temperature,
		LastDutyCycle:   duty,
		TempDelta:       tempDelta,
	}
	if tempDelta < TempStabilityThreshold && dutyDelta < DutyStabilityThreshold {
		next.Count = min(prev.Count+1, RequiredStableReadings)
	}
	return next
}

// Stable reports whether enough consecutive stable readings were seen to relax polling.
func (s Stability) Stable() bool {
	return s.Count >= RequiredStableReadings
}
