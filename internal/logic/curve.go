package logic

import (
	"errors"
	"fmt"
	"math"
)

// ControlPoint is one vertex of the fan curve.
type ControlPoint struct {
	Temperature int     // °C
	DutyCycle   float64 // 0.0 (off) to 1.0 (full)
}

// Curve is an ordered fan curve, strictly increasing in temperature.
// A Curve is immutable once a control session starts.
type Curve []ControlPoint

// DefaultCurve returns the built-in fallback curve.
func DefaultCurve() Curve {
	return Curve{
		{Temperature: 20, DutyCycle: 0.1},
		{Temperature: 40, DutyCycle: 0.5},
		{Temperature: 50, DutyCycle: 0.6},
		{Temperature: 60, DutyCycle: 0.7},
		{Temperature: 100, DutyCycle: 1.0},
	}
}

// Validate checks that the curve has at least two points, strictly increasing
// temperatures and duty cycles within [0, 1].
func (c Curve) Validate() error {
	if len(c) < 2 {
		return errors.New("curve needs at least 2 points")
	}
	for i, p := range c {
		if math.IsNaN(p.DutyCycle) || p.DutyCycle < 0 || p.DutyCycle > 1 {
			return fmt.Errorf("point %d: duty cycle %.3f outside [0, 1]", i, p.DutyCycle)
		}
		if i > 0 && c[i-1].Temperature >= p.Temperature {
			return fmt.Errorf("point %d: temperature %d°C not above %d°C", i, p.Temperature, c[i-1].Temperature)
		}
	}
	return nil
}

// Evaluate returns the duty cycle for the given temperature.
//
// Below the first point the duty ramps linearly from (0°C, 0.0). Above the
// last point it is clamped to the last point's duty. Between points it is
// linearly interpolated. An empty curve yields 0.
func (c Curve) Evaluate(temperature float64) float64 {
	if len(c) == 0 || temperature <= 0 {
		return 0
	}

	first := c[0]
	if temperature <= float64(first.Temperature) {
		return first.DutyCycle * temperature / float64(first.Temperature)
	}

	last := c[len(c)-1]
	if temperature >= float64(last.Temperature) {
		return last.DutyCycle
	}

	for i := 0; i < len(c)-1; i++ {
		lo, hi := c[i], c[i+1]
		if temperature < float64(lo.Temperature) || temperature > float64(hi.Temperature) {
			continue
		}
		width := float64(hi.Temperature - lo.Temperature)
		if width <= 0 {
			return lo.DutyCycle
		}
		frac := (temperature - float64(lo.Temperature)) / width
		return lo.DutyCycle + (hi.DutyCycle-lo.DutyCycle)*frac
	}

	// Unreachable for a valid curve.
	return last.DutyCycle
}
