//go:build linux

package device

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOOnDuty is the duty cycle at or above which an on/off fan is switched on.
const GPIOOnDuty = 0.1

// GPIOFan drives a non-PWM fan through a single GPIO output line.
type GPIOFan struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	onDuty float64
}

// OpenGPIO requests the line as an output, initially low (fan off).
func OpenGPIO(chipName string, offset int, onDuty float64) (*GPIOFan, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("thermal-governor"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request fan line %d: %w", offset, err)
	}

	return &GPIOFan{chip: chip, line: line, onDuty: onDuty}, nil
}

// SetDutyCycle switches the fan on when duty reaches the on threshold.
func (g *GPIOFan) SetDutyCycle(duty float64) error {
	v := 0
	if clamp(duty) >= g.onDuty {
		v = 1
	}
	if err := g.line.SetValue(v); err != nil {
		return fmt.Errorf("set fan line: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures the line to input with pull-down (matching Pi boot defaults)
// before closing so the fan does not stay latched on across reboots.
func (g *GPIOFan) Close() error {
	var errs []error

	if g.line != nil {
		if err := g.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure fan line: %w", err))
		}
		if err := g.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fan line: %w", err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
