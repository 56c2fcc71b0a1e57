// Package device drives the cooling device with hardware abstraction.
// The real implementations use Linux hwmon sysfs PWM files or a GPIO
// character device line. The fake implementation allows testing without hardware.
package device

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Device applies duty cycles to an open cooling device handle.
type Device interface {
	// SetDutyCycle applies a duty cycle in [0, 1].
	SetDutyCycle(duty float64) error

	// Close releases the device. It is called exactly once per session.
	Close() error
}

// Opener opens the cooling device for a control session.
type Opener func() (Device, error)

// ErrUnsupported is returned when a device kind is not available on this platform.
var ErrUnsupported = errors.New("device: not supported on this platform")

// Kind names a device backend.
type Kind string

const (
	KindHwmon Kind = "hwmon"
	KindGPIO  Kind = "gpio"
)

// Spec identifies a cooling device.
//
//	hwmon:/sys/class/hwmon/hwmon2/pwm1
//	gpio:gpiochip0:17
type Spec struct {
	Kind Kind
	Path string // hwmon pwm file
	Chip string // gpio chip name
	Line int    // gpio line offset
}

// DefaultGPIOChip is used when a gpio spec omits the chip.
const DefaultGPIOChip = "gpiochip0"

// ParseSpec parses a device identifier.
func ParseSpec(s string) (Spec, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return Spec{}, fmt.Errorf("device %q: want kind:target", s)
	}

	switch Kind(kind) {
	case KindHwmon:
		return Spec{Kind: KindHwmon, Path: rest}, nil
	case KindGPIO:
		chip, lineStr, found := strings.Cut(rest, ":")
		if !found {
			chip, lineStr = DefaultGPIOChip, rest
		}
		line, err := strconv.Atoi(lineStr)
		if err != nil || line < 0 {
			return Spec{}, fmt.Errorf("device %q: bad gpio line %q", s, lineStr)
		}
		return Spec{Kind: KindGPIO, Chip: chip, Line: line}, nil
	default:
		return Spec{}, fmt.Errorf("device %q: unknown kind %q", s, kind)
	}
}

// String returns the identifier form of the spec.
func (s Spec) String() string {
	if s.Kind == KindGPIO {
		return fmt.Sprintf("gpio:%s:%d", s.Chip, s.Line)
	}
	return string(s.Kind) + ":" + s.Path
}

// NewOpener returns an Opener for the given spec.
func NewOpener(spec Spec) Opener {
	return func() (Device, error) {
		switch spec.Kind {
		case KindHwmon:
			h, err := OpenHwmon(spec.Path)
			if err != nil {
				return nil, err
			}
			return h, nil
		case KindGPIO:
			g, err := OpenGPIO(spec.Chip, spec.Line, GPIOOnDuty)
			if err != nil {
				return nil, err
			}
			return g, nil
		default:
			return nil, fmt.Errorf("open %s: %w", spec, ErrUnsupported)
		}
	}
}

// clamp limits a duty cycle to [0, 1]. NaN runs the fan at full speed.
func clamp(duty float64) float64 {
	if math.IsNaN(duty) {
		return 1
	}
	return max(0, min(1, duty))
}
