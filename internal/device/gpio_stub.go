//go:build !linux

package device

// GPIOOnDuty is the duty cycle at or above which an on/off fan is switched on.
const GPIOOnDuty = 0.1

// GPIOFan is not available on non-Linux platforms.
type GPIOFan struct{}

// OpenGPIO returns ErrUnsupported on non-Linux platforms.
func OpenGPIO(chipName string, offset int, onDuty float64) (*GPIOFan, error) {
	return nil, ErrUnsupported
}

// SetDutyCycle is not implemented on non-Linux platforms.
func (g *GPIOFan) SetDutyCycle(duty float64) error {
	return ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (g *GPIOFan) Close() error {
	return nil
}
