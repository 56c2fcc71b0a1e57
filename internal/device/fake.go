package device

// FakeDevice is a test double that records applied duty cycles.
type FakeDevice struct {
	// Duties contains every duty cycle successfully applied.
	Duties []float64

	// Attempts counts SetDutyCycle calls, including failed ones.
	Attempts int

	// SetError, if set, will be returned by SetDutyCycle.
	SetError error

	// CloseCount tracks how many times Close was called.
	CloseCount int
}

// NewFakeDevice creates a FakeDevice.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{}
}

// SetDutyCycle records the duty cycle.
func (f *FakeDevice) SetDutyCycle(duty float64) error {
	f.Attempts++
	if f.SetError != nil {
		return f.SetError
	}
	f.Duties = append(f.Duties, duty)
	return nil
}

// Close marks the device as closed.
func (f *FakeDevice) Close() error {
	f.CloseCount++
	return nil
}

// Last returns the most recently applied duty cycle, or -1 if none.
func (f *FakeDevice) Last() float64 {
	if len(f.Duties) == 0 {
		return -1
	}
	return f.Duties[len(f.Duties)-1]
}

// FakeOpener returns an Opener that yields dev, or err if non-nil.
func FakeOpener(dev *FakeDevice, err error) Opener {
	return func() (Device, error) {
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}
