package sensor

// Sample is one scripted sensor result.
type Sample struct {
	Temp float64
	Err  error
}

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	// Samples contains scripted results. Each call to ReadTemperature
	// consumes the next sample; the last one repeats once exhausted.
	Samples []Sample

	index int

	// Reads counts ReadTemperature calls.
	Reads int
}

// NewFakeSensor creates a FakeSensor returning the given temperatures.
func NewFakeSensor(temps ...float64) *FakeSensor {
	f := &FakeSensor{}
	for _, t := range temps {
		f.Samples = append(f.Samples, Sample{Temp: t})
	}
	return f
}

// ReadTemperature returns the next scripted sample.
func (f *FakeSensor) ReadTemperature() (float64, error) {
	f.Reads++
	if len(f.Samples) == 0 {
		return 0, ErrNoReading
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.Temp, s.Err
}
