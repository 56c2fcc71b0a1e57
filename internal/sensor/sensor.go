// Package sensor reads the temperature the governor controls against.
package sensor

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sensor returns a temperature reading in °C.
type Sensor interface {
	ReadTemperature() (float64, error)
}

// ErrNoReading is returned when a sensor has nothing to report.
var ErrNoReading = errors.New("sensor: no reading")

// DefaultThermalZone is the SoC thermal zone on most Linux boards.
const DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"

// SysfsSensor reads a millidegree value from a sysfs file, such as a
// thermal_zone temp or a hwmon tempN_input.
type SysfsSensor struct {
	path string
}

// NewSysfsSensor creates a sensor for the given sysfs file.
func NewSysfsSensor(path string) *SysfsSensor {
	return &SysfsSensor{path: path}
}

// Path returns the file the sensor reads.
func (s *SysfsSensor) Path() string {
	return s.path
}

// ReadTemperature returns the current temperature in °C.
func (s *SysfsSensor) ReadTemperature() (float64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.path, err)
	}
	return parseMillidegrees(string(data))
}

func parseMillidegrees(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrNoReading
	}
	milli, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse temperature %q: %w", raw, err)
	}
	return float64(milli) / 1000, nil
}
