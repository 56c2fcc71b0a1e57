package device

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// hwmon pwm_enable modes.
const (
	pwmEnableManual = 1
	pwmMax          = 255
)

// HwmonPWM drives a fan through a hwmon sysfs pwm file (0..255).
type HwmonPWM struct {
	path         string
	enablePath   string
	originalMode int
	restoreMode  bool
}

// OpenHwmon switches the pwm channel to manual control and returns a device for it.
// The original pwm_enable mode is restored on Close.
func OpenHwmon(path string) (*HwmonPWM, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open hwmon pwm %s: %w", path, err)
	}

	h := &HwmonPWM{path: path, enablePath: path + "_enable"}

	mode, err := readInt(h.enablePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Some drivers have no pwm_enable, the pwm file is always writable.
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", h.enablePath, err)
	default:
		h.originalMode = mode
		h.restoreMode = true
		if mode != pwmEnableManual {
			if err := writeInt(h.enablePath, pwmEnableManual); err != nil {
				return nil, fmt.Errorf("set manual mode on %s: %w", h.enablePath, err)
			}
		}
	}

	return h, nil
}

// SetDutyCycle writes the duty cycle scaled to 0..255.
func (h *HwmonPWM) SetDutyCycle(duty float64) error {
	if err := writeInt(h.path, dutyToPWM(duty)); err != nil {
		return fmt.Errorf("write pwm: %w", err)
	}
	return nil
}

// Close restores the original control mode so firmware takes over the fan again.
func (h *HwmonPWM) Close() error {
	if !h.restoreMode || h.originalMode == pwmEnableManual {
		return nil
	}
	if err := writeInt(h.enablePath, h.originalMode); err != nil {
		return fmt.Errorf("restore pwm_enable: %w", err)
	}
	return nil
}

func dutyToPWM(duty float64) int {
	return int(math.Round(clamp(duty) * pwmMax))
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func writeInt(path string, v int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(v)), 0644)
}
