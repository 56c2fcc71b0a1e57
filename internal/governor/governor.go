// Package governor runs the closed control loop: sample the sensor, evaluate
// the curve, drive the cooling device and sleep for an adaptive interval.
package governor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/thermal-governor/internal/device"
	"github.com/sweeney/thermal-governor/internal/logic"
	"github.com/sweeney/thermal-governor/internal/logsink"
	"github.com/sweeney/thermal-governor/internal/power"
	"github.com/sweeney/thermal-governor/internal/sensor"
)

// Phase is the lifecycle phase of a control session.
type Phase string

const (
	PhaseStarting Phase = "STARTING"
	PhaseRunning  Phase = "RUNNING"
	PhaseStopping Phase = "STOPPING"
	PhaseStopped  Phase = "STOPPED"
)

// writeFailureLogEvery throttles repeated device write failure logs.
const writeFailureLogEvery = 10

// SessionState is the loop's private mutable state. It has a single writer,
// the goroutine executing Run.
type SessionState struct {
	Stability       logic.Stability
	AppliedDuty     float64 // last duty successfully written to the device
	Level           logic.Level
	CurrentInterval time.Duration
	EmergencyActive bool
	Suspended       bool
}

// Report is a read-only view of one loop step, handed to the observer.
type Report struct {
	Time           time.Time
	Phase          Phase
	Temperature    float64
	DutyCycle      float64
	AppliedDuty    float64
	Level          logic.Level
	Interval       time.Duration
	StableReadings int
	Emergency      bool
	Suspended      bool
	Pushed         bool
	SensorError    error
	DeviceError    error
}

// WaitFunc sleeps for d. It returns false if ctx was cancelled first.
type WaitFunc func(ctx context.Context, d time.Duration) bool

// Config wires the governor to its collaborators.
type Config struct {
	Curve  logic.Curve
	Ladder logic.Ladder

	Open   device.Opener
	Sensor sensor.Sensor
	Probe  power.Probe  // optional, defaults to power.Unsupported
	Log    logsink.Sink // optional, defaults to logsink.Discard

	// OnReport, if set, is called after every step. It runs on the loop
	// goroutine and must not block.
	OnReport func(Report)

	Wait WaitFunc         // optional, defaults to an interruptible sleep
	Now  func() time.Time // optional, defaults to time.Now
}

// Governor owns one control session.
type Governor struct {
	cfg          Config
	curve        logic.Curve
	state        SessionState
	failedWrites int
}

// New validates the configuration and creates a governor.
func New(cfg Config) (*Governor, error) {
	if err := cfg.Curve.Validate(); err != nil {
		return nil, fmt.Errorf("invalid curve: %w", err)
	}
	if !cfg.Ladder.Valid() {
		return nil, errors.New("invalid interval ladder")
	}
	if cfg.Open == nil {
		return nil, errors.New("no device opener")
	}
	if cfg.Sensor == nil {
		return nil, errors.New("no sensor")
	}
	if cfg.Probe == nil {
		cfg.Probe = power.Unsupported{}
	}
	if cfg.Log == nil {
		cfg.Log = logsink.Discard{}
	}
	if cfg.Wait == nil {
		cfg.Wait = sleep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	curve := make(logic.Curve, len(cfg.Curve))
	copy(curve, cfg.Curve)

	return &Governor{cfg: cfg, curve: curve}, nil
}

// Run opens the device and runs the loop until ctx is cancelled.
// Failing to open the device is fatal and returned; every other failure is
// logged and absorbed. The device is closed exactly once before Run returns.
func (g *Governor) Run(ctx context.Context) error {
	g.emit(Report{Phase: PhaseStarting})

	dev, err := g.cfg.Open()
	if err != nil {
		g.logf("ERROR: Failed to open fan controller: %v", err)
		g.emit(Report{Phase: PhaseStopped})
		return fmt.Errorf("open device: %w", err)
	}

	g.state = SessionState{CurrentInterval: g.cfg.Ladder.Relaxed}
	g.failedWrites = 0
	g.logf("Fan controller thread started")

	for ctx.Err() == nil {
		interval := g.step(dev)
		if !g.cfg.Wait(ctx, interval) {
			break
		}
	}

	g.emit(Report{Phase: PhaseStopping, Temperature: g.state.Stability.LastTemperature, DutyCycle: g.state.Stability.LastDutyCycle})
	if err := dev.Close(); err != nil {
		g.logf("ERROR: Failed to close fan controller: %v", err)
	}
	g.logf("Fan controller thread stopped")
	g.emit(Report{Phase: PhaseStopped})
	return nil
}

// step runs one iteration of the loop and returns how long to sleep.
func (g *Governor) step(dev device.Device) time.Duration {
	st := &g.state
	st.Suspended = g.cfg.Probe.Suspended()

	temp, err := g.cfg.Sensor.ReadTemperature()
	if err != nil {
		g.logf("ERROR: Failed to get temperature: %v", err)
		st.CurrentInterval = g.cfg.Ladder.Normal
		g.emit(Report{
			Phase:       PhaseRunning,
			Temperature: st.Stability.LastTemperature,
			DutyCycle:   st.Stability.LastDutyCycle,
			Interval:    st.CurrentInterval,
			Suspended:   st.Suspended,
			SensorError: err,
		})
		return st.CurrentInterval
	}

	duty := g.curve.Evaluate(temp)
	level := logic.Classify(temp)

	var (
		pushed bool
		devErr error
	)
	emergency := st.EmergencyActive || level != logic.LevelNormal
	if logic.ShouldPush(emergency, st.Suspended, duty, st.AppliedDuty) {
		devErr = dev.SetDutyCycle(duty)
		if devErr != nil {
			g.writeFailed(devErr)
		} else {
			g.failedWrites = 0
			st.AppliedDuty = duty
			pushed = true
			g.logf("Temp: %.1f°C, Fan: %.1f%%, Sleep: %s", temp, duty*100, yesNo(st.Suspended))
		}
	}

	st.Stability = logic.UpdateStability(st.Stability, temp, duty)
	decision := logic.NextInterval(level, st.Stability, st.Suspended, g.cfg.Ladder)
	g.noteEmergency(st.EmergencyActive, decision.Emergency, level, temp)

	st.EmergencyActive = decision.Emergency
	st.Level = level
	st.CurrentInterval = decision.Interval

	g.emit(Report{
		Phase:          PhaseRunning,
		Temperature:    temp,
		DutyCycle:      duty,
		AppliedDuty:    st.AppliedDuty,
		Level:          level,
		Interval:       decision.Interval,
		StableReadings: st.Stability.Count,
		Emergency:      decision.Emergency,
		Suspended:      st.Suspended,
		Pushed:         pushed,
		DeviceError:    devErr,
	})
	return decision.Interval
}

func (g *Governor) writeFailed(err error) {
	g.failedWrites++
	if (g.failedWrites-1)%writeFailureLogEvery == 0 {
		g.logf("ERROR: Failed to set fan speed (%d consecutive): %v", g.failedWrites, err)
	}
}

func (g *Governor) noteEmergency(was, is bool, level logic.Level, temp float64) {
	switch {
	case is && !was:
		g.logf("thermal emergency: %s at %.1f°C", level, temp)
	case was && !is:
		g.logf("thermal emergency cleared at %.1f°C", temp)
	}
}

func (g *Governor) emit(r Report) {
	if g.cfg.OnReport == nil {
		return
	}
	r.Time = g.cfg.Now()
	g.cfg.OnReport(r)
}

func (g *Governor) logf(format string, args ...any) {
	g.cfg.Log.Append(fmt.Sprintf(format, args...))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
