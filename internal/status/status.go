// Package status provides a thread-safe status tracker for the thermal governor.
// The control loop is its only writer; HTTP handlers and telemetry read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/thermal-governor/internal/governor"
	"github.com/sweeney/thermal-governor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Device      string
	Sensor      string
	CurvePath   string
	Power       string
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
}

// Counters accumulate over the lifetime of the daemon.
type Counters struct {
	Ticks        int
	Pushes       int
	SensorErrors int
	DeviceErrors int
	Emergencies  int // transitions into emergency
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Phase          governor.Phase
	Temperature    float64
	DutyCycle      float64
	AppliedDuty    float64
	Level          logic.Level
	Interval       time.Duration
	StableReadings int
	Emergency      bool
	Suspended      bool
	LastError      string
	LastTick       time.Time

	Counters      Counters
	Curve         logic.Curve
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, curve and config.
func NewTracker(startTime time.Time, curve logic.Curve, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     governor.PhaseStarting,
			Curve:     append(logic.Curve(nil), curve...),
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update folds one governor report into the snapshot.
// Lifecycle reports only change the phase.
func (t *Tracker) Update(r governor.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.snap
	s.Phase = r.Phase
	if r.Phase != governor.PhaseRunning {
		return
	}

	s.Counters.Ticks++
	s.LastTick = r.Time
	s.Interval = r.Interval
	s.Suspended = r.Suspended

	if r.SensorError != nil {
		s.Counters.SensorErrors++
		s.LastError = r.SensorError.Error()
		return
	}

	if r.Emergency && !s.Emergency {
		s.Counters.Emergencies++
	}
	s.Temperature = r.Temperature
	s.DutyCycle = r.DutyCycle
	s.AppliedDuty = r.AppliedDuty
	s.Level = r.Level
	s.StableReadings = r.StableReadings
	s.Emergency = r.Emergency

	if r.Pushed {
		s.Counters.Pushes++
	}
	if r.DeviceError != nil {
		s.Counters.DeviceErrors++
		s.LastError = r.DeviceError.Error()
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
