package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string       `json:"event,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Phase          string       `json:"phase"`
	TemperatureC   float64      `json:"temperature_c"`
	DutyCycle      float64      `json:"duty_cycle"`
	AppliedDuty    float64      `json:"applied_duty"`
	Level          string       `json:"level"`
	IntervalMs     int64        `json:"interval_ms"`
	StableReadings int          `json:"stable_readings"`
	Emergency      bool         `json:"emergency"`
	Suspended      bool         `json:"suspended"`
	LastError      string       `json:"last_error,omitempty"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Counters       CountersJSON `json:"counters"`
	Curve          []PointJSON  `json:"curve"`
	Config         ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountersJSON is the JSON representation of the lifetime counters.
type CountersJSON struct {
	Ticks        int `json:"ticks"`
	Pushes       int `json:"pushes"`
	SensorErrors int `json:"sensor_errors"`
	DeviceErrors int `json:"device_errors"`
	Emergencies  int `json:"emergencies"`
}

// PointJSON is one curve control point.
type PointJSON struct {
	TemperatureC int     `json:"temperature_c"`
	DutyCycle    float64 `json:"duty_cycle"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Device      string `json:"device"`
	Sensor      string `json:"sensor"`
	CurvePath   string `json:"curve_path"`
	Power       string `json:"power"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	points := make([]PointJSON, 0, len(snap.Curve))
	for _, p := range snap.Curve {
		points = append(points, PointJSON{TemperatureC: p.Temperature, DutyCycle: p.DutyCycle})
	}

	return StatusInner{
		Phase:          phase,
		TemperatureC:   snap.Temperature,
		DutyCycle:      snap.DutyCycle,
		AppliedDuty:    snap.AppliedDuty,
		Level:          snap.Level.String(),
		IntervalMs:     snap.Interval.Milliseconds(),
		StableReadings: snap.StableReadings,
		Emergency:      snap.Emergency,
		Suspended:      snap.Suspended,
		LastError:      snap.LastError,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counters: CountersJSON{
			Ticks:        snap.Counters.Ticks,
			Pushes:       snap.Counters.Pushes,
			SensorErrors: snap.Counters.SensorErrors,
			DeviceErrors: snap.Counters.DeviceErrors,
			Emergencies:  snap.Counters.Emergencies,
		},
		Curve: points,
		Config: ConfigJSON{
			Device:      snap.Config.Device,
			Sensor:      snap.Config.Sensor,
			CurvePath:   snap.Config.CurvePath,
			Power:       snap.Config.Power,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
