// Package mqtt publishes governor telemetry over MQTT, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermal-governor/internal/governor"
)

// Topic is the MQTT topic for control loop state changes.
const Topic = "thermal/governor/state"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "thermal/governor/system"

// State event types.
const (
	EventPush      = "PUSH"
	EventEmergency = "EMERGENCY"
	EventCleared   = "CLEARED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a state event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event StateEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// StateEvent is a control loop tick worth publishing.
type StateEvent struct {
	Type   string // EventPush, EventEmergency or EventCleared
	Report governor.Report
}

// NewStateEvent decides whether a report is published. Ticks that changed
// the device output or entered or left emergency mode are; the rest are not.
// wasEmergency is the emergency flag of the previous published-or-not tick.
func NewStateEvent(r governor.Report, wasEmergency bool) (StateEvent, bool) {
	if r.Phase != governor.PhaseRunning || r.SensorError != nil {
		return StateEvent{}, false
	}
	switch {
	case r.Emergency && !wasEmergency:
		return StateEvent{Type: EventEmergency, Report: r}, true
	case !r.Emergency && wasEmergency:
		return StateEvent{Type: EventCleared, Report: r}, true
	case r.Pushed:
		return StateEvent{Type: EventPush, Report: r}, true
	}
	return StateEvent{}, false
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Governor GovernorPayload `json:"governor"`
}

// GovernorPayload contains the state event details.
type GovernorPayload struct {
	Timestamp    string  `json:"timestamp"`
	Event        string  `json:"event"`
	TemperatureC float64 `json:"temperature_c"`
	DutyCycle    float64 `json:"duty_cycle"`
	Level        string  `json:"level"`
	IntervalMs   int64   `json:"interval_ms"`
	Suspended    bool    `json:"suspended"`
	DeviceError  string  `json:"device_error,omitempty"`
}

// FormatPayload creates the JSON payload for a state event.
func FormatPayload(event StateEvent) ([]byte, error) {
	r := event.Report
	payload := Payload{
		Governor: GovernorPayload{
			Timestamp:    r.Time.UTC().Format(time.RFC3339),
			Event:        event.Type,
			TemperatureC: r.Temperature,
			DutyCycle:    r.DutyCycle,
			Level:        r.Level.String(),
			IntervalMs:   r.Interval.Milliseconds(),
			Suspended:    r.Suspended,
		},
	}
	if r.DeviceError != nil {
		payload.Governor.DeviceError = r.DeviceError.Error()
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
