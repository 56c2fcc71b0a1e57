package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/thermal-governor/internal/governor"
	"github.com/sweeney/thermal-governor/internal/logic"
)

func tick(temp, duty float64) governor.Report {
	return governor.Report{
		Time:        time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Phase:       governor.PhaseRunning,
		Temperature: temp,
		DutyCycle:   duty,
		Level:       logic.Classify(temp),
		Interval:    10 * time.Second,
	}
}

func TestTopics(t *testing.T) {
	if Topic != "thermal/governor/state" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "thermal/governor/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestNewStateEvent(t *testing.T) {
	pushed := tick(55, 0.65)
	pushed.Pushed = true

	hot := tick(92, 0.94)
	hot.Emergency = true
	hot.Pushed = true

	cooled := tick(70, 0.775)
	cooled.Pushed = true

	hotWriteFailed := tick(92, 0.94)
	hotWriteFailed.Emergency = true
	hotWriteFailed.DeviceError = errors.New("write pwm1: input/output error")

	sensorErr := tick(0, 0)
	sensorErr.SensorError = errors.New("no reading")

	tests := []struct {
		name         string
		report       governor.Report
		wasEmergency bool
		wantOK       bool
		wantType     string
	}{
		{"quiet tick", tick(55, 0.65), false, false, ""},
		{"push", pushed, false, true, EventPush},
		{"enter emergency", hot, false, true, EventEmergency},
		{"still in emergency", hot, true, true, EventPush},
		{"still in emergency, write failed", hotWriteFailed, true, false, ""},
		{"leave emergency", cooled, true, true, EventCleared},
		{"sensor error", sensorErr, false, false, ""},
		{"lifecycle", governor.Report{Phase: governor.PhaseStopping}, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := NewStateEvent(tt.report, tt.wasEmergency)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ev.Type != tt.wantType {
				t.Errorf("type: got %q, want %q", ev.Type, tt.wantType)
			}
		})
	}
}

func TestEmergencyTickPushPublished(t *testing.T) {
	// Each emergency tick drives the fan, so subscribers see every push.
	hot := tick(95, 0.96)
	hot.Emergency = true
	hot.Pushed = true
	ev, ok := NewStateEvent(hot, true)
	if !ok {
		t.Fatal("expected an event for an emergency push")
	}
	if ev.Type != EventPush {
		t.Errorf("type: got %q, want %q", ev.Type, EventPush)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	r := tick(55, 0.65)
	r.Suspended = true

	payload, err := FormatPayload(StateEvent{Type: EventPush, Report: r})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"governor":{"timestamp":"2026-02-03T10:30:45Z","event":"PUSH","temperature_c":55,"duty_cycle":0.65,"level":"NORMAL","interval_ms":10000,"suspended":true}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadDeviceError(t *testing.T) {
	r := tick(92, 0.94)
	r.DeviceError = errors.New("write pwm1: input/output error")

	payload, err := FormatPayload(StateEvent{Type: EventEmergency, Report: r})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Governor.Level != "CRITICAL" {
		t.Errorf("unexpected level: %s", parsed.Governor.Level)
	}
	if parsed.Governor.DeviceError != "write pwm1: input/output error" {
		t.Errorf("unexpected device_error: %s", parsed.Governor.DeviceError)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	r := tick(40, 0.5)
	r.Time = time.Date(2026, 2, 3, 5, 30, 45, 0, loc)

	payload, _ := FormatPayload(StateEvent{Type: EventPush, Report: r})

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Governor.Timestamp != "2026-02-03T10:30:45Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Governor.Timestamp)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, _ := FormatSystemPayload(event)

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	r := tick(55, 0.65)
	r.Pushed = true
	if err := f.Publish(StateEvent{Type: EventPush, Report: r}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 || len(f.Payloads) != 1 {
		t.Fatalf("expected 1 event and payload, got %d/%d", len(f.Events), len(f.Payloads))
	}
	if f.Events[0].Report.Temperature != 55 {
		t.Errorf("unexpected temperature: %v", f.Events[0].Report.Temperature)
	}
	if names := f.SystemEventNames(); len(names) != 1 || names[0] != "STARTUP" {
		t.Errorf("unexpected system events: %v", names)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("expected retained flag to be recorded")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(StateEvent{Type: EventPush}); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherCloseAndReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.Publish(StateEvent{Type: EventPush, Report: tick(50, 0.6)})
	f.Close()

	if !f.Closed {
		t.Error("expected Closed=true")
	}

	f.Reset()
	if f.Closed || f.Connected || len(f.Events) != 0 {
		t.Error("Reset should clear all state")
	}
	if err := f.Publish(StateEvent{Type: EventPush, Report: tick(50, 0.6)}); err != nil {
		t.Errorf("publisher should be reusable after Reset: %v", err)
	}
}

func TestNewRealPublisherRequiresBroker(t *testing.T) {
	if _, err := NewRealPublisher(Options{}); err == nil {
		t.Error("expected error for empty broker")
	}
}
