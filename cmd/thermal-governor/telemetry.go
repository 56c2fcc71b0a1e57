package main

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/thermal-governor/internal/governor"
	"github.com/sweeney/thermal-governor/internal/mqtt"
	"github.com/sweeney/thermal-governor/internal/status"
)

const telemetryQueue = 64

// telemetry moves governor reports off the control loop and publishes the
// interesting ones. The loop only ever does a non-blocking send.
type telemetry struct {
	pub     mqtt.Publisher // nil disables publishing
	tracker *status.Tracker
	queue   chan governor.Report
	now     func() time.Time

	dropped      int // touched only by offer
	wasEmergency bool
}

func newTelemetry(pub mqtt.Publisher, tracker *status.Tracker, now func() time.Time) *telemetry {
	return &telemetry{
		pub:     pub,
		tracker: tracker,
		queue:   make(chan governor.Report, telemetryQueue),
		now:     now,
	}
}

// offer queues r without blocking. Reports are dropped when the queue is full.
func (t *telemetry) offer(r governor.Report) {
	select {
	case t.queue <- r:
	default:
		t.dropped++
		if t.dropped == 1 || t.dropped%100 == 0 {
			log.Printf("telemetry: queue full, %d reports dropped", t.dropped)
		}
	}
}

// run publishes queued reports and heartbeats until ctx is cancelled, then
// flushes whatever is still queued.
func (t *telemetry) run(ctx context.Context, heartbeat <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case r := <-t.queue:
					t.handle(r)
				default:
					return
				}
			}
		case r := <-t.queue:
			t.handle(r)
		case <-heartbeat:
			t.heartbeat()
		}
	}
}

func (t *telemetry) handle(r governor.Report) {
	ev, ok := mqtt.NewStateEvent(r, t.wasEmergency)
	if r.Phase == governor.PhaseRunning && r.SensorError == nil {
		t.wasEmergency = r.Emergency
	}
	if !ok || t.pub == nil {
		return
	}
	if err := t.pub.Publish(ev); err != nil {
		log.Printf("publish error: %v", err)
	}
}

func (t *telemetry) heartbeat() {
	snap := t.tracker.Snapshot()
	log.Printf("heartbeat: uptime=%v temp=%.1f duty=%.2f ticks=%d pushes=%d sensor_errors=%d device_errors=%d",
		snap.Uptime().Truncate(time.Second), snap.Temperature, snap.DutyCycle,
		snap.Counters.Ticks, snap.Counters.Pushes, snap.Counters.SensorErrors, snap.Counters.DeviceErrors)

	if t.pub == nil {
		return
	}
	err := t.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  t.now(),
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	})
	if err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

// system publishes a retained lifecycle event carrying the status snapshot.
func (t *telemetry) system(event, reason string) {
	if t.pub == nil {
		return
	}
	if cs, ok := t.pub.(mqtt.ConnectionStatus); ok {
		t.tracker.SetMQTTConnected(cs.IsConnected())
	}
	snap := t.tracker.Snapshot()
	err := t.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  t.now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	} else {
		log.Printf("published %s event", event)
	}
}

func (t *telemetry) close() {
	if t.pub != nil {
		t.pub.Close()
	}
}
