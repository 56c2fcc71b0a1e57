package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a bounded FIFO that holds messages while disconnected. When full
// it evicts the oldest non-retained message, so lifecycle events outlive
// state telemetry. Not safe for concurrent use; caller must synchronize.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int // since last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	if len(o.msgs) == o.capacity {
		if o.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest telemetry", o.capacity)
		}
		o.evict()
		o.dropped++
	}
	o.msgs = append(o.msgs, msg)
}

// evict removes the oldest non-retained message, or the oldest message if
// every buffered message is retained.
func (o *outbox) evict() {
	victim := 0
	for i, m := range o.msgs {
		if !m.retained {
			victim = i
			break
		}
	}
	o.msgs = append(o.msgs[:victim], o.msgs[victim+1:]...)
}

// drain returns buffered messages oldest first, and how many were dropped.
func (o *outbox) drain() ([]bufferedMsg, int) {
	if len(o.msgs) == 0 {
		return nil, 0
	}
	out := make([]bufferedMsg, len(o.msgs))
	copy(out, o.msgs)
	dropped := o.dropped

	o.msgs = o.msgs[:0]
	o.dropped = 0
	return out, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
