package power

import (
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
)

const (
	logindInterface = "org.freedesktop.login1.Manager"
	logindPath      = dbus.ObjectPath("/org/freedesktop/login1")
	prepareForSleep = "PrepareForSleep"
)

// LogindProbe tracks systemd-logind's PrepareForSleep signal on the system bus.
// The host is reported suspended between PrepareForSleep(true) and
// PrepareForSleep(false).
type LogindProbe struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	state   Fixed
	stop    chan struct{}
	done    chan struct{}
}

// NewLogindProbe subscribes to logind sleep notifications.
func NewLogindProbe() (*LogindProbe, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember(prepareForSleep),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", prepareForSleep, err)
	}

	p := &LogindProbe{
		conn:    conn,
		signals: make(chan *dbus.Signal, 4),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	conn.Signal(p.signals)
	go p.watch()
	return p, nil
}

func (p *LogindProbe) watch() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case sig := <-p.signals:
			if suspending, ok := parseSleepSignal(sig); ok {
				p.state.Set(suspending)
				log.Printf("power: prepare for sleep=%v", suspending)
			}
		}
	}
}

// parseSleepSignal extracts the boolean argument of a PrepareForSleep signal.
func parseSleepSignal(sig *dbus.Signal) (bool, bool) {
	if sig == nil || sig.Name != logindInterface+"."+prepareForSleep || len(sig.Body) != 1 {
		return false, false
	}
	v, ok := sig.Body[0].(bool)
	return v, ok
}

// Suspended reports whether logind announced an imminent sleep.
func (p *LogindProbe) Suspended() bool {
	return p.state.Suspended()
}

// Close unsubscribes and disconnects from the system bus.
func (p *LogindProbe) Close() error {
	p.conn.RemoveSignal(p.signals)
	close(p.stop)
	<-p.done
	return p.conn.Close()
}
