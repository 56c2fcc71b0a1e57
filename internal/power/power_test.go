package power

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestUnsupportedReportsActive(t *testing.T) {
	var p Probe = Unsupported{}
	assert.False(t, p.Suspended())
}

func TestFixed(t *testing.T) {
	p := NewFixed(true)
	assert.True(t, p.Suspended())
	p.Set(false)
	assert.False(t, p.Suspended())
}

func TestParseSleepSignal(t *testing.T) {
	name := logindInterface + "." + prepareForSleep

	v, ok := parseSleepSignal(&dbus.Signal{Name: name, Body: []interface{}{true}})
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = parseSleepSignal(&dbus.Signal{Name: name, Body: []interface{}{false}})
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = parseSleepSignal(&dbus.Signal{Name: "org.freedesktop.login1.Manager.SessionNew", Body: []interface{}{true}})
	assert.False(t, ok)

	_, ok = parseSleepSignal(&dbus.Signal{Name: name, Body: []interface{}{"yes"}})
	assert.False(t, ok)

	_, ok = parseSleepSignal(&dbus.Signal{Name: name})
	assert.False(t, ok)

	_, ok = parseSleepSignal(nil)
	assert.False(t, ok)
}
