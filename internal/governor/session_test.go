package governor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/thermal-governor/internal/device"
	"github.com/sweeney/thermal-governor/internal/logic"
	"github.com/sweeney/thermal-governor/internal/sensor"
)

func TestSessionStopJoinsLoop(t *testing.T) {
	dev := device.NewFakeDevice()
	waiting := make(chan struct{}, 1)

	g, err := New(Config{
		Curve:  logic.DefaultCurve(),
		Ladder: logic.DefaultLadder(),
		Open:   device.FakeOpener(dev, nil),
		Sensor: sensor.NewFakeSensor(45),
		Wait: func(ctx context.Context, d time.Duration) bool {
			select {
			case waiting <- struct{}{}:
			default:
			}
			<-ctx.Done()
			return false
		},
	})
	require.NoError(t, err)

	s := Start(context.Background(), g)

	select {
	case <-waiting:
	case <-time.After(5 * time.Second):
		t.Fatal("loop never reached its sleep")
	}

	require.NoError(t, s.Stop())
	assert.Equal(t, 1, dev.CloseCount)

	// Stop is idempotent.
	require.NoError(t, s.Stop())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestSessionWaitReturnsFatalError(t *testing.T) {
	g, err := New(Config{
		Curve:  logic.DefaultCurve(),
		Ladder: logic.DefaultLadder(),
		Open:   device.FakeOpener(nil, errors.New("permission denied")),
		Sensor: sensor.NewFakeSensor(45),
	})
	require.NoError(t, err)

	s := Start(context.Background(), g)
	err = s.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestSessionParentCancel(t *testing.T) {
	dev := device.NewFakeDevice()
	ctx, cancel := context.WithCancel(context.Background())

	g, err := New(Config{
		Curve:  logic.DefaultCurve(),
		Ladder: logic.DefaultLadder(),
		Open:   device.FakeOpener(dev, nil),
		Sensor: sensor.NewFakeSensor(45),
	})
	require.NoError(t, err)

	s := Start(ctx, g)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit after parent cancel")
	}
	require.NoError(t, s.Wait())
	assert.Equal(t, 1, dev.CloseCount)
}
