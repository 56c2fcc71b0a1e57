// Command thermal-governor drives a cooling fan from a temperature sensor using
// an adaptive polling interval, and reports its state over HTTP and MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/run"

	"github.com/sweeney/thermal-governor/internal/device"
	"github.com/sweeney/thermal-governor/internal/governor"
	"github.com/sweeney/thermal-governor/internal/logic"
	"github.com/sweeney/thermal-governor/internal/logsink"
	"github.com/sweeney/thermal-governor/internal/mqtt"
	"github.com/sweeney/thermal-governor/internal/power"
	"github.com/sweeney/thermal-governor/internal/sensor"
	"github.com/sweeney/thermal-governor/internal/status"
	"github.com/sweeney/thermal-governor/internal/store"
	"github.com/sweeney/thermal-governor/internal/web"
)

const defaultDevice = "hwmon:/sys/class/hwmon/hwmon0/pwm1"

// Environment variables read after .env is loaded.
const (
	envMQTTUsername = "MQTT_USERNAME"
	envMQTTPassword = "MQTT_PASSWORD"
	envClientID     = "THERMAL_GOVERNOR_CLIENT_ID"
)

type options struct {
	curvePath  string
	logPath    string
	sensorPath string
	device     string
	power      string
	broker     string
	httpAddr   string
	heartbeat  time.Duration
	printState bool
}

func main() {
	var o options
	flag.StringVar(&o.curvePath, "curve", store.DefaultPath, "Fan curve record")
	flag.StringVar(&o.logPath, "log", logsink.DefaultPath, "Log file")
	flag.StringVar(&o.sensorPath, "sensor", sensor.DefaultThermalZone, "Temperature input (millidegrees)")
	flag.StringVar(&o.device, "device", defaultDevice, `Cooling device ("hwmon:<pwm path>" or "gpio:[chip:]line")`)
	flag.StringVar(&o.power, "power", "none", `Suspend detection ("none" or "logind")`)
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print temperature and curve duty, then exit")

	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	if err := runGovernor(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func runGovernor(o options) error {
	if o.printState {
		return printState(os.Stdout, sensor.NewSysfsSensor(o.sensorPath), store.NewFileStore(o.curvePath))
	}

	spec, err := device.ParseSpec(o.device)
	if err != nil {
		return err
	}
	probe, closeProbe, err := openProbe(o.power)
	if err != nil {
		return err
	}
	defer closeProbe()

	sink := logsink.NewFileSink(o.logPath)
	sink.Init()

	curve := store.LoadOrDefault(store.NewFileStore(o.curvePath), sink.Printf)

	tracker := status.NewTracker(time.Now(), curve, status.Config{
		Device:      spec.String(),
		Sensor:      o.sensorPath,
		CurvePath:   o.curvePath,
		Power:       o.power,
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
	})

	var publisher mqtt.Publisher
	if o.broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:             o.broker,
			ClientID:           os.Getenv(envClientID),
			Username:           os.Getenv(envMQTTUsername),
			Password:           os.Getenv(envMQTTPassword),
			OnConnectionChange: tracker.SetMQTTConnected,
		})
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			publisher = p
		}
	}

	tel := newTelemetry(publisher, tracker, time.Now)

	gov, err := governor.New(governor.Config{
		Curve:  curve,
		Ladder: logic.DefaultLadder(),
		Open:   device.NewOpener(spec),
		Sensor: sensor.NewSysfsSensor(o.sensorPath),
		Probe:  probe,
		Log:    sink,
		OnReport: func(r governor.Report) {
			tracker.Update(r)
			tel.offer(r)
		},
	})
	if err != nil {
		return err
	}

	var srv *web.Server
	if o.httpAddr != "" {
		srv = web.New(o.httpAddr, tracker)
	}

	var heartbeat <-chan time.Time
	if o.heartbeat > 0 {
		t := time.NewTicker(o.heartbeat)
		defer t.Stop()
		heartbeat = t.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.Printf("started: device=%s sensor=%s power=%s broker=%q heartbeat=%v", spec, o.sensorPath, o.power, o.broker, o.heartbeat)

	return runDaemon(daemon{
		gov:       gov,
		tel:       tel,
		srv:       srv,
		listen:    listenTCP(o.httpAddr),
		heartbeat: heartbeat,
		sig:       sigCh,
	})
}

// daemon holds everything runDaemon needs. Channels and the listener are
// injected so tests can drive shutdown and heartbeats.
type daemon struct {
	gov       *governor.Governor
	tel       *telemetry
	srv       *web.Server // nil disables HTTP
	listen    func() (net.Listener, error)
	heartbeat <-chan time.Time
	sig       <-chan os.Signal
}

// runDaemon runs the control loop, telemetry worker, HTTP server and signal
// watcher as one actor group. The first actor to return stops all of them.
func runDaemon(d daemon) error {
	d.tel.system("STARTUP", "")

	reason := "UNKNOWN"
	var g run.Group

	{
		sess := governor.Start(context.Background(), d.gov)
		g.Add(func() error {
			return sess.Wait()
		}, func(error) {
			sess.Stop()
		})
	}

	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			d.tel.run(ctx, d.heartbeat)
			return nil
		}, func(error) {
			cancel()
		})
	}

	if d.srv != nil {
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			ln, err := d.listen()
			if err != nil {
				// The status page is optional; keep controlling the fan.
				log.Printf("http server error: %v", err)
				<-ctx.Done()
				return nil
			}
			log.Printf("http status server listening on %s", ln.Addr())
			if err := d.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
				<-ctx.Done()
			}
			return nil
		}, func(error) {
			cancel()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			d.srv.Shutdown(shutdownCtx)
		})
	}

	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			select {
			case s := <-d.sig:
				reason = signalName(s)
				log.Printf("received %v, shutting down", s)
			case <-ctx.Done():
			}
			return nil
		}, func(error) {
			cancel()
		})
	}

	err := g.Run()
	if err != nil {
		reason = "FATAL"
	}
	d.tel.system("SHUTDOWN", reason)
	d.tel.close()
	return err
}

func listenTCP(addr string) func() (net.Listener, error) {
	return func() (net.Listener, error) {
		return net.Listen("tcp", addr)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// openProbe returns the configured suspend probe and its cleanup.
func openProbe(mode string) (power.Probe, func(), error) {
	switch mode {
	case "", "none":
		return power.Unsupported{}, func() {}, nil
	case "logind":
		p, err := power.NewLogindProbe()
		if err != nil {
			return nil, nil, fmt.Errorf("logind probe: %w", err)
		}
		return p, func() { p.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown power probe %q", mode)
}

// printState reads the sensor once and prints what the curve would do.
// It never opens the device and never writes the curve store.
func printState(w io.Writer, s sensor.Sensor, st store.Store) error {
	temp, err := s.ReadTemperature()
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}

	curve, err := st.Load()
	source := "stored"
	if err != nil {
		curve = logic.DefaultCurve()
		source = "default"
	}

	fmt.Fprintf(w, "Temp: %.1f°C, Fan: %.1f%%, Level: %s, Curve: %s\n",
		temp, curve.Evaluate(temp)*100, logic.Classify(temp), source)
	return nil
}
