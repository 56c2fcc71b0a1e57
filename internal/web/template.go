package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/thermal-governor/internal/logic"
	"github.com/sweeney/thermal-governor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"percent": func(duty float64) string {
		return fmt.Sprintf("%.1f%%", duty*100)
	},
	"levelClass": func(l logic.Level) string {
		switch l {
		case logic.LevelCritical:
			return "critical"
		case logic.LevelElevated:
			return "elevated"
		default:
			return "normal"
		}
	},
	"yesNo": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Thermal Governor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.normal { color: green; }
.elevated { color: orange; font-weight: bold; }
.critical { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Thermal Governor</h1>

<h2>Control Loop</h2>
<table>
<tr><th>Phase</th><td id="phase">{{.Phase}}</td></tr>
<tr><th>Temperature</th><td id="temperature">{{printf "%.1f" .Temperature}}°C</td></tr>
<tr><th>Level</th><td id="level" class="{{levelClass .Level}}">{{.Level}}</td></tr>
<tr><th>Fan</th><td id="duty">{{percent .DutyCycle}}</td></tr>
<tr><th>Applied</th><td>{{percent .AppliedDuty}}</td></tr>
<tr><th>Interval</th><td id="interval">{{.Interval}}</td></tr>
<tr><th>Stable readings</th><td>{{.StableReadings}}</td></tr>
<tr><th>Emergency</th><td>{{yesNo .Emergency}}</td></tr>
<tr><th>Suspended</th><td>{{yesNo .Suspended}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td>{{.LastError}}</td></tr>{{end}}
</table>

<h2>Curve</h2>
<table>
{{range .Curve}}<tr><th>{{.Temperature}}°C</th><td>{{percent .DutyCycle}}</td></tr>
{{end}}</table>

<h2>Counters</h2>
<table>
<tr><th>Ticks</th><td>{{.Counters.Ticks}}</td></tr>
<tr><th>Pushes</th><td>{{.Counters.Pushes}}</td></tr>
<tr><th>Emergencies</th><td>{{.Counters.Emergencies}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Counters.SensorErrors}}</td></tr>
<tr><th>Device errors</th><td>{{.Counters.DeviceErrors}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Device</th><td>{{.Config.Device}}</td></tr>
<tr><th>Sensor</th><td>{{.Config.Sensor}}</td></tr>
<tr><th>Curve file</th><td>{{.Config.CurvePath}}</td></tr>
<tr><th>Power probe</th><td>{{.Config.Power}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
