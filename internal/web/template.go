package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/sensational-toy/internal/logic"
	"github.com/sweeney/sensational-toy/internal/status"
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
	"reading": func(r logic.Reading) string {
		if !r.Valid {
			return "no reading"
		}
		return fmt.Sprintf("%d", r.Value)
	},
	"threshold": func(v int) string {
		if v == 0 {
			return "disabled"
		}
		return fmt.Sprintf("%d", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sensational Toy</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.held { color: orange; font-weight: bold; }
.free { color: #888; }
.full { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Sensational Toy</h1>

<h2>Sensors</h2>
<table>
<tr><th>Humidity</th><td id="humidity">{{reading .Device.Readings.Humidity}}</td><td>alarm at {{threshold .Device.Thresholds.Humidity}}</td></tr>
<tr><th>Range (cm)</th><td id="range">{{reading .Device.Readings.RangeCM}}</td><td>alarm at {{threshold .Device.Thresholds.RangeCM}}</td></tr>
<tr><th>Gas</th><td id="gas">{{reading .Device.Readings.Gas}}</td><td>alarm at {{threshold .Device.Thresholds.Gas}}</td></tr>
<tr><th>Read errors</th><td colspan="2">{{.SensorErrors}}</td></tr>
</table>

<h2>Sound</h2>
<table>
<tr><th>Lock</th><td id="lock" class="{{if .Device.Lock.Held}}held{{else}}free{{end}}">{{if .Device.Lock.Held}}held by {{.Device.Lock.Owner}}{{else}}free{{end}}</td></tr>
<tr><th>Tick</th><td>{{.Device.Tick}}</td></tr>
<tr><th>Action</th><td>{{.Device.Action}}</td></tr>
</table>

<h2>Storage</h2>
<table>
<tr><th>Mode</th><td id="storage" class="{{if .Full}}full{{end}}">{{.Device.Control}}</td></tr>
<tr><th>Samples</th><td>{{.Device.Cursor}} / {{.Device.Capacity}}</td></tr>
<tr><th>Alert</th><td>{{.Device.Brightness}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Humidity alarms</th><td>{{.Device.Counts.HumidityAlarms}}</td></tr>
<tr><th>Range alarms</th><td>{{.Device.Counts.RangeAlarms}}</td></tr>
<tr><th>Gas alarms</th><td>{{.Device.Counts.GasAlarms}}</td></tr>
<tr><th>Dropped</th><td>{{.Device.Counts.Dropped}}</td></tr>
<tr><th>Drains</th><td>{{.Device.Counts.Drains}} ({{.Device.Counts.DrainAborts}} aborted)</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick period</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Sample period</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Speech</th><td>{{.Config.SerialPort}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Full   bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Full:     snap.Device.Control == logic.ControlRead,
	}
	return indexTmpl.Execute(w, data)
}
