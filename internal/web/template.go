package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/brewer/internal/status"
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
	"twoDigits": func(n int) string {
		return fmt.Sprintf("%02d", n)
	},
}).Parse(indexHTML))

var remoteKeys = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "PLAY"}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Brewer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.busy { color: #b35c00; font-weight: bold; }
.idle { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.keys form { display: inline; }
.keys button { font-family: monospace; min-width: 3em; margin: 2px; }
</style>
</head>
<body>
<h1>Brewer</h1>

<h2>Appliance</h2>
<table>
<tr><th>State</th><td id="state" class="{{if eq .State.String "GREETING"}}idle{{else}}busy{{end}}">{{.State}}</td></tr>
{{if .Phase}}<tr><th>Brew phase</th><td>{{.Phase}}</td></tr>{{end}}
{{if gt .Request.Cups 0}}<tr><th>Order</th><td>{{.Request.Cups}} cup(s), {{if .Request.StartNow}}now{{else}}scheduled{{end}}</td></tr>{{end}}
{{if .Scheduled.Valid}}<tr><th>Scheduled</th><td>{{twoDigits .Scheduled.Day}}/{{twoDigits .Scheduled.Month}} {{twoDigits .Scheduled.Hour}}:{{twoDigits .Scheduled.Minute}}</td></tr>{{end}}
<tr><th>Reserve</th><td>{{.Ledger.StatusLine}}</td></tr>
<tr><th>Ambient</th><td>{{if .AmbientOK}}{{printf "%.1f" .Ambient.TempC}}C, {{printf "%.1f" .Ambient.HumidityPct}}%{{else}}Error!{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td>{{.LastError}}</td></tr>{{end}}
</table>

{{with .LastBrew}}
<h2>Last Brew</h2>
<table>
<tr><th>Cups</th><td>{{.Cups}} x {{.VolumeML}} ml</td></tr>
<tr><th>Intensity</th><td>{{.Intensity}}</td></tr>
<tr><th>Temperature</th><td>{{printf "%.1f" .TempC}}C ({{.Temperature}})</td></tr>
<tr><th>Finished</th><td>{{.Finished.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
</table>
{{end}}

<h2>Remote</h2>
<div class="keys">
{{range .Keys}}<form method="post" action="/api/keys/{{.}}"><button type="submit">{{.}}</button></form>{{end}}
</div>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Board</th><td>{{.Config.BoardPort}}</td></tr>
<tr><th>Remote keys</th><td>{{.KeysReceived}} received, {{.KeysDropped}} overwritten</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Brews</th><td>{{.Counts.Brews}}</td></tr>
<tr><th>Cups</th><td>{{.Counts.Cups}}</td></tr>
<tr><th>Brew failures</th><td>{{.Counts.BrewFailures}}</td></tr>
<tr><th>Refills</th><td>{{.Counts.Refills}}</td></tr>
<tr><th>Invalid keys</th><td>{{.Counts.InvalidKeys}}</td></tr>
<tr><th>Schedules set</th><td>{{.Counts.SchedulesSet}}</td></tr>
<tr><th>Schedules missed</th><td>{{.Counts.SchedulesMissed}}</td></tr>
<tr><th>Sensor faults</th><td>{{.Counts.SensorFaults}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Max cups</th><td>{{.Config.MaxCups}}</td></tr>
<tr><th>Schedule match</th><td>{{.Config.Match}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
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
		Keys   []string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Keys:     remoteKeys,
	}
	return indexTmpl.Execute(w, data)
}
