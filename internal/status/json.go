package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Ready         bool           `json:"ready"`
	Tick          uint16         `json:"tick"`
	Action        uint16         `json:"action"`
	SoundLock     LockJSON       `json:"sound_lock"`
	Readings      ReadingsJSON   `json:"readings"`
	Storage       StorageJSON    `json:"storage"`
	Alert         AlertJSON      `json:"alert"`
	Thresholds    ThresholdsJSON `json:"thresholds"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	Config        ConfigJSON     `json:"config"`
}

// LockJSON reports the sound lock.
type LockJSON struct {
	Held        bool   `json:"held"`
	Owner       string `json:"owner,omitempty"`
	UnlockTicks uint16 `json:"unlock_ticks,omitempty"`
}

// ReadingsJSON holds the last valid readings; absent sensors are null.
type ReadingsJSON struct {
	Humidity *int `json:"humidity"`
	RangeCM  *int `json:"range_cm"`
	Gas      *int `json:"gas"`
}

// StorageJSON reports the sample log.
type StorageJSON struct {
	Control  string `json:"control"`
	Cursor   int    `json:"cursor"`
	Capacity int    `json:"capacity"`
	Full     bool   `json:"full"`
}

// AlertJSON reports the alert indicator.
type AlertJSON struct {
	Brightness int `json:"brightness"`
}

// ThresholdsJSON is the JSON representation of alarm thresholds.
type ThresholdsJSON struct {
	Humidity int `json:"humidity"`
	RangeCM  int `json:"range_cm"`
	Gas      int `json:"gas"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of device counters.
type CountsJSON struct {
	HumidityAlarms int `json:"humidity_alarms"`
	RangeAlarms    int `json:"range_alarms"`
	GasAlarms      int `json:"gas_alarms"`
	Dropped        int `json:"dropped_alarms"`
	Samples        int `json:"samples"`
	Drains         int `json:"drains"`
	DrainAborts    int `json:"drain_aborts"`
	SensorErrors   int `json:"sensor_errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs     int64  `json:"tick_ms"`
	SampleMs   int64  `json:"sample_ms"`
	Broker     string `json:"broker"`
	HTTPPort   string `json:"http_port"`
	SerialPort string `json:"serial_port"`
	StorePath  string `json:"store_path"`
}

func reading(r logic.Reading) *int {
	if !r.Valid {
		return nil
	}
	return logic.Value(r.Value)
}

func buildInner(snap Snapshot) StatusInner {
	d := snap.Device
	return StatusInner{
		Ready:  snap.Updated,
		Tick:   d.Tick,
		Action: d.Action,
		SoundLock: LockJSON{
			Held:        d.Lock.Held,
			Owner:       string(d.Lock.Owner),
			UnlockTicks: d.Lock.UnlockTicks,
		},
		Readings: ReadingsJSON{
			Humidity: reading(d.Readings.Humidity),
			RangeCM:  reading(d.Readings.RangeCM),
			Gas:      reading(d.Readings.Gas),
		},
		Storage: StorageJSON{
			Control:  d.Control.String(),
			Cursor:   d.Cursor,
			Capacity: d.Capacity,
			Full:     d.Control == logic.ControlRead,
		},
		Alert: AlertJSON{Brightness: d.Brightness},
		Thresholds: ThresholdsJSON{
			Humidity: d.Thresholds.Humidity,
			RangeCM:  d.Thresholds.RangeCM,
			Gas:      d.Thresholds.Gas,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			HumidityAlarms: d.Counts.HumidityAlarms,
			RangeAlarms:    d.Counts.RangeAlarms,
			GasAlarms:      d.Counts.GasAlarms,
			Dropped:        d.Counts.Dropped,
			Samples:        d.Counts.Samples,
			Drains:         d.Counts.Drains,
			DrainAborts:    d.Counts.DrainAborts,
			SensorErrors:   snap.SensorErrors,
		},
		Config: ConfigJSON{
			TickMs:     snap.Config.TickMs,
			SampleMs:   snap.Config.SampleMs,
			Broker:     snap.Config.Broker,
			HTTPPort:   snap.Config.HTTPPort,
			SerialPort: snap.Config.SerialPort,
			StorePath:  snap.Config.StorePath,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
