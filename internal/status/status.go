// Package status provides a thread-safe status tracker for the toy daemon.
// It is read by HTTP handlers and by the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs     int64
	SampleMs   int64
	Broker     string
	HTTPPort   string
	SerialPort string
	StorePath  string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Device        logic.State
	Updated       bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	SensorErrors  int
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update stores the latest device state. Called from runLoop on every tick.
func (t *Tracker) Update(state logic.State) {
	t.mu.Lock()
	t.snap.Device = state
	t.snap.Updated = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// AddSensorErrors adds to the running count of failed sensor reads.
func (t *Tracker) AddSensorErrors(n int) {
	if n == 0 {
		return
	}
	t.mu.Lock()
	t.snap.SensorErrors += n
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
