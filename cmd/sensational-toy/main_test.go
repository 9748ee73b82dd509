package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/sensational-toy/internal/config"
	"github.com/sweeney/sensational-toy/internal/eeprom"
	"github.com/sweeney/sensational-toy/internal/gpio"
	"github.com/sweeney/sensational-toy/internal/logic"
	"github.com/sweeney/sensational-toy/internal/mqtt"
	"github.com/sweeney/sensational-toy/internal/sensor"
	"github.com/sweeney/sensational-toy/internal/speech"
	"github.com/sweeney/sensational-toy/internal/status"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

type rig struct {
	deps     loopDeps
	line     *speech.FakeLine
	rgb      *gpio.FakeRGB
	dimmer   *gpio.FakeDimmer
	bargraph *gpio.FakeBargraph
	humidity *sensor.FakeChannel
	rangeCM  *sensor.FakeChannel
	pub      *mqtt.FakePublisher
	tracker  *status.Tracker
	logs     *observer.ObservedLogs
	store    *eeprom.Mem
}

// newRig wires a device over fakes. Samples are logged every tick and
// sounds lock for four ticks.
func newRig(t *testing.T, capacity int, humidity, rangeCM []int) *rig {
	t.Helper()
	r := &rig{
		line:     speech.NewFakeLine(),
		rgb:      &gpio.FakeRGB{},
		dimmer:   &gpio.FakeDimmer{},
		bargraph: &gpio.FakeBargraph{},
		humidity: sensor.NewFakeChannel(humidity...),
		rangeCM:  sensor.NewFakeChannel(rangeCM...),
		pub:      mqtt.NewFakePublisher(),
		store:    eeprom.NewMem(logic.StoreSize(capacity)),
	}

	samples, err := logic.OpenLog(r.store, capacity)
	require.NoError(t, err)

	dev, err := logic.NewDevice(logic.Config{
		Timings: logic.Timings{
			TickPeriod:     100 * time.Millisecond,
			SampleEvery:    100 * time.Millisecond,
			HumidityUnlock: 400 * time.Millisecond,
			RangeUnlock:    400 * time.Millisecond,
			GasUnlock:      400 * time.Millisecond,
		},
		Thresholds: logic.Thresholds{Humidity: 40, RangeCM: 5},
		Sounds:     speech.Sounds(),
		PulseStep:  logic.DefaultPulseStep,
	}, samples, logic.Peripherals{
		Speech:   r.line,
		Light:    r.rgb,
		Alert:    r.dimmer,
		Bargraph: r.bargraph,
	})
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	r.logs = logs

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := fakeClock(start, 100*time.Millisecond)
	r.tracker = status.NewTracker(start, status.Config{TickMs: 100})

	r.deps = loopDeps{
		device:     dev,
		poller:     &sensor.Poller{Humidity: r.humidity, Range: r.rangeCM},
		publisher:  r.pub,
		mqttStatus: r.pub,
		host:       mqtt.NewHostLink(r.pub, r.pub, capacity, func() time.Time { return start }),
		tracker:    r.tracker,
		log:        zap.New(core),
		now:        clock,
	}
	return r
}

// run drives runLoop for nTicks and then delivers signal.
func (r *rig) run(t *testing.T, nTicks int, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(r.deps, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	require.NoError(t, <-errCh)
}

func (r *rig) systemEvents() []string {
	var out []string
	for _, e := range r.pub.SystemEvents {
		out = append(out, e.Event)
	}
	return out
}

func TestRunLoopQuietSensorsPublishNothing(t *testing.T) {
	r := newRig(t, 100, []int{20}, []int{80})
	r.run(t, 5, syscall.SIGTERM)

	assert.Empty(t, r.pub.Events)
	assert.Empty(t, r.line.Writes)
	assert.Equal(t, []string{"SHUTDOWN"}, r.systemEvents())
	assert.Equal(t, 5, r.tracker.Snapshot().Device.Counts.Samples)
}

func TestRunLoopHumidityAlarm(t *testing.T) {
	r := newRig(t, 100, []int{41}, []int{80})
	r.run(t, 3, syscall.SIGTERM)

	require.Len(t, r.pub.Events, 1)
	ev := r.pub.Events[0]
	assert.Equal(t, logic.AlarmHumidity, ev.Alarm)
	assert.Equal(t, 41, ev.Value)
	assert.Equal(t, 40, ev.Threshold)

	require.Len(t, r.line.Writes, 1)
	assert.Equal(t, []byte(speech.HumiditySound), r.line.Writes[0])
	assert.True(t, r.rgb.On())

	assert.Equal(t, 1, r.logs.FilterMessage("alarm").Len())
	assert.Equal(t, 2, r.logs.FilterMessage("alarm dropped while sound locked").Len())
}

func TestRunLoopAlarmRepeatsAfterUnlock(t *testing.T) {
	r := newRig(t, 100, []int{20}, []int{3})
	r.run(t, 5, syscall.SIGTERM)

	require.Len(t, r.pub.Events, 2)
	assert.Equal(t, logic.AlarmRange, r.pub.Events[0].Alarm)
	assert.Equal(t, logic.AlarmRange, r.pub.Events[1].Alarm)
	assert.Equal(t, 3, r.pub.Events[0].Value)
	assert.Len(t, r.line.Writes, 2)
}

func TestRunLoopSharedLockDropsSecondAlarm(t *testing.T) {
	r := newRig(t, 100, []int{55}, []int{2})
	r.run(t, 1, syscall.SIGTERM)

	require.Len(t, r.pub.Events, 1)
	assert.Equal(t, logic.AlarmHumidity, r.pub.Events[0].Alarm)
	assert.Equal(t, 1, r.tracker.Snapshot().Device.Counts.Dropped)
}

func TestRunLoopStorageFullWithoutHost(t *testing.T) {
	r := newRig(t, 3, []int{30, 31, 32, 33}, []int{80})
	r.run(t, 5, syscall.SIGTERM)

	snap := r.tracker.Snapshot()
	assert.Equal(t, logic.ControlRead, snap.Device.Control)
	assert.Equal(t, 3, snap.Device.Cursor)
	assert.Equal(t, []string{"STORAGE_FULL", "SHUTDOWN"}, r.systemEvents())
	assert.Empty(t, r.pub.Dumps)

	// Pulse began on the tick the log filled.
	assert.Equal(t, []uint8{20, 40, 60}, r.dimmer.Levels)
	assert.Equal(t, 1, r.logs.FilterMessage("storage full").Len())
	assert.Equal(t, 2, r.logs.FilterMessage("sample skipped").Len())

	assert.Equal(t, []byte{30, 31, 32}, r.store.Bytes()[:3])
}

func TestRunLoopDrainsWhenHostReady(t *testing.T) {
	r := newRig(t, 3, []int{30, 31, 32, 33}, []int{80})
	r.pub.Connected = true
	r.run(t, 4, syscall.SIGTERM)

	require.Len(t, r.pub.Dumps, 1)
	assert.Equal(t, []byte{30, 31, 32}, r.pub.Dumps[0].Samples)
	assert.Equal(t, 3, r.pub.Dumps[0].Capacity)

	snap := r.tracker.Snapshot()
	assert.Equal(t, logic.ControlWrite, snap.Device.Control)
	assert.Equal(t, 1, snap.Device.Cursor)
	assert.Equal(t, 1, snap.Device.Counts.Drains)
	assert.True(t, snap.MQTTConnected)
	assert.Equal(t, []string{"SHUTDOWN"}, r.systemEvents())
	assert.Empty(t, r.dimmer.Levels)
}

func TestRunLoopDrainAbortKeepsSamples(t *testing.T) {
	r := newRig(t, 2, []int{30, 31, 32}, []int{80})
	r.pub.Connected = true
	r.pub.PublishDumpError = errors.New("no ack")
	r.run(t, 3, syscall.SIGTERM)

	snap := r.tracker.Snapshot()
	assert.Equal(t, logic.ControlRead, snap.Device.Control)
	assert.Equal(t, 2, snap.Device.Cursor)
	assert.Equal(t, 2, snap.Device.Counts.DrainAborts)
	assert.Equal(t, 2, r.logs.FilterMessage("drain failed").Len())
	assert.Equal(t, []byte{30, 31}, r.store.Bytes()[:2])
}

func TestRunLoopSlowAckKeepsLogFull(t *testing.T) {
	r := newRig(t, 2, []int{30, 31, 32}, []int{80})
	r.pub.Connected = true
	r.pub.HoldAcks = true
	r.run(t, 5, syscall.SIGTERM)

	require.Len(t, r.pub.Dumps, 1)
	assert.Equal(t, []byte{30, 31}, r.pub.Dumps[0].Samples)

	snap := r.tracker.Snapshot()
	assert.Equal(t, logic.ControlRead, snap.Device.Control)
	assert.Equal(t, 2, snap.Device.Cursor)
	assert.Equal(t, 0, snap.Device.Counts.DrainAborts)
	assert.Equal(t, 0, snap.Device.Counts.Drains)
	assert.Equal(t, 0, r.logs.FilterMessage("drain failed").Len())
	assert.NotEmpty(t, r.dimmer.Levels)
}

func TestRunLoopSensorErrorsCounted(t *testing.T) {
	r := newRig(t, 100, []int{20}, []int{80})
	r.humidity.ReadError = errors.New("eio")
	r.run(t, 3, syscall.SIGTERM)

	snap := r.tracker.Snapshot()
	assert.Equal(t, 3, snap.SensorErrors)
	assert.Equal(t, 0, snap.Device.Counts.Samples)
	assert.False(t, snap.Device.Readings.Humidity.Valid)
	assert.Equal(t, 3, r.logs.FilterMessage("sensor read error").Len())
}

func TestRunLoopNotReadyCarriesForward(t *testing.T) {
	r := newRig(t, 100, []int{35, sensor.NotReady, sensor.NotReady}, []int{80})
	r.run(t, 3, syscall.SIGTERM)

	snap := r.tracker.Snapshot()
	assert.Equal(t, 0, snap.SensorErrors)
	assert.Equal(t, logic.Reading{Value: 35, Valid: true}, snap.Device.Readings.Humidity)
	assert.Equal(t, 3, snap.Device.Counts.Samples)
	assert.Equal(t, []byte{35, 35, 35}, r.store.Bytes()[:3])
	// Only the fresh reading redraws the bargraph.
	assert.Equal(t, []int{logic.BargraphLevel(35)}, r.bargraph.Fills)
}

func TestRunLoopStuckSensorRaisesNoAlarms(t *testing.T) {
	r := newRig(t, 100, []int{45, sensor.NotReady}, []int{80})
	r.run(t, 20, syscall.SIGTERM)

	require.Len(t, r.pub.Events, 1)
	assert.Len(t, r.line.Writes, 1)
	snap := r.tracker.Snapshot()
	assert.Equal(t, 1, snap.Device.Counts.HumidityAlarms)
	assert.Equal(t, logic.Reading{Value: 45, Valid: true}, snap.Device.Readings.Humidity)
}

func TestRunLoopPublishErrorDoesNotStop(t *testing.T) {
	r := newRig(t, 100, []int{41}, []int{80})
	r.pub.PublishError = errors.New("broker down")
	r.run(t, 5, syscall.SIGTERM)

	assert.Empty(t, r.pub.Events)
	assert.Len(t, r.line.Writes, 2)
	assert.Equal(t, 2, r.logs.FilterMessage("publish error").Len())
}

func TestRunLoopHeartbeat(t *testing.T) {
	r := newRig(t, 100, []int{20}, []int{80})
	r.deps.heartbeat = 250 * time.Millisecond
	r.run(t, 6, syscall.SIGTERM)

	assert.Equal(t, []string{"HEARTBEAT", "HEARTBEAT", "SHUTDOWN"}, r.systemEvents())
	assert.Contains(t, string(r.pub.SystemPayloads[0]), `"event":"HEARTBEAT"`)
}

func TestRunLoopShutdownSignals(t *testing.T) {
	tests := []struct {
		signal os.Signal
		want   string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := newRig(t, 100, []int{20}, []int{80})
			r.run(t, 1, tt.signal)

			require.Len(t, r.pub.SystemEvents, 1)
			ev := r.pub.SystemEvents[0]
			assert.Equal(t, "SHUTDOWN", ev.Event)
			assert.Equal(t, tt.want, ev.Reason)
			assert.True(t, ev.Retained)
			assert.Contains(t, string(r.pub.SystemPayloads[0]), `"reason":"`+tt.want+`"`)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, "tcp://other:1883", "off", "debug")
	assert.Equal(t, "tcp://other:1883", cfg.MQTT.Broker)
	assert.Empty(t, cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	cfg = config.Default()
	applyFlags(cfg, "", ":9000", "")
	assert.Equal(t, config.Default().MQTT.Broker, cfg.MQTT.Broker)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestFormatReading(t *testing.T) {
	assert.Equal(t, "42", formatReading(logic.Value(42), nil))
	assert.Equal(t, "not ready", formatReading(nil, nil))
	assert.Equal(t, "error (boom)", formatReading(nil, errors.New("boom")))
}

// syncRecorder is a zapcore.WriteSyncer that remembers whether it was
// flushed.
type syncRecorder struct {
	out    []byte
	synced bool
}

func (s *syncRecorder) Write(p []byte) (int, error) {
	s.out = append(s.out, p...)
	return len(p), nil
}

func (s *syncRecorder) Sync() error {
	s.synced = true
	return nil
}

func TestExitCodeFlushesFatalError(t *testing.T) {
	w := &syncRecorder{}
	log := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, zapcore.DebugLevel))

	assert.Equal(t, 1, exitCode(log, errors.New("open serial: no such device")))
	assert.True(t, w.synced)
	assert.Contains(t, string(w.out), `"msg":"fatal"`)
	assert.Contains(t, string(w.out), "open serial: no such device")
}

func TestExitCodeCleanRun(t *testing.T) {
	w := &syncRecorder{}
	log := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, zapcore.DebugLevel))

	assert.Equal(t, 0, exitCode(log, nil))
	assert.True(t, w.synced)
	assert.Empty(t, w.out)
}
