package logic

import (
	"errors"
	"fmt"
)

// BargraphSegments is the number of LEDs on the bargraph.
const BargraphSegments = 30

// Config is everything the device needs besides its peripherals.
type Config struct {
	Timings    Timings
	Thresholds Thresholds
	Sounds     Sounds
	PulseStep  int
}

// Peripherals are the output collaborators. Any of Light, Alert and
// Bargraph may be nil.
type Peripherals struct {
	Speech   SerialOutput
	Light    StatusLight
	Alert    Dimmer
	Bargraph Bargraph
}

// Result reports what happened during one tick.
type Result struct {
	Tick       uint16
	Alarm      Evaluation
	Sampled    bool
	SampleErr  error
	Drained    bool
	DrainErr   error
	Full       bool
	Brightness int
	// OutputErrs collects bargraph and alert output failures.
	OutputErrs []error
}

// State is a point-in-time copy of the device state.
type State struct {
	Tick       uint16
	Action     uint16
	Lock       SoundLock
	Readings   Readings
	Control    Control
	Cursor     int
	Capacity   int
	Brightness int
	Counts     Counts
	Schedule   Schedule
	Thresholds Thresholds
}

// Device bundles all mutable state of the toy. The owner calls Tick once
// per tick period; nothing here blocks or spawns goroutines.
type Device struct {
	timer    Timer
	player   *SoundPlayer
	eval     Evaluator
	log      *Log
	alert    *AlertIndicator
	bargraph Bargraph

	schedule Schedule
	readings Readings
	counts   Counts
	alerting bool
}

// NewDevice assembles a device around an opened storage log.
func NewDevice(cfg Config, log *Log, p Peripherals) (*Device, error) {
	if p.Speech == nil {
		return nil, errors.New("device: speech output is required")
	}
	if log == nil {
		return nil, errors.New("device: storage log is required")
	}
	sched, err := NewSchedule(cfg.Timings)
	if err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}

	d := &Device{
		eval:     Evaluator{Thresholds: cfg.Thresholds, Sounds: cfg.Sounds},
		log:      log,
		alert:    NewAlertIndicator(p.Alert, cfg.PulseStep),
		bargraph: p.Bargraph,
		schedule: sched,
	}
	d.player = NewSoundPlayer(&d.timer, p.Speech, p.Light)
	return d, nil
}

// SetTimings recomputes every derived tick count from t at once. On error
// the previous schedule stays in force.
func (d *Device) SetTimings(t Timings) error {
	s, err := NewSchedule(t)
	if err != nil {
		return err
	}
	d.schedule = s
	return nil
}

// SetThresholds replaces the alarm thresholds.
func (d *Device) SetThresholds(t Thresholds) {
	d.eval.Thresholds = t
}

// Greet sends a phrase to the speech chip outside the sound lock.
func (d *Device) Greet(phrase []byte) error {
	return d.player.Say(phrase)
}

// Tick runs one control cycle. host may be nil when no host link exists.
func (d *Device) Tick(in Sample, host Host) Result {
	d.timer.Advance()
	res := Result{Tick: d.timer.Tick}

	fresh := d.merge(in)
	if fresh.Humidity.Valid && d.bargraph != nil {
		if err := d.bargraph.Fill(BargraphLevel(d.readings.Humidity.Value)); err != nil {
			res.OutputErrs = append(res.OutputErrs, fmt.Errorf("bargraph: %w", err))
		}
	}

	res.Alarm = d.eval.Evaluate(fresh, d.player, d.schedule)
	d.count(res.Alarm)

	if d.readings.Humidity.Valid && d.timer.Every(d.schedule.SampleTicks) {
		res.SampleErr = d.log.Append(sampleByte(d.readings.Humidity.Value))
		if res.SampleErr == nil {
			res.Sampled = true
			d.counts.Samples++
		}
	}

	if d.log.Full() {
		err := d.log.Drain(host)
		switch {
		case err == nil:
			res.Drained = true
			d.counts.Drains++
		case errors.Is(err, ErrHostNotReady), errors.Is(err, ErrHostBusy):
		default:
			res.DrainErr = err
			if errors.Is(err, ErrDrainAborted) {
				d.counts.DrainAborts++
			}
		}
	}

	res.Full = d.log.Full()
	switch {
	case res.Full:
		d.alerting = true
		b, err := d.alert.Pulse()
		if err != nil {
			res.OutputErrs = append(res.OutputErrs, fmt.Errorf("alert: %w", err))
		}
		res.Brightness = b
	case d.alerting:
		d.alerting = false
		if err := d.alert.Off(); err != nil {
			res.OutputErrs = append(res.OutputErrs, fmt.Errorf("alert: %w", err))
		}
	}
	return res
}

// Snapshot returns a copy of the current state.
func (d *Device) Snapshot() State {
	return State{
		Tick:       d.timer.Tick,
		Action:     d.timer.Action,
		Lock:       d.player.Lock(),
		Readings:   d.readings,
		Control:    d.log.Control(),
		Cursor:     d.log.Cursor(),
		Capacity:   d.log.Capacity(),
		Brightness: d.alert.Brightness(),
		Counts:     d.counts,
		Schedule:   d.schedule,
		Thresholds: d.eval.Thresholds,
	}
}

// merge folds fresh readings into the carried-forward set. The returned
// Readings holds only this tick's values; a sensor that was not ready is
// left invalid so no alarm is raised on a stale reading.
func (d *Device) merge(in Sample) Readings {
	var fresh Readings
	if in.Humidity != nil {
		fresh.Humidity = Reading{Value: *in.Humidity, Valid: true}
		d.readings.Humidity = fresh.Humidity
	}
	if in.RangeCM != nil {
		fresh.RangeCM = Reading{Value: *in.RangeCM, Valid: true}
		d.readings.RangeCM = fresh.RangeCM
	}
	if in.Gas != nil {
		fresh.Gas = Reading{Value: *in.Gas, Valid: true}
		d.readings.Gas = fresh.Gas
	}
	return fresh
}

func (d *Device) count(ev Evaluation) {
	switch ev.Fired {
	case AlarmHumidity:
		d.counts.HumidityAlarms++
	case AlarmRange:
		d.counts.RangeAlarms++
	case AlarmGas:
		d.counts.GasAlarms++
	}
	d.counts.Dropped += len(ev.Dropped)
}

// BargraphLevel maps a 0..100 humidity to lit segments, 0..BargraphSegments.
func BargraphLevel(humidity int) int {
	n := int(float64(humidity) / 3.33)
	if n < 0 {
		return 0
	}
	if n > BargraphSegments {
		return BargraphSegments
	}
	return n
}

func sampleByte(humidity int) byte {
	if humidity < 0 {
		return 0
	}
	if humidity > 100 {
		return 100
	}
	return byte(humidity)
}
