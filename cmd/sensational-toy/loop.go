package main

import (
	"errors"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/sensational-toy/internal/logic"
	"github.com/sweeney/sensational-toy/internal/mqtt"
	"github.com/sweeney/sensational-toy/internal/sensor"
	"github.com/sweeney/sensational-toy/internal/status"
)

type loopDeps struct {
	device     *logic.Device
	poller     *sensor.Poller
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	host       logic.Host
	tracker    *status.Tracker
	log        *zap.Logger
	heartbeat  time.Duration // 0 disables
	now        func() time.Time
}

// runLoop drives the device once per tick until a signal arrives.
func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := d.now()
	wasFull := d.device.Snapshot().Control == logic.ControlRead

	for {
		select {
		case s := <-sig:
			d.log.Info("shutting down", zap.Stringer("signal", s))
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				d.refreshTracker()
				event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				d.log.Warn("failed to publish shutdown event", zap.Error(err))
			} else {
				d.log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := d.now()

			sample, errs := d.poller.Poll()
			d.logSensorErrors(errs)

			res := d.device.Tick(sample, d.host)
			state := d.device.Snapshot()
			d.report(t, res, state)

			if res.Full && !wasFull {
				d.log.Warn("storage full", zap.Int("capacity", state.Capacity))
				event := mqtt.SystemEvent{Timestamp: t, Event: "STORAGE_FULL"}
				if err := d.publisher.PublishSystem(event); err != nil {
					d.log.Warn("failed to publish storage full event", zap.Error(err))
				}
			}
			wasFull = res.Full

			if d.tracker != nil {
				d.refreshTracker()
			}

			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				d.sendHeartbeat(t, state)
			}
		}
	}
}

// report logs the tick result and publishes a fired alarm.
func (d loopDeps) report(t time.Time, res logic.Result, state logic.State) {
	if a := res.Alarm.Fired; a != logic.AlarmNone {
		value, threshold := alarmValues(state, a)
		d.log.Info("alarm",
			zap.String("alarm", string(a)),
			zap.Int("value", value),
			zap.Int("threshold", threshold))
		if res.Alarm.Err != nil {
			d.log.Warn("alarm sound failed", zap.String("alarm", string(a)), zap.Error(res.Alarm.Err))
		}
		event := mqtt.AlarmEvent{Timestamp: t, Alarm: a, Value: value, Threshold: threshold}
		if err := d.publisher.Publish(event); err != nil {
			d.log.Warn("publish error", zap.Error(err))
		}
	}
	for _, a := range res.Alarm.Dropped {
		d.log.Debug("alarm dropped while sound locked",
			zap.String("alarm", string(a)),
			zap.String("owner", string(state.Lock.Owner)))
	}

	switch {
	case res.Sampled:
		d.log.Debug("sample written", zap.Int("cursor", state.Cursor))
	case errors.Is(res.SampleErr, logic.ErrStorageFull):
		d.log.Debug("sample skipped", zap.Error(res.SampleErr))
	case res.SampleErr != nil:
		d.log.Error("sample write failed", zap.Error(res.SampleErr))
	}

	if res.Drained {
		d.log.Info("storage drained", zap.Int("capacity", state.Capacity))
	}
	if res.DrainErr != nil {
		d.log.Error("drain failed", zap.Error(res.DrainErr))
	}
	for _, err := range res.OutputErrs {
		d.log.Warn("output error", zap.Error(err))
	}
}

func (d loopDeps) logSensorErrors(errs sensor.Errors) {
	if !errs.Any() {
		return
	}
	n := 0
	for name, err := range map[string]error{"humidity": errs.Humidity, "range": errs.Range, "gas": errs.Gas} {
		if err != nil {
			n++
			d.log.Debug("sensor read error", zap.String("sensor", name), zap.Error(err))
		}
	}
	if d.tracker != nil {
		d.tracker.AddSensorErrors(n)
	}
}

func (d loopDeps) refreshTracker() {
	d.tracker.Update(d.device.Snapshot())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func (d loopDeps) sendHeartbeat(t time.Time, state logic.State) {
	d.log.Info("heartbeat",
		zap.Uint16("tick", state.Tick),
		zap.Int("cursor", state.Cursor),
		zap.Int("humidity_alarms", state.Counts.HumidityAlarms),
		zap.Int("range_alarms", state.Counts.RangeAlarms),
		zap.Int("gas_alarms", state.Counts.GasAlarms),
		zap.Int("drains", state.Counts.Drains))

	event := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
	if d.tracker != nil {
		event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		d.log.Warn("heartbeat publish error", zap.Error(err))
	}
}

// alarmValues returns the reading and threshold behind alarm a.
func alarmValues(s logic.State, a logic.Alarm) (value, threshold int) {
	switch a {
	case logic.AlarmHumidity:
		return s.Readings.Humidity.Value, s.Thresholds.Humidity
	case logic.AlarmRange:
		return s.Readings.RangeCM.Value, s.Thresholds.RangeCM
	case logic.AlarmGas:
		return s.Readings.Gas.Value, s.Thresholds.Gas
	}
	return 0, 0
}
