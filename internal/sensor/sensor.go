// Package sensor reads the toy's sensors once per tick. A sensor without a
// fresh value reports logic.ErrSensorNotReady and the poller leaves its
// slot empty so the device carries the last value forward.
package sensor

import (
	"errors"

	"github.com/sweeney/sensational-toy/internal/gpio"
	"github.com/sweeney/sensational-toy/internal/logic"
)

// Channel yields one integer reading.
type Channel interface {
	Read() (int, error)
}

// RangeChannel adapts a gpio.Ranger to a Channel.
type RangeChannel struct {
	Ranger gpio.Ranger
}

// Read measures once.
func (c RangeChannel) Read() (int, error) {
	return c.Ranger.Measure()
}

// Poller samples every configured channel. Nil channels are skipped.
type Poller struct {
	Humidity Channel
	Range    Channel
	Gas      Channel
}

// Errors holds per-channel failures that were not a plain "not ready".
type Errors struct {
	Humidity error
	Range    error
	Gas      error
}

// Any reports whether any channel failed.
func (e Errors) Any() bool {
	return e.Humidity != nil || e.Range != nil || e.Gas != nil
}

// Poll reads every channel. Not-ready channels are left nil in the sample
// and are not reported as errors.
func (p *Poller) Poll() (logic.Sample, Errors) {
	var s logic.Sample
	var errs Errors
	s.Humidity, errs.Humidity = read(p.Humidity)
	s.RangeCM, errs.Range = read(p.Range)
	s.Gas, errs.Gas = read(p.Gas)
	return s, errs
}

func read(c Channel) (*int, error) {
	if c == nil {
		return nil, nil
	}
	v, err := c.Read()
	if err != nil {
		if errors.Is(err, logic.ErrSensorNotReady) {
			return nil, nil
		}
		return nil, err
	}
	return logic.Value(v), nil
}
