package logic

import (
	"fmt"
	"time"
)

// Timings holds every delay in human units. All derived tick counts come
// from here in one place; see NewSchedule.
type Timings struct {
	TickPeriod     time.Duration
	SampleEvery    time.Duration
	HumidityUnlock time.Duration
	RangeUnlock    time.Duration
	GasUnlock      time.Duration
}

// Schedule is Timings converted to ticks.
type Schedule struct {
	Timings Timings

	SampleTicks         uint16
	HumidityUnlockTicks uint16
	RangeUnlockTicks    uint16
	GasUnlockTicks      uint16
}

// NewSchedule derives every tick count from t together. A tick period <= 0
// or any delay that rounds down to zero ticks is ErrInvalidDelay; a delay
// that does not fit the counter width is rejected too.
func NewSchedule(t Timings) (Schedule, error) {
	if t.TickPeriod <= 0 {
		return Schedule{}, fmt.Errorf("tick period %v: %w", t.TickPeriod, ErrInvalidDelay)
	}
	s := Schedule{Timings: t}
	fields := []struct {
		name string
		d    time.Duration
		dst  *uint16
		max  int64
	}{
		{"sample", t.SampleEvery, &s.SampleTicks, TickModulus},
		{"humidity unlock", t.HumidityUnlock, &s.HumidityUnlockTicks, 1<<16 - 1},
		{"range unlock", t.RangeUnlock, &s.RangeUnlockTicks, 1<<16 - 1},
		{"gas unlock", t.GasUnlock, &s.GasUnlockTicks, 1<<16 - 1},
	}
	for _, f := range fields {
		n := int64(f.d / t.TickPeriod)
		if n < 1 {
			return Schedule{}, fmt.Errorf("%s delay %v at tick %v is zero ticks: %w", f.name, f.d, t.TickPeriod, ErrInvalidDelay)
		}
		if n > f.max {
			return Schedule{}, fmt.Errorf("%s delay %v at tick %v exceeds %d ticks: %w", f.name, f.d, t.TickPeriod, f.max, ErrInvalidDelay)
		}
		*f.dst = uint16(n)
	}
	return s, nil
}

// UnlockTicks returns the configured unlock delay for alarm a.
func (s Schedule) UnlockTicks(a Alarm) uint16 {
	switch a {
	case AlarmHumidity:
		return s.HumidityUnlockTicks
	case AlarmRange:
		return s.RangeUnlockTicks
	case AlarmGas:
		return s.GasUnlockTicks
	}
	return 0
}
