package logic

// Evaluation is the outcome of one alarm pass.
type Evaluation struct {
	// Fired is the alarm that took the sound lock this tick, if any.
	Fired Alarm
	// Dropped lists alarm conditions that were true while the lock was held.
	Dropped []Alarm
	// Err is a sound write error from the fired alarm.
	Err error
}

// Evaluator compares readings against thresholds and asks the sound
// player for the matching sound. All alarms share one lock; a condition
// seen while locked is dropped, never queued.
type Evaluator struct {
	Thresholds Thresholds
	Sounds     Sounds
}

// Evaluate checks humidity, then range, then gas.
func (e *Evaluator) Evaluate(r Readings, p *SoundPlayer, s Schedule) Evaluation {
	var ev Evaluation

	check := func(a Alarm, hit bool, sound Sound) {
		if !hit {
			return
		}
		if p.Locked() {
			ev.Dropped = append(ev.Dropped, a)
			return
		}
		started, err := p.Play(a, sound, s.UnlockTicks(a))
		if started {
			ev.Fired = a
		}
		if err != nil && ev.Err == nil {
			ev.Err = err
		}
	}

	check(AlarmHumidity, e.humidityHit(r.Humidity), e.Sounds.Humidity)
	check(AlarmRange, e.rangeHit(r.RangeCM), e.Sounds.Range)
	check(AlarmGas, e.gasHit(r.Gas), e.Sounds.Gas)
	return ev
}

func (e *Evaluator) humidityHit(r Reading) bool {
	return r.Valid && r.Value >= e.Thresholds.Humidity
}

func (e *Evaluator) rangeHit(r Reading) bool {
	return r.Valid && r.Value <= e.Thresholds.RangeCM
}

// gasHit is the extension point for the gas sensor; a zero threshold
// leaves it disabled.
func (e *Evaluator) gasHit(r Reading) bool {
	return e.Thresholds.Gas > 0 && r.Valid && r.Value >= e.Thresholds.Gas
}
