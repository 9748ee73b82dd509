package logic

// Timer keeps relative time for every rate-limited decision.
//
// Tick wraps at TickModulus. Action counts ticks since the last sound
// started and is reset by the sound player; it wraps only at the integer
// width, so elapsed time survives a Tick wrap.
type Timer struct {
	Tick   uint16
	Action uint16

	onTick func()
}

// Advance moves both counters forward one tick and runs the lock check.
func (t *Timer) Advance() {
	t.Tick++
	if t.Tick >= TickModulus {
		t.Tick = 0
	}
	t.Action++
	if t.onTick != nil {
		t.onTick()
	}
}

// ResetAction restarts the action counter.
func (t *Timer) ResetAction() {
	t.Action = 0
}

// Every reports whether the current tick lands on a multiple of n.
func (t *Timer) Every(n uint16) bool {
	if n == 0 {
		return false
	}
	return t.Tick%n == 0
}
