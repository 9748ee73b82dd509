package logic

// PulseMax is the peak brightness of the memory-full pulse.
const PulseMax = 240

// DefaultPulseStep is the brightness change per tick.
const DefaultPulseStep = 20

// AlertIndicator fades an indicator up and down in a triangle wave over [0, PulseMax].
type AlertIndicator struct {
	out        Dimmer
	start      int
	step       int
	brightness int
}

// NewAlertIndicator returns an indicator that starts at 0 and moves by step per call.
// A step <= 0 falls back to DefaultPulseStep.
func NewAlertIndicator(out Dimmer, step int) *AlertIndicator {
	if step <= 0 {
		step = DefaultPulseStep
	}
	return &AlertIndicator{out: out, start: step, step: step}
}

// Pulse advances the wave one tick and drives the output. Hitting either
// bound reverses direction. Returns the new brightness.
func (p *AlertIndicator) Pulse() (int, error) {
	p.brightness += p.step
	switch {
	case p.brightness >= PulseMax:
		p.brightness = PulseMax
		p.step = -p.start
	case p.brightness <= 0:
		p.brightness = 0
		p.step = p.start
	}
	return p.brightness, p.write()
}

// Off returns the wave to its initial phase and darkens the output.
func (p *AlertIndicator) Off() error {
	p.brightness = 0
	p.step = p.start
	return p.write()
}

// Brightness is the current level.
func (p *AlertIndicator) Brightness() int { return p.brightness }

// Increment is the signed step the next call will apply.
func (p *AlertIndicator) Increment() int { return p.step }

func (p *AlertIndicator) write() error {
	if p.out == nil {
		return nil
	}
	return p.out.SetBrightness(uint8(p.brightness))
}
