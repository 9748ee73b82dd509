package logic

import "fmt"

// SoundLock is the single audio channel's mutual-exclusion token.
type SoundLock struct {
	Held        bool
	Owner       Alarm
	UnlockTicks uint16
}

// SoundPlayer starts alarm sounds and holds the lock until their unlock
// delay has elapsed, so sounds never overlap on the one speaker.
type SoundPlayer struct {
	timer *Timer
	out   SerialOutput
	light StatusLight
	lock  SoundLock
}

// NewSoundPlayer wires a player to the timer whose ticks release the lock.
func NewSoundPlayer(timer *Timer, out SerialOutput, light StatusLight) *SoundPlayer {
	p := &SoundPlayer{timer: timer, out: out, light: light}
	timer.onTick = p.checkLock
	return p
}

// Play starts sound for owner and locks for unlockTicks ticks. It returns
// false (and sends nothing) when the lock is already held. A write error
// is returned but the lock stays held: the sound is considered started.
func (p *SoundPlayer) Play(owner Alarm, sound Sound, unlockTicks uint16) (bool, error) {
	if unlockTicks == 0 {
		return false, fmt.Errorf("unlock delay for %s: %w", owner, ErrInvalidDelay)
	}
	if p.lock.Held {
		return false, nil
	}

	p.lock = SoundLock{Held: true, Owner: owner, UnlockTicks: unlockTicks}
	p.timer.ResetAction()

	var firstErr error
	if p.light != nil {
		if err := p.light.SetRGB(true, true, true); err != nil {
			firstErr = fmt.Errorf("status light on: %w", err)
		}
	}
	if _, err := p.out.Write(sound); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("write sound: %w", err)
	}
	return true, firstErr
}

// Say sends raw bytes without touching the lock (boot phrase).
func (p *SoundPlayer) Say(b []byte) error {
	if _, err := p.out.Write(b); err != nil {
		return fmt.Errorf("write phrase: %w", err)
	}
	return nil
}

// Locked reports whether a sound is in flight.
func (p *SoundPlayer) Locked() bool {
	return p.lock.Held
}

// Lock returns a copy of the lock state.
func (p *SoundPlayer) Lock() SoundLock {
	return p.lock
}

func (p *SoundPlayer) checkLock() {
	if !p.lock.Held {
		return
	}
	if p.timer.Action%p.lock.UnlockTicks != 0 {
		return
	}
	p.lock = SoundLock{}
	if p.light != nil {
		_ = p.light.SetRGB(false, false, false)
	}
}
