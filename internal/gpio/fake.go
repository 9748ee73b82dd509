package gpio

import (
	"errors"
	"fmt"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// RGB is one status LED state.
type RGB struct {
	R, G, B bool
}

// FakeRGB records status LED changes.
type FakeRGB struct {
	// States contains every state set, in order.
	States []RGB

	// SetError, if set, will be returned by SetRGB.
	SetError error
}

// SetRGB records the state.
func (f *FakeRGB) SetRGB(r, g, b bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, RGB{R: r, G: g, B: b})
	return nil
}

// On reports whether the last state had all channels lit.
func (f *FakeRGB) On() bool {
	if len(f.States) == 0 {
		return false
	}
	s := f.States[len(f.States)-1]
	return s.R && s.G && s.B
}

// FakeBargraph records fills.
type FakeBargraph struct {
	Fills []int
}

// Fill records n.
func (f *FakeBargraph) Fill(n int) error {
	f.Fills = append(f.Fills, n)
	return nil
}

// Frame returns the shift register word the real bargraph would send for
// the last fill.
func (f *FakeBargraph) Frame() uint32 {
	if len(f.Fills) == 0 {
		return 0
	}
	return bargraphFrame(f.Fills[len(f.Fills)-1])
}

// FakeDimmer records brightness levels.
type FakeDimmer struct {
	Levels []uint8
}

// SetBrightness records level.
func (f *FakeDimmer) SetBrightness(level uint8) error {
	f.Levels = append(f.Levels, level)
	return nil
}

// FakeRanger returns scripted distances. A negative entry simulates a
// missing echo.
type FakeRanger struct {
	Distances []int
	index     int
	Closed    bool
}

// NewFakeRanger creates a FakeRanger with the given distances.
func NewFakeRanger(distances ...int) *FakeRanger {
	return &FakeRanger{Distances: distances}
}

// Measure returns the next scripted distance, repeating the last one when
// the script is exhausted.
func (f *FakeRanger) Measure() (int, error) {
	if len(f.Distances) == 0 {
		return 0, errors.New("no distances configured")
	}
	d := f.Distances[f.index]
	if f.index < len(f.Distances)-1 {
		f.index++
	}
	if d < 0 {
		return 0, fmt.Errorf("no echo: %w", logic.ErrSensorNotReady)
	}
	return d, nil
}

// Close marks the ranger as closed.
func (f *FakeRanger) Close() error {
	f.Closed = true
	return nil
}
