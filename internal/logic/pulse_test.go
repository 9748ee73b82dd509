package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseTriangleWave(t *testing.T) {
	d := &fakeDimmer{}
	a := NewAlertIndicator(d, 20)

	steps := PulseMax / 20
	for i := 1; i <= steps; i++ {
		b, err := a.Pulse()
		require.NoError(t, err)
		assert.Equal(t, i*20, b)
	}
	assert.Equal(t, PulseMax, a.Brightness())
	assert.Equal(t, -20, a.Increment())

	for i := 1; i <= steps; i++ {
		b, err := a.Pulse()
		require.NoError(t, err)
		assert.Equal(t, PulseMax-i*20, b)
	}
	assert.Equal(t, 0, a.Brightness())
	assert.Equal(t, 20, a.Increment())
	assert.Len(t, d.levels, 2*steps)
}

func TestPulseStaysInRange(t *testing.T) {
	a := NewAlertIndicator(nil, 50)
	for i := 0; i < 100; i++ {
		b, err := a.Pulse()
		require.NoError(t, err)
		require.GreaterOrEqual(t, b, 0)
		require.LessOrEqual(t, b, PulseMax)
	}
}

func TestPulseOffFromAnyPhase(t *testing.T) {
	for n := 0; n < 30; n++ {
		d := &fakeDimmer{}
		a := NewAlertIndicator(d, 20)
		for i := 0; i < n; i++ {
			_, _ = a.Pulse()
		}
		require.NoError(t, a.Off())
		assert.Equal(t, 0, a.Brightness(), "after %d pulses", n)
		assert.Equal(t, 20, a.Increment(), "after %d pulses", n)
		assert.Equal(t, uint8(0), d.levels[len(d.levels)-1])
	}
}

func TestPulseDefaultStep(t *testing.T) {
	a := NewAlertIndicator(nil, 0)
	assert.Equal(t, DefaultPulseStep, a.Increment())
}
