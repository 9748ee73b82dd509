package gpio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/sensational-toy/internal/logic"
)

func TestEchoToCentimetres(t *testing.T) {
	tests := []struct {
		pulse time.Duration
		want  int
	}{
		{0, 0},
		{20 * time.Microsecond, 0},
		{58 * time.Microsecond, 1},
		{87 * time.Microsecond, 1},
		{90 * time.Microsecond, 2},
		{292 * time.Microsecond, 5},
		// 5.67 cm: the 5 cm range threshold must not see this as a hit.
		{330 * time.Microsecond, 6},
		{5830 * time.Microsecond, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EchoToCentimetres(tt.pulse), "pulse %v", tt.pulse)
	}
}

func TestBargraphFrame(t *testing.T) {
	assert.Equal(t, uint32(0), bargraphFrame(0))
	assert.Equal(t, uint32(1<<29), bargraphFrame(1))
	assert.Equal(t, uint32(1<<29|1<<28|1<<27), bargraphFrame(3))
	assert.Equal(t, uint32(1<<30-1), bargraphFrame(30))
	assert.Equal(t, uint32(1<<30-1), bargraphFrame(99))
	assert.Equal(t, uint32(0), bargraphFrame(-1))
}

func TestFakeRangerScript(t *testing.T) {
	r := NewFakeRanger(120, -1, 4)

	d, err := r.Measure()
	require.NoError(t, err)
	assert.Equal(t, 120, d)

	_, err = r.Measure()
	assert.ErrorIs(t, err, logic.ErrSensorNotReady)

	d, err = r.Measure()
	require.NoError(t, err)
	assert.Equal(t, 4, d)

	d, err = r.Measure()
	require.NoError(t, err)
	assert.Equal(t, 4, d, "last distance repeats")
}

func TestFakeRangerNoScript(t *testing.T) {
	_, err := NewFakeRanger().Measure()
	assert.Error(t, err)
}

func TestFakeRGBOn(t *testing.T) {
	f := &FakeRGB{}
	assert.False(t, f.On())
	require.NoError(t, f.SetRGB(true, true, true))
	assert.True(t, f.On())
	require.NoError(t, f.SetRGB(false, false, false))
	assert.False(t, f.On())
}

func TestFakeBargraphFrame(t *testing.T) {
	f := &FakeBargraph{}
	require.NoError(t, f.Fill(2))
	assert.Equal(t, uint32(1<<29|1<<28), f.Frame())
}

func fakePWMTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pwmchip0", "pwm0"), 0o755))
	return root
}

func readAttr(t *testing.T, root, attr string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, "pwmchip0", "pwm0", attr))
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func TestPWMOpenConfiguresChannel(t *testing.T) {
	root := fakePWMTree(t)

	_, err := OpenPWM(root, 0, 0, time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "1000000", readAttr(t, root, "period"))
	assert.Equal(t, "0", readAttr(t, root, "duty_cycle"))
	assert.Equal(t, "1", readAttr(t, root, "enable"))
}

func TestPWMSetBrightness(t *testing.T) {
	root := fakePWMTree(t)
	p, err := OpenPWM(root, 0, 0, 255*time.Microsecond)
	require.NoError(t, err)

	require.NoError(t, p.SetBrightness(240))
	assert.Equal(t, "240000", readAttr(t, root, "duty_cycle"))

	require.NoError(t, p.Close())
	assert.Equal(t, "0", readAttr(t, root, "duty_cycle"))
	assert.Equal(t, "0", readAttr(t, root, "enable"))
}

func TestPWMExportsMissingChannel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pwmchip0"), 0o755))

	// The kernel creates pwm1/ on export; a plain directory tree cannot, so
	// opening must fail after the export write lands.
	_, err := OpenPWM(root, 0, 1, 0)
	assert.Error(t, err)

	b, err := os.ReadFile(filepath.Join(root, "pwmchip0", "export"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(b))
}

func TestPWMDrivesAlertIndicator(t *testing.T) {
	root := fakePWMTree(t)
	p, err := OpenPWM(root, 0, 0, 255*time.Microsecond)
	require.NoError(t, err)

	a := logic.NewAlertIndicator(p, 20)
	_, err = a.Pulse()
	require.NoError(t, err)
	assert.Equal(t, "20000", readAttr(t, root, "duty_cycle"))
}
