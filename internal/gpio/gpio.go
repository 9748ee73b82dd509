// Package gpio drives the toy's GPIO peripherals with hardware abstraction.
// The real implementations use the Linux GPIO character device (and sysfs
// for PWM). The fake implementations allow testing without hardware.
package gpio

import (
	"time"

	"github.com/chewxy/math32"
)

// Ranger measures distance with an ultrasonic trigger/echo sensor.
type Ranger interface {
	// Measure returns the distance in centimetres. When no echo arrives
	// the error wraps logic.ErrSensorNotReady.
	Measure() (int, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering).
const (
	DefaultPinTrig = 23
	DefaultPinEcho = 24

	DefaultPinRed   = 17
	DefaultPinGreen = 27
	DefaultPinBlue  = 22

	DefaultPinSIN = 10 // MOSI
	DefaultPinCLK = 11 // SCLK
	DefaultPinLAT = 8
)

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// EchoTimeout bounds the wait for an echo; about 5 m round trip.
const EchoTimeout = 30 * time.Millisecond

// EchoToCentimetres converts an echo pulse width to the nearest whole
// centimetre. Sound covers one centimetre in about 29.1µs and the pulse
// is the round trip.
func EchoToCentimetres(pulse time.Duration) int {
	us := float32(pulse.Microseconds())
	return int(math32.Round(us / 2 / 29.1))
}

// BargraphSegments is the LED count of the bargraph; the shift register
// chain is 32 bits wide.
const BargraphSegments = 30

// bargraphFrame returns the shift register word that lights n segments,
// counting down from the top segment so the green end fills first.
func bargraphFrame(n int) uint32 {
	if n < 0 {
		n = 0
	}
	if n > BargraphSegments {
		n = BargraphSegments
	}
	var frame uint32
	for i := BargraphSegments - 1; i >= BargraphSegments-n; i-- {
		frame |= 1 << uint(i)
	}
	return frame
}
