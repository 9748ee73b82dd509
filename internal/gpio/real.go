//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// RealRGB drives a common-cathode RGB LED on three output lines.
type RealRGB struct {
	lines *gpiocdev.Lines
}

// NewRealRGB requests the three lines as outputs, initially off.
func NewRealRGB(chip string, red, green, blue int) (*RealRGB, error) {
	lines, err := gpiocdev.RequestLines(chip, []int{red, green, blue}, gpiocdev.AsOutput(0, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("request rgb pins %d/%d/%d: %w", red, green, blue, err)
	}
	return &RealRGB{lines: lines}, nil
}

// SetRGB sets each channel.
func (r *RealRGB) SetRGB(red, green, blue bool) error {
	if err := r.lines.SetValues([]int{bit(red), bit(green), bit(blue)}); err != nil {
		return fmt.Errorf("set rgb: %w", err)
	}
	return nil
}

// Close turns the LED off and releases the lines.
func (r *RealRGB) Close() error {
	var errs []error
	if err := r.lines.SetValues([]int{0, 0, 0}); err != nil {
		errs = append(errs, fmt.Errorf("rgb off: %w", err))
	}
	if err := r.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close rgb pins: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealBargraph bit-bangs the bargraph's shift register chain.
type RealBargraph struct {
	lines *gpiocdev.Lines
}

// NewRealBargraph requests SIN, CLK and LAT as outputs.
func NewRealBargraph(chip string, sin, clk, lat int) (*RealBargraph, error) {
	lines, err := gpiocdev.RequestLines(chip, []int{sin, clk, lat}, gpiocdev.AsOutput(0, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("request bargraph pins %d/%d/%d: %w", sin, clk, lat, err)
	}
	return &RealBargraph{lines: lines}, nil
}

// Fill lights the first n segments.
func (b *RealBargraph) Fill(n int) error {
	return b.send(bargraphFrame(n))
}

func (b *RealBargraph) send(frame uint32) error {
	for i := 31; i >= 0; i-- {
		v := int(frame>>uint(i)) & 1
		if err := b.lines.SetValues([]int{v, 0, 0}); err != nil {
			return fmt.Errorf("bargraph data: %w", err)
		}
		if err := b.lines.SetValues([]int{v, 1, 0}); err != nil {
			return fmt.Errorf("bargraph clock: %w", err)
		}
	}
	if err := b.lines.SetValues([]int{0, 0, 1}); err != nil {
		return fmt.Errorf("bargraph latch: %w", err)
	}
	if err := b.lines.SetValues([]int{0, 0, 0}); err != nil {
		return fmt.Errorf("bargraph latch: %w", err)
	}
	return nil
}

// Close clears the display and releases the lines.
func (b *RealBargraph) Close() error {
	var errs []error
	if err := b.send(0); err != nil {
		errs = append(errs, err)
	}
	if err := b.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bargraph pins: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealRanger times ultrasonic echoes using kernel edge timestamps.
type RealRanger struct {
	trig   *gpiocdev.Line
	echo   *gpiocdev.Line
	events chan gpiocdev.LineEvent
}

// NewRealRanger requests the trigger as output and the echo as an input
// with both-edge events.
func NewRealRanger(chip string, trigPin, echoPin int) (*RealRanger, error) {
	r := &RealRanger{events: make(chan gpiocdev.LineEvent, 8)}

	trig, err := gpiocdev.RequestLine(chip, trigPin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request trig pin %d: %w", trigPin, err)
	}

	echo, err := gpiocdev.RequestLine(chip, echoPin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(r.handle))
	if err != nil {
		trig.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", echoPin, err)
	}

	r.trig = trig
	r.echo = echo
	return r, nil
}

func (r *RealRanger) handle(evt gpiocdev.LineEvent) {
	select {
	case r.events <- evt:
	default:
	}
}

// Measure fires one 10µs trigger pulse and times the echo.
func (r *RealRanger) Measure() (int, error) {
	for len(r.events) > 0 {
		<-r.events
	}

	if err := r.trig.SetValue(1); err != nil {
		return 0, fmt.Errorf("trigger high: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := r.trig.SetValue(0); err != nil {
		return 0, fmt.Errorf("trigger low: %w", err)
	}

	timeout := time.NewTimer(EchoTimeout)
	defer timeout.Stop()

	var rise time.Duration
	rising := false
	for {
		select {
		case evt := <-r.events:
			switch evt.Type {
			case gpiocdev.LineEventRisingEdge:
				rise = evt.Timestamp
				rising = true
			case gpiocdev.LineEventFallingEdge:
				if rising {
					return EchoToCentimetres(evt.Timestamp - rise), nil
				}
			}
		case <-timeout.C:
			return 0, fmt.Errorf("no echo within %v: %w", EchoTimeout, logic.ErrSensorNotReady)
		}
	}
}

// Close releases GPIO resources.
// Leaves the trigger low and the echo as a pulled-down input.
func (r *RealRanger) Close() error {
	var errs []error
	if r.trig != nil {
		if err := r.trig.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure trig pin: %w", err))
		}
		if err := r.trig.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trig pin: %w", err))
		}
	}
	if r.echo != nil {
		if err := r.echo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close echo pin: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
