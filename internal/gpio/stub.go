//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealRGB is not available on non-Linux platforms.
type RealRGB struct{}

// NewRealRGB returns an error on non-Linux platforms.
func NewRealRGB(chip string, red, green, blue int) (*RealRGB, error) {
	return nil, errUnsupported
}

// SetRGB is not implemented on non-Linux platforms.
func (r *RealRGB) SetRGB(red, green, blue bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealRGB) Close() error { return nil }

// RealBargraph is not available on non-Linux platforms.
type RealBargraph struct{}

// NewRealBargraph returns an error on non-Linux platforms.
func NewRealBargraph(chip string, sin, clk, lat int) (*RealBargraph, error) {
	return nil, errUnsupported
}

// Fill is not implemented on non-Linux platforms.
func (b *RealBargraph) Fill(n int) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (b *RealBargraph) Close() error { return nil }

// RealRanger is not available on non-Linux platforms.
type RealRanger struct{}

// NewRealRanger returns an error on non-Linux platforms.
func NewRealRanger(chip string, trigPin, echoPin int) (*RealRanger, error) {
	return nil, errUnsupported
}

// Measure is not implemented on non-Linux platforms.
func (r *RealRanger) Measure() (int, error) { return 0, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealRanger) Close() error { return nil }
