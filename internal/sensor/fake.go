package sensor

import (
	"errors"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// NotReady is a FakeChannel script entry that simulates a missed reading.
const NotReady = -1 << 31

// FakeChannel returns scripted values.
type FakeChannel struct {
	// Values contains scripted readings; NotReady entries fail with
	// logic.ErrSensorNotReady. Each Read consumes the next entry.
	Values []int

	index int

	// ReadError, if set, will be returned by Read.
	ReadError error
}

// NewFakeChannel creates a FakeChannel with the given values.
func NewFakeChannel(values ...int) *FakeChannel {
	return &FakeChannel{Values: values}
}

// Read returns the next scripted value.
// If values are exhausted, returns the last value repeatedly.
func (f *FakeChannel) Read() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	if v == NotReady {
		return 0, logic.ErrSensorNotReady
	}
	return v, nil
}

// Reset rewinds the script.
func (f *FakeChannel) Reset() {
	f.index = 0
}
