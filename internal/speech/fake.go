package speech

// FakeLine records writes for test assertions.
type FakeLine struct {
	// Writes contains every byte sequence written, in order.
	Writes [][]byte

	// WriteError, if set, will be returned by Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLine creates a FakeLine.
func NewFakeLine() *FakeLine {
	return &FakeLine{}
}

// Write records p.
func (f *FakeLine) Write(p []byte) (int, error) {
	if f.WriteError != nil {
		return 0, f.WriteError
	}
	f.Writes = append(f.Writes, append([]byte(nil), p...))
	return len(p), nil
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeLine) Reset() {
	f.Writes = nil
	f.WriteError = nil
	f.Closed = false
}
