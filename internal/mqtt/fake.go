package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events contains all alarm events that were published.
	Events []AlarmEvent

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// Dumps contains every drained log that was published.
	Dumps []Dump

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// PublishDumpError, if set, will be returned by PublishDump.
	PublishDumpError error

	// DumpAckError, if set, completes every dump Ack with this error.
	DumpAckError error

	// HoldAcks leaves dump Acks open until the test completes them.
	HoldAcks bool

	// Acks contains the Ack handed out for each dump.
	Acks []*FakeAck

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the alarm event.
func (f *FakePublisher) Publish(event AlarmEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// PublishDump records the dump. The returned Ack is already complete
// unless HoldAcks is set.
func (f *FakePublisher) PublishDump(dump Dump) (Ack, error) {
	if f.PublishDumpError != nil {
		return nil, f.PublishDumpError
	}
	dump.Samples = append([]byte(nil), dump.Samples...)
	f.Dumps = append(f.Dumps, dump)

	ack := &FakeAck{done: make(chan struct{})}
	f.Acks = append(f.Acks, ack)
	if !f.HoldAcks {
		ack.Complete(f.DumpAckError)
	}
	return ack, nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}

// FakeAck is an Ack completed by hand.
type FakeAck struct {
	done chan struct{}
	err  error
}

// Complete acknowledges the publish, or fails it when err is non-nil.
func (a *FakeAck) Complete(err error) {
	a.err = err
	close(a.done)
}

func (a *FakeAck) Done() <-chan struct{} { return a.done }

func (a *FakeAck) Error() error { return a.err }
