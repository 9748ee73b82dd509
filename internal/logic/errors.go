package logic

// Error is a stable, comparable error identifier for conditions the device
// handles as explicit state rather than as failures.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrSensorNotReady means a sensor had no fresh value this tick.
	// The last known reading is carried forward.
	ErrSensorNotReady Error = "sensor not ready"

	// ErrStorageFull means the log is in READ state and refuses appends
	// until it has been drained and reset.
	ErrStorageFull Error = "storage full"

	// ErrInvalidDelay means a delay derived to zero ticks (or a
	// non-positive tick period). Rejected at configuration time.
	ErrInvalidDelay Error = "invalid delay configuration"

	// ErrDrainAborted means the host went away during a drain. The log
	// is left exactly as it was before the drain started.
	ErrDrainAborted Error = "drain aborted"

	// ErrHostNotReady means no host is attached; drain was not attempted.
	ErrHostNotReady Error = "host not ready"

	// ErrHostBusy means the host accepted a dump but has not confirmed
	// it yet. The log is untouched and the drain is retried next tick.
	ErrHostBusy Error = "host busy"
)
