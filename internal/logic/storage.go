package logic

import (
	"errors"
	"fmt"
)

// Control is the persisted storage mode.
type Control byte

const (
	ControlRead  Control = 0
	ControlWrite Control = 1
)

func (c Control) String() string {
	switch c {
	case ControlRead:
		return "READ"
	case ControlWrite:
		return "WRITE"
	}
	return fmt.Sprintf("Control(%d)", byte(c))
}

// metaSize is the cursor (two bytes) plus the control byte.
const metaSize = 3

// StoreSize returns the store size needed for a log of the given capacity.
func StoreSize(capacity int) int {
	return capacity + metaSize
}

// Log is a bounded sample log on non-volatile memory.
//
// Layout: samples at [0, capacity), cursor as big-endian uint16 at
// capacity, control byte at capacity+2. Once the cursor reaches capacity
// the log flips to READ and refuses appends until Drain or Reset.
type Log struct {
	store    Store
	capacity int
	cursor   int
	control  Control
	// delivered is set once the host has taken the dump and cleared by
	// a successful Reset.
	delivered bool
}

// OpenLog loads log state from store. Fresh or corrupt media (unknown
// control byte, cursor past capacity) is reset.
func OpenLog(store Store, capacity int) (*Log, error) {
	if capacity < 1 || capacity > 1<<16-1 {
		return nil, fmt.Errorf("log capacity %d out of range", capacity)
	}
	if store.Size() < StoreSize(capacity) {
		return nil, fmt.Errorf("store size %d too small for capacity %d (need %d)", store.Size(), capacity, StoreSize(capacity))
	}

	l := &Log{store: store, capacity: capacity}

	hi, err := store.ReadAddr(capacity)
	if err != nil {
		return nil, fmt.Errorf("read cursor: %w", err)
	}
	lo, err := store.ReadAddr(capacity + 1)
	if err != nil {
		return nil, fmt.Errorf("read cursor: %w", err)
	}
	ctl, err := store.ReadAddr(capacity + 2)
	if err != nil {
		return nil, fmt.Errorf("read control: %w", err)
	}

	cursor := int(hi)<<8 | int(lo)
	control := Control(ctl)
	switch {
	case control == ControlWrite && cursor < capacity,
		control == ControlRead && cursor == capacity:
		l.cursor = cursor
		l.control = control
	case control == ControlWrite && cursor == capacity:
		// Power was lost between the last sample and the control flip.
		l.cursor = cursor
		if err := l.writeControl(ControlRead); err != nil {
			return nil, err
		}
	default:
		if err := l.Reset(); err != nil {
			return nil, fmt.Errorf("initialize log: %w", err)
		}
	}
	return l, nil
}

// Capacity returns the number of sample slots.
func (l *Log) Capacity() int { return l.capacity }

// Cursor returns the next write address.
func (l *Log) Cursor() int { return l.cursor }

// Control returns the current mode.
func (l *Log) Control() Control { return l.control }

// Full reports whether the log is waiting to be drained.
func (l *Log) Full() bool { return l.control == ControlRead }

// Append writes v at the cursor. Returns ErrStorageFull in READ state.
func (l *Log) Append(v byte) error {
	if l.control == ControlRead {
		return ErrStorageFull
	}
	if err := l.store.WriteAddr(l.cursor, v); err != nil {
		return fmt.Errorf("write sample at %d: %w", l.cursor, err)
	}
	next := l.cursor + 1
	if err := l.writeCursor(next); err != nil {
		return err
	}
	l.cursor = next
	if l.cursor == l.capacity {
		if err := l.writeControl(ControlRead); err != nil {
			return err
		}
	}
	return nil
}

// Samples returns every stored sample in address order.
func (l *Log) Samples() ([]byte, error) {
	out := make([]byte, l.cursor)
	for i := range out {
		v, err := l.store.ReadAddr(i)
		if err != nil {
			return nil, fmt.Errorf("read sample at %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Drain hands every stored sample to host and then resets the log.
// It is single-shot and never waits: without a ready host it returns
// ErrHostNotReady. If the host fails to take the dump the log is left
// untouched and ErrDrainAborted is returned. Once the host has the dump
// it is never offered again; a failed reset is retried on the next
// drain without contacting the host.
func (l *Log) Drain(host Host) error {
	if !l.delivered {
		if host == nil || !host.Ready() {
			return ErrHostNotReady
		}
		samples, err := l.Samples()
		if err != nil {
			return err
		}
		if err := host.Receive(samples); err != nil {
			if errors.Is(err, ErrHostBusy) {
				return ErrHostBusy
			}
			return errors.Join(ErrDrainAborted, err)
		}
		l.delivered = true
	}
	if err := l.Reset(); err != nil {
		return fmt.Errorf("reset after delivery: %w", err)
	}
	return nil
}

// Delivered reports whether the host has the current dump but the log
// has not been reset yet.
func (l *Log) Delivered() bool { return l.delivered }

// Reset zeroes every sample slot, moves the cursor to 0 and sets WRITE.
// This is the only way out of READ.
func (l *Log) Reset() error {
	for i := 0; i < l.capacity; i++ {
		if err := l.store.WriteAddr(i, 0); err != nil {
			return fmt.Errorf("clear address %d: %w", i, err)
		}
	}
	if err := l.writeCursor(0); err != nil {
		return err
	}
	if err := l.writeControl(ControlWrite); err != nil {
		return err
	}
	l.cursor = 0
	l.delivered = false
	return nil
}

func (l *Log) writeCursor(c int) error {
	if err := l.store.WriteAddr(l.capacity, byte(c>>8)); err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}
	if err := l.store.WriteAddr(l.capacity+1, byte(c)); err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}
	return nil
}

func (l *Log) writeControl(c Control) error {
	if err := l.store.WriteAddr(l.capacity+2, byte(c)); err != nil {
		return fmt.Errorf("write control: %w", err)
	}
	l.control = c
	return nil
}
