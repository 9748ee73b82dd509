package mqtt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// DumpAckTimeout is how long a dump may stay unacknowledged before it
// is given up and published again.
const DumpAckTimeout = 30 * time.Second

// HostLink presents the broker connection as the storage log's host.
// It is ready while the connection is up and receives a drain by
// publishing one dump message. Receive never waits for the broker: until
// the dump is acknowledged it reports logic.ErrHostBusy and the log stays
// full.
type HostLink struct {
	publisher  Publisher
	status     ConnectionStatus
	capacity   int
	now        func() time.Time
	ackTimeout time.Duration

	pending *pendingDump
}

type pendingDump struct {
	ack     Ack
	samples []byte
	sent    time.Time
}

// NewHostLink creates a host link. now may be nil.
func NewHostLink(p Publisher, status ConnectionStatus, capacity int, now func() time.Time) *HostLink {
	if now == nil {
		now = time.Now
	}
	return &HostLink{
		publisher:  p,
		status:     status,
		capacity:   capacity,
		now:        now,
		ackTimeout: DumpAckTimeout,
	}
}

// Ready reports whether the broker connection is up.
func (h *HostLink) Ready() bool {
	return h.status != nil && h.status.IsConnected()
}

// Pending reports whether a dump is waiting for the broker's ack.
func (h *HostLink) Pending() bool { return h.pending != nil }

// Receive publishes samples as a dump, or checks on the dump already in
// flight for the same samples.
func (h *HostLink) Receive(samples []byte) error {
	if !h.Ready() {
		return fmt.Errorf("broker connection lost")
	}
	if h.pending == nil || !bytes.Equal(h.pending.samples, samples) {
		at := h.now()
		ack, err := h.publisher.PublishDump(Dump{
			Timestamp: at,
			Capacity:  h.capacity,
			Samples:   samples,
		})
		if err != nil {
			h.pending = nil
			return fmt.Errorf("publish dump: %w", err)
		}
		h.pending = &pendingDump{
			ack:     ack,
			samples: append([]byte(nil), samples...),
			sent:    at,
		}
	}
	return h.settle()
}

func (h *HostLink) settle() error {
	p := h.pending
	select {
	case <-p.ack.Done():
		h.pending = nil
		if err := p.ack.Error(); err != nil {
			return fmt.Errorf("publish dump: %w", err)
		}
		return nil
	default:
	}
	if h.now().Sub(p.sent) >= h.ackTimeout {
		h.pending = nil
		return fmt.Errorf("dump not acknowledged within %s", h.ackTimeout)
	}
	return logic.ErrHostBusy
}
