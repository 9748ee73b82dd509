// Package mqtt provides MQTT publishing with abstraction for testing.
// The broker connection doubles as the host link: samples drained from the
// storage log are published as one dump message.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/sensational-toy/internal/logic"
)

// Topic is the MQTT topic for alarm events.
const Topic = "toy/sensational/alarms"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "toy/sensational/system"

// TopicDump is the MQTT topic drained sample logs are published to.
const TopicDump = "toy/sensational/dump"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an alarm event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event AlarmEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// PublishDump queues a drained sample log and returns without
	// waiting. The Ack completes once the broker has the message.
	PublishDump(dump Dump) (Ack, error)

	// Close disconnects from the broker.
	Close() error
}

// Ack completes when the broker acknowledges a publish. paho.Token
// satisfies it.
type Ack interface {
	Done() <-chan struct{}
	Error() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// AlarmEvent is an alarm that took the sound lock.
type AlarmEvent struct {
	Timestamp time.Time
	Alarm     logic.Alarm
	Value     int
	Threshold int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "STORAGE_FULL"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Dump is the full content of a drained storage log.
type Dump struct {
	Timestamp time.Time
	Capacity  int
	Samples   []byte
}

// Payload represents the MQTT message payload for alarms.
type Payload struct {
	Alarm AlarmPayload `json:"alarm"`
}

// AlarmPayload contains the alarm details.
type AlarmPayload struct {
	Timestamp string `json:"timestamp"`
	Alarm     string `json:"alarm"`
	Value     int    `json:"value"`
	Threshold int    `json:"threshold"`
}

// FormatPayload creates the JSON payload for an alarm event.
func FormatPayload(event AlarmEvent) ([]byte, error) {
	payload := Payload{
		Alarm: AlarmPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Alarm:     string(event.Alarm),
			Value:     event.Value,
			Threshold: event.Threshold,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, STORAGE_FULL) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// DumpPayload is the JSON envelope for a drained log.
type DumpPayload struct {
	Dump DumpInner `json:"dump"`
}

// DumpInner lists samples in address order.
type DumpInner struct {
	Timestamp string `json:"timestamp"`
	Capacity  int    `json:"capacity"`
	Count     int    `json:"count"`
	Samples   []int  `json:"samples"`
}

// FormatDumpPayload creates the JSON payload for a dump. Samples are
// written as numbers, not base64.
func FormatDumpPayload(dump Dump) ([]byte, error) {
	samples := make([]int, len(dump.Samples))
	for i, v := range dump.Samples {
		samples[i] = int(v)
	}
	return json.Marshal(DumpPayload{Dump: DumpInner{
		Timestamp: dump.Timestamp.UTC().Format(time.RFC3339),
		Capacity:  dump.Capacity,
		Count:     len(samples),
		Samples:   samples,
	}})
}
