package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/sensational-toy/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := AlarmEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Alarm:     logic.AlarmHumidity,
		Value:     41,
		Threshold: 40,
	}

	payload, err := FormatPayload(event)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"alarm":{"timestamp":"2026-02-03T10:30:45Z","alarm":"HUMIDITY","value":41,"threshold":40}}`,
		string(payload))
}

func TestFormatPayloadAllAlarms(t *testing.T) {
	for _, a := range []logic.Alarm{logic.AlarmHumidity, logic.AlarmRange, logic.AlarmGas} {
		t.Run(string(a), func(t *testing.T) {
			payload, err := FormatPayload(AlarmEvent{Timestamp: time.Now(), Alarm: a})
			require.NoError(t, err)

			var parsed Payload
			require.NoError(t, json.Unmarshal(payload, &parsed))
			assert.Equal(t, string(a), parsed.Alarm.Alarm)
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skip("timezone data not available")
	}

	event := AlarmEvent{
		Timestamp: time.Date(2026, 7, 1, 12, 0, 0, 0, london),
		Alarm:     logic.AlarmRange,
	}
	payload, err := FormatPayload(event)
	require.NoError(t, err)

	var parsed Payload
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, "2026-07-01T11:00:00Z", parsed.Alarm.Timestamp)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "toy/sensational/alarms", Topic)
	assert.Equal(t, "toy/sensational/system", TopicSystem)
	assert.Equal(t, "toy/sensational/dump", TopicDump)
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	require.NoError(t, err)
	assert.Equal(t,
		`{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		string(payload))
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "STORAGE_FULL",
	})
	require.NoError(t, err)

	var parsed map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &parsed))
	_, exists := parsed["system"]["reason"]
	assert.False(t, exists, "reason should be omitted")
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"system":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	require.NoError(t, err)
	assert.Equal(t, raw, payload)
}

func TestFormatDumpPayload(t *testing.T) {
	dump := Dump{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Capacity:  4,
		Samples:   []byte{40, 41, 255, 0},
	}

	payload, err := FormatDumpPayload(dump)
	require.NoError(t, err)
	assert.Equal(t,
		`{"dump":{"timestamp":"2026-02-03T10:30:45Z","capacity":4,"count":4,"samples":[40,41,255,0]}}`,
		string(payload))
}

func TestFormatDumpPayloadEmpty(t *testing.T) {
	payload, err := FormatDumpPayload(Dump{Capacity: 3})
	require.NoError(t, err)

	var parsed DumpPayload
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, 0, parsed.Dump.Count)
	assert.NotNil(t, parsed.Dump.Samples)
	assert.Contains(t, string(payload), `"samples":[]`)
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	require.NoError(t, f.Publish(AlarmEvent{Timestamp: time.Now(), Alarm: logic.AlarmGas, Value: 300, Threshold: 250}))
	require.Len(t, f.Events, 1)
	require.Len(t, f.Payloads, 1)
	assert.Equal(t, logic.AlarmGas, f.Events[0].Alarm)
	assert.Contains(t, string(f.Payloads[0]), `"alarm":"GAS"`)
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("alarm down")
	f.PublishSystemError = errors.New("system down")
	f.PublishDumpError = errors.New("dump down")

	assert.EqualError(t, f.Publish(AlarmEvent{}), "alarm down")
	assert.EqualError(t, f.PublishSystem(SystemEvent{}), "system down")
	_, err := f.PublishDump(Dump{})
	assert.EqualError(t, err, "dump down")
	assert.Empty(t, f.Events)
	assert.Empty(t, f.SystemEvents)
	assert.Empty(t, f.Dumps)
}

func TestFakePublisherDumpCopiesSamples(t *testing.T) {
	f := NewFakePublisher()
	samples := []byte{1, 2, 3}

	ack, err := f.PublishDump(Dump{Capacity: 3, Samples: samples})
	require.NoError(t, err)
	samples[0] = 99

	select {
	case <-ack.Done():
	default:
		t.Fatal("ack not complete")
	}
	assert.NoError(t, ack.Error())

	require.Len(t, f.Dumps, 1)
	assert.Equal(t, []byte{1, 2, 3}, f.Dumps[0].Samples)
}

func TestFakePublisherResetAndClose(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	require.NoError(t, f.Publish(AlarmEvent{Alarm: logic.AlarmRange}))
	require.NoError(t, f.PublishSystem(SystemEvent{Event: "STARTUP"}))
	_, err := f.PublishDump(Dump{})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.True(t, f.Closed)

	f.Reset()

	assert.Empty(t, f.Events)
	assert.Empty(t, f.SystemEvents)
	assert.Empty(t, f.SystemPayloads)
	assert.Empty(t, f.Dumps)
	assert.Empty(t, f.Acks)
	assert.False(t, f.Closed)
	assert.False(t, f.IsConnected())
}
