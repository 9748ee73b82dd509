package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Options configure the broker connection.
type Options struct {
	Broker     string
	ClientID   string
	Username   string
	Password   string
	BufferSize int // alarm events kept while offline; 0 disables buffering
}

// RealPublisher publishes to an actual MQTT broker. Alarm events published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *zap.Logger

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(o Options, log *zap.Logger) (*RealPublisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if o.ClientID == "" {
		o.ClientID = "sensational-toy"
	}
	p := &RealPublisher{log: log.With(zap.String("component", "mqtt"))}
	if o.BufferSize > 0 {
		p.buffer = newRingBuffer(o.BufferSize, p.log)
	}

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.flush() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn("connection lost", zap.Error(err))
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// Connect keeps retrying in the background; the toy runs offline
		// until the broker shows up.
		p.log.Warn("broker not reachable yet", zap.String("broker", o.Broker))
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends an alarm event to the MQTT broker.
func (p *RealPublisher) Publish(event AlarmEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	msg := bufferedMsg{topic: Topic, payload: payload}
	if p.buffer != nil {
		// flush drains under the same lock after the connection opens, so
		// anything pushed here is either replayed or sent directly.
		p.mu.Lock()
		if !p.IsConnected() {
			p.buffer.push(msg)
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
	}
	return p.send(msg, 5*time.Second)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) so lifecycle events are not lost
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}, 5*time.Second)
}

// PublishDump queues a drained log at QoS 1. The returned token completes
// on the broker's acknowledgement; the tick loop never waits on it.
func (p *RealPublisher) PublishDump(dump Dump) (Ack, error) {
	payload, err := FormatDumpPayload(dump)
	if err != nil {
		return nil, fmt.Errorf("format dump payload: %w", err)
	}
	if !p.IsConnected() {
		return nil, errors.New("not connected")
	}
	return p.client.Publish(TopicDump, 1, false, payload), nil
}

func (p *RealPublisher) send(m bufferedMsg, timeout time.Duration) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// flush replays buffered alarm events after a (re)connect.
func (p *RealPublisher) flush() {
	if p.buffer == nil {
		return
	}
	p.mu.Lock()
	msgs, dropped := p.buffer.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	p.log.Info("replaying buffered alarms", zap.Int("count", len(msgs)), zap.Int("dropped", dropped))
	// Publish without waiting: this runs on the paho callback goroutine.
	for _, m := range msgs {
		p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// Buffered returns how many alarm events are waiting for a connection.
func (p *RealPublisher) Buffered() int {
	if p.buffer == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
