package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/brewer/internal/appliance"
	"github.com/sweeney/brewer/internal/config"
	"github.com/sweeney/brewer/internal/logging"
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the broker is unreachable are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topics Topics
	keys   KeySink
	log    *logging.Logger

	mu            sync.Mutex
	buf           *ringBuffer
	everConnected bool
}

// NewRealPublisher creates a publisher for cfg.Broker and starts connecting
// in the background. Remote keys received on the broker go to keys.
func NewRealPublisher(cfg config.MQTTConfig, keys KeySink, log *logging.Logger) *RealPublisher {
	p := &RealPublisher{
		topics: TopicsFor(cfg.TopicPrefix),
		keys:   keys,
		log:    log.With("component", "mqtt"),
	}
	if cfg.BufferSize > 0 {
		p.buf = newRingBuffer(cfg.BufferSize)
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(p.topics.System, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn("connection lost", "error", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	p.log.Info("connecting", "broker", cfg.Broker, "prefix", cfg.TopicPrefix)
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	token := c.Subscribe(p.topics.RemoteKey, 1, func(_ paho.Client, msg paho.Message) {
		p.deliverKey(msg.Payload())
	})
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		p.log.Error("subscribe failed", "topic", p.topics.RemoteKey, "error", token.Error())
	}

	p.mu.Lock()
	reconnect := p.everConnected
	p.everConnected = true
	var pending []bufferedMsg
	var dropped int
	if p.buf != nil {
		pending, dropped = p.buf.drainAll()
	}
	p.mu.Unlock()

	p.log.Info("connected", "reconnect", reconnect, "buffered", len(pending), "dropped", dropped)
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.log.Error("replay failed", "topic", m.topic, "error", err)
		}
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.send(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: true}); err != nil {
			p.log.Error("publish reconnected failed", "error", err)
		}
	}
}

// deliverKey forwards a remote key message to the key sink.
func (p *RealPublisher) deliverKey(payload []byte) {
	k, ok := ParseKeyPayload(payload)
	if !ok {
		p.log.Warn("unknown remote key", "payload", string(payload))
		return
	}
	p.log.Debug("remote key", "key", k)
	p.keys.Put(k)
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// publish sends m now, or buffers it while the broker is unreachable.
func (p *RealPublisher) publish(m bufferedMsg) error {
	if p.client.IsConnectionOpen() {
		return p.send(m)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.buf == nil {
		return ErrNotConnected
	}
	if p.buf.push(m) {
		p.log.Warn("buffer full, dropping oldest", "capacity", p.buf.capacity)
	}
	return nil
}

// Publish sends an appliance event to the MQTT broker.
func (p *RealPublisher) Publish(event appliance.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: p.topics.Events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
