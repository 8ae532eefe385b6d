package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cwbudde/pixelsculpt/internal/sculpt"
)

// ListenerConfig holds the broker connection and topics.
type ListenerConfig struct {
	Broker      string
	Port        int
	ClientID    string
	SourceTopic string
	ResultTopic string
	QoS         byte

	// QueueSize bounds messages waiting for the processor (default 4).
	QueueSize int
}

// Listener subscribes to the source topic, runs each message through a
// Processor and publishes accepted results to the result topic. Messages are
// processed one at a time in arrival order.
type Listener struct {
	cfg       ListenerConfig
	processor *Processor
	client    mqtt.Client
	queue     chan []byte
	publish   func(payload []byte) error
}

// NewListener creates a listener. No connection is made until Run.
func NewListener(cfg ListenerConfig, processor *Processor) *Listener {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4
	}
	l := &Listener{
		cfg:       cfg,
		processor: processor,
		queue:     make(chan []byte, cfg.QueueSize),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(l.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("MQTT connection lost", "error", err)
		})
	l.client = mqtt.NewClient(opts)
	l.publish = l.publishMQTT
	return l
}

// Run connects to the broker and processes messages until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	token := l.client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return fmt.Errorf("timed out connecting to %s:%d", l.cfg.Broker, l.cfg.Port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer l.client.Disconnect(250)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Listener stopping")
			return nil
		case payload := <-l.queue:
			l.process(ctx, payload)
		}
	}
}

// onConnect subscribes on every (re)connect so the subscription survives
// broker restarts.
func (l *Listener) onConnect(client mqtt.Client) {
	slog.Info("MQTT connected", "broker", l.cfg.Broker, "topic", l.cfg.SourceTopic)
	token := client.Subscribe(l.cfg.SourceTopic, l.cfg.QoS, l.onMessage)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			slog.Error("Failed to subscribe", "topic", l.cfg.SourceTopic, "error", err)
		}
	}()
}

func (l *Listener) onMessage(_ mqtt.Client, msg mqtt.Message) {
	l.enqueue(msg.Payload())
}

// enqueue hands a payload to the processing loop, dropping it when the
// queue is full.
func (l *Listener) enqueue(payload []byte) bool {
	select {
	case l.queue <- payload:
		return true
	default:
		slog.Warn("Processing queue full, dropping message", "bytes", len(payload))
		return false
	}
}

func (l *Listener) process(ctx context.Context, payload []byte) {
	out, result, err := l.processor.Handle(ctx, payload)
	if errors.Is(err, sculpt.ErrQualityRejected) {
		slog.Warn("Result withheld", "ssim", result.Score(), "error", err)
		return
	}
	if err != nil {
		slog.Error("Failed to process message", "error", err)
		return
	}

	if err := l.publish(out); err != nil {
		slog.Error("Failed to publish result", "topic", l.cfg.ResultTopic, "error", err)
		return
	}
	slog.Info("Transformed image published", "topic", l.cfg.ResultTopic, "ssim", result.Score(), "bytes", len(out))
}

func (l *Listener) publishMQTT(payload []byte) error {
	token := l.client.Publish(l.cfg.ResultTopic, l.cfg.QoS, false, payload)
	token.Wait()
	return token.Error()
}
