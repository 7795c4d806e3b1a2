package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends a message to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

// Publish logs and discards v.
func (NopPublisher) Publish(_ context.Context, queue string, _ any) error {
	slog.Debug("notification dropped, no broker configured", "queue", queue)
	return nil
}

// AMQPPublisher publishes persistent JSON messages to durable queues on the
// default exchange. The connection is reopened on the next publish after a
// failure.
type AMQPPublisher struct {
	url    string
	queues []string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials url and declares the given queues.
func NewAMQPPublisher(url string, queues ...string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, queues: queues}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	for _, q := range p.queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}
	p.conn, p.ch = conn, ch
	return nil
}

// Publish marshals v and sends it to queue.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, v any) error {
	msg, err := encode(v, time.Now().UTC())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		_ = p.ch.Close()
		p.ch = nil
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func encode(v any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal notification: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}
