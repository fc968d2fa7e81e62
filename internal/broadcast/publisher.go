package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange carrying every panel and staff
// update.  Panels bind "panel.<queueID>", staff views "staff.<sectorID>".
const ExchangeName = "attendance.updates"

// PanelRoutingKey returns the routing key for one queue's panel topic.
func PanelRoutingKey(queueID uint64) string { return fmt.Sprintf("panel.%d", queueID) }

// StaffRoutingKey returns the routing key for one sector's staff topic.
func StaffRoutingKey(sectorID uint64) string { return fmt.Sprintf("staff.%d", sectorID) }

// Publisher delivers update payloads to RabbitMQ.  Delivery is
// fire-and-forget: errors are logged and returned but subscribers that
// are offline simply miss the update and catch up on the next one.
// The connection is dialed lazily and dropped on publish failure so
// the next publish re-dials.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the given AMQP URL.  No
// connection is made until the first publish.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishPanel publishes a panel update on the queue's panel topic.
func (p *Publisher) PublishPanel(ctx context.Context, queueID uint64, u PanelUpdate) error {
	return p.publish(ctx, PanelRoutingKey(queueID), u)
}

// PublishStaff publishes a staff update on the sector's staff topic.
func (p *Publisher) PublishStaff(ctx context.Context, sectorID uint64, u StaffUpdate) error {
	return p.publish(ctx, StaffRoutingKey(sectorID), u)
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("broadcast: marshal payload failed: %v", err)
		return err
	}
	ch, err := p.channel()
	if err != nil {
		log.Printf("broadcast: channel unavailable: %v", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, ExchangeName, key, false, false, pub); err != nil {
		log.Printf("broadcast: publish %s failed: %v", key, err)
		p.drop()
		return err
	}
	return nil
}

// channel returns the cached channel, dialing the broker and declaring
// the exchange when needed.
func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// drop discards the cached connection after a failure.
func (p *Publisher) drop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() { p.drop() }
