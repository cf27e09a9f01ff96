package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// Publisher publishes a message body to an exchange.
type Publisher interface {
	Publish(exchange string, body []byte) error
}

// AMQPPublisher publishes to a RabbitMQ fanout exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
}

// NewAMQPPublisher connects to RabbitMQ.
func NewAMQPPublisher(amqpURL string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, declared: make(map[string]bool)}, nil
}

// Publish implements Publisher. The exchange is declared once as a durable
// fanout exchange.
func (p *AMQPPublisher) Publish(exchange string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[exchange] {
		if err := p.channel.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		p.declared[exchange] = true
	}
	return p.channel.Publish(exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			slog.Warn("failed to close amqp channel", "error", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			slog.Warn("failed to close amqp connection", "error", err)
		}
	}
}

// Bus publishes alerts as JSON events for downstream consumers such as a
// ticketing integration.
type Bus struct {
	publisher Publisher
	exchange  string
}

// NewBus creates a sink that publishes alerts to exchange.
func NewBus(publisher Publisher, exchange string) *Bus {
	if exchange == "" {
		exchange = "chatbot.escalations"
	}
	return &Bus{publisher: publisher, exchange: exchange}
}

// Notify implements Sink. The publish itself is not context aware; ctx is
// only checked before publishing.
func (b *Bus) Notify(ctx context.Context, alert domain.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := b.publisher.Publish(b.exchange, body); err != nil {
		return fmt.Errorf("publish alert to %s: %w", b.exchange, err)
	}
	return nil
}
