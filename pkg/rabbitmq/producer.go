/**
 * @description
 * This package provides a producer for publishing audit events to RabbitMQ.
 * Every committed money movement and admin deactivation is mirrored onto a
 * durable topic exchange so that downstream consumers (reporting, alerting)
 * can observe ledger activity without querying the database.
 *
 * The transaction ledger remains the source of truth; when the broker is
 * unavailable a no-op fallback producer keeps the service operational.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// AuditExchange is the durable topic exchange all bank-service events land on.
const AuditExchange = "bank.events"

// MovementEvent is the payload published when a withdraw, deposit, or
// transfer has committed.
type MovementEvent struct {
	TransactionID uuid.UUID  `json:"transaction_id"`
	Kind          string     `json:"kind"` // withdraw, deposit, transfer
	SenderID      *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID    *uuid.UUID `json:"receiver_id,omitempty"`
	ActingAdminID *uuid.UUID `json:"acting_admin_id,omitempty"`
	Amount        int64      `json:"amount"`
	Timestamp     time.Time  `json:"timestamp"`
}

// AdminDeactivatedEvent is the payload published when an admin is deactivated.
type AdminDeactivatedEvent struct {
	AdminID      uuid.UUID `json:"admin_id"`
	PersonalCode string    `json:"personal_code"`
	Timestamp    time.Time `json:"timestamp"`
}

// amqpChannel is the subset of *amqp091.Channel the producer uses. Publishing
// goes through this interface so the reopen path can be exercised in tests.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// EventProducer holds the RabbitMQ connection and channel for publishing
// messages. The mutex serializes publishes with the channel-reopen retry, so
// concurrent handlers never observe a half-swapped channel.
type EventProducer struct {
	conn        *amqp091.Connection
	mu          sync.Mutex
	channel     amqpChannel
	openChannel func() (amqpChannel, error)
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	PublishMovementEvent(ctx context.Context, event MovementEvent) error
	PublishAdminDeactivatedEvent(ctx context.Context, event AdminDeactivatedEvent) error
	Close()
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is unavailable at startup.
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"publish skipped\" exchange=%s routing_key=%s", exchange, routingKey)
	return nil
}

func (p *EventProducerFallback) PublishMovementEvent(ctx context.Context, event MovementEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"movement event publish skipped\" transaction_id=%s kind=%s", event.TransactionID, event.Kind)
	return nil
}

func (p *EventProducerFallback) PublishAdminDeactivatedEvent(ctx context.Context, event AdminDeactivatedEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"admin deactivated event publish skipped\" admin_id=%s", event.AdminID)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{
		conn:    conn,
		channel: ch,
		openChannel: func() (amqpChannel, error) {
			fresh, err := conn.Channel()
			if err != nil {
				return nil, err
			}
			return fresh, nil
		},
	}, nil
}

// Publish sends a message to a specific exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=rabbitmq_producer msg=\"json marshal failed\" exchange=%s routing_key=%s err=%v", exchange, routingKey, err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Ensure the exchange exists (durable topic)
	if err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", exchange, err)
		if reopenErr := p.reopenChannelLocked(exchange); reopenErr != nil {
			return reopenErr
		}
	}

	err = p.channel.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		},
	)
	if err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" exchange=%s routing_key=%s err=%v", exchange, routingKey, err)
		// One-shot retry: reopen channel and try again
		if reopenErr := p.reopenChannelLocked(exchange); reopenErr == nil {
			retryErr := p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp091.Publishing{
				ContentType: "application/json",
				Timestamp:   time.Now(),
				Body:        jsonBody,
			})
			if retryErr == nil {
				return nil
			}
		}
		return err
	}
	return nil
}

// reopenChannelLocked swaps in a fresh channel and re-declares the exchange.
// Callers must hold p.mu.
func (p *EventProducer) reopenChannelLocked(exchange string) error {
	if p.openChannel == nil {
		return errors.New("no channel opener configured")
	}
	ch, err := p.openChannel()
	if err != nil {
		return err
	}
	p.channel = ch
	return p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

// PublishMovementEvent publishes a committed movement to the audit exchange.
func (p *EventProducer) PublishMovementEvent(ctx context.Context, event MovementEvent) error {
	return p.Publish(ctx, AuditExchange, "transaction."+event.Kind, event)
}

// PublishAdminDeactivatedEvent publishes an admin deactivation to the audit exchange.
func (p *EventProducer) PublishAdminDeactivatedEvent(ctx context.Context, event AdminDeactivatedEvent) error {
	return p.Publish(ctx, AuditExchange, "admin.deactivated", event)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
