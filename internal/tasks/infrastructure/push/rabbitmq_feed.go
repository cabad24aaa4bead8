package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange change events are published to. The
// routing key is the owner id, so each session binds a private queue to just
// its own owner's changes.
const ExchangeName = "taskdeck.task.changes"

// RabbitFeed carries change events across sessions through a RabbitMQ topic
// exchange.
type RabbitFeed struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewRabbitFeed connects to the broker and declares the exchange.
func NewRabbitFeed(url string, logger *slog.Logger) (*RabbitFeed, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("RabbitMQ change feed connected", "exchange", ExchangeName)

	return &RabbitFeed{conn: conn, channel: ch, logger: logger}, nil
}

// Subscribe binds an exclusive auto-deleted queue to the owner's routing key
// and fires onChange for every delivery.
func (f *RabbitFeed) Subscribe(ctx context.Context, owner uuid.UUID, onChange func()) (func(), error) {
	ch, err := f.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // name: broker-generated
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, owner.String(), ExchangeName, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case _, ok := <-deliveries:
				if !ok {
					return
				}
				onChange()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if err := ch.Close(); err != nil {
				f.logger.Warn("closing feed channel failed", "error", err)
			}
		})
	}, nil
}

// Publish fans a change event out to every session subscribed to the owner.
func (f *RabbitFeed) Publish(ctx context.Context, owner uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.channel.PublishWithContext(ctx,
		ExchangeName,   // exchange
		owner.String(), // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType: "text/plain",
			Timestamp:   time.Now(),
			Body:        []byte("changed"),
		},
	)
}

// Close releases the broker connection.
func (f *RabbitFeed) Close() error {
	if err := f.channel.Close(); err != nil {
		f.logger.Warn("closing publish channel failed", "error", err)
	}
	return f.conn.Close()
}
