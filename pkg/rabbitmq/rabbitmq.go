package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	amqp "github.com/streadway/amqp"
)

// Client holds the RabbitMQ connection and the channel used for publishing.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   hclog.Logger
	mu       sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ and declares the durable topic exchange
// catalog events are published to.
func NewClient(cfg Config, logger hclog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger = logger.Named("rabbitmq")
	logger.Info("connected", "exchange", cfg.Exchange)

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// newPublishing encodes payload as a persistent JSON message.
func newPublishing(payload interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event payload to JSON: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
	}, nil
}

// Publish sends payload as JSON to the catalog exchange under routingKey.
func (c *Client) Publish(routingKey string, payload interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	msg, err := newPublishing(payload, time.Now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.logger.Debug("event published", "routing_key", routingKey, "bytes", len(msg.Body))
	return nil
}

// ConsumeEvents binds a durable queue to the exchange with bindingKey and
// hands every delivery to handler on a separate goroutine. Deliveries are
// acked when handler succeeds and dropped otherwise.
func (c *Client) ConsumeEvents(queueName, bindingKey string, handler func(msg amqp.Delivery) error) error {
	if c.conn == nil {
		return fmt.Errorf("RabbitMQ connection is not available for consumption")
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}

	queue, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}
	if err := ch.QueueBind(queue.Name, bindingKey, c.exchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("failed to bind queue %s: %w", queue.Name, err)
	}

	msgs, err := ch.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for catalog events", "queue", queue.Name, "binding", bindingKey)

	go func() {
		defer ch.Close()
		for msg := range msgs {
			if err := handler(msg); err != nil {
				c.logger.Warn("failed to process event", "routing_key", msg.RoutingKey, "error", err)
				// Unprocessable events are dropped, not requeued.
				if nackErr := msg.Nack(false, false); nackErr != nil {
					c.logger.Error("failed to nack event", "delivery_tag", msg.DeliveryTag, "error", nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("failed to ack event", "delivery_tag", msg.DeliveryTag, "error", ackErr)
			}
		}
	}()

	return nil
}

// LogEvents returns a delivery handler that logs every catalog event.
func LogEvents(logger hclog.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Body, &payload); err != nil {
			return fmt.Errorf("failed to decode event body: %w", err)
		}
		logger.Info("catalog event received", "routing_key", msg.RoutingKey, "id", payload["id"], "count", payload["count"])
		return nil
	}
}
