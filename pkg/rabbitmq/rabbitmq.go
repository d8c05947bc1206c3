package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

// DefaultQueue is used when Config.Queue is empty.
const DefaultQueue = "poll_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex // guards channel for concurrent publishers
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// Event is the JSON body of every published message.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares the event queue.
func NewClient(cfg Config) (*Client, error) {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected and %s declared.", queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   queue,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", name, err)
	}
	return nil
}

// Queue returns the name of the queue events are routed to.
func (c *Client) Queue() string {
	return c.queue
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

// NewMessage wraps payload in an Event and builds a persistent JSON message for it.
func NewMessage(eventType string, payload interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(Event{Type: eventType, OccurredAt: now.UTC(), Payload: payload})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal %s event to JSON: %w", eventType, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         eventType,
		MessageId:    uuid.NewString(),
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}

// Publish sends an event to the client's queue through the default exchange.
func (c *Client) Publish(eventType string, payload interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	msg, err := NewMessage(eventType, payload, time.Now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Printf(" [x] Sent %s event: %s", eventType, msg.Body)
	return nil
}

// ConsumePollEvents starts a goroutine that passes every delivery on the queue to messageHandler.
// Deliveries are acked when the handler returns nil and rejected without requeue otherwise.
func (c *Client) ConsumePollEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	c.mu.Lock()
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for poll events on %s", c.queue)

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
				// dropped rather than requeued
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
	}()

	return nil
}

// DecodeEvent parses the body of a delivery produced by Publish.
func DecodeEvent(msg amqp.Delivery) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event %s: %w", msg.MessageId, err)
	}
	if ev.Type == "" {
		ev.Type = msg.Type
	}
	return ev, nil
}

// LogEvent is a consumer handler that writes each event to the standard logger.
func LogEvent(msg amqp.Delivery) error {
	ev, err := DecodeEvent(msg)
	if err != nil {
		return err
	}
	payload, _ := json.Marshal(ev.Payload)
	log.Printf("Received %s event at %s: %s", ev.Type, ev.OccurredAt.Format(time.RFC3339), payload)
	return nil
}
