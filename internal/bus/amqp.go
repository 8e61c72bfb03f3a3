package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPForwarder mirrors bus events to a RabbitMQ exchange so other dashboard
// surfaces learn about uploads without polling. It implements Forwarder.
type AMQPForwarder struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewAMQPForwarder connects and declares the exchange. Events are routed by
// their type string.
func NewAMQPForwarder(url, exchange string) (*AMQPForwarder, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPForwarder{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

// Forward publishes the event as a persistent JSON message.
func (f *AMQPForwarder) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = f.channel.PublishWithContext(ctx,
		f.exchange,
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (f *AMQPForwarder) Close() error {
	if err := f.channel.Close(); err != nil {
		f.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	if err := f.conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}
