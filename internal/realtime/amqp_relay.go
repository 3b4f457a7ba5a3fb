package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// AMQPRelay republishes realtime events to a RabbitMQ topic exchange so
// sibling services (reporting, automation) can consume the same stream the
// browsers see. The relay is an optional second Broadcaster behind Multi;
// publish failures are logged and dropped, mirroring the channel's
// best-effort contract.
type AMQPRelay struct {
	conn     *amqp091.Connection
	exchange string
	logger   *slog.Logger
}

// NewAMQPRelay connects to RabbitMQ and declares the topic exchange
func NewAMQPRelay(url, exchange string, logger *slog.Logger) (*AMQPRelay, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPRelay{
		conn:     conn,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Publish implements Broadcaster. The event name doubles as the routing key.
func (r *AMQPRelay) Publish(event string, payload interface{}) {
	body, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		r.logger.Error("failed to marshal relay event",
			slog.String("event", event),
			slog.Any("error", err))
		return
	}

	ch, err := r.conn.Channel()
	if err != nil {
		r.logger.Warn("relay channel unavailable, event dropped",
			slog.String("event", event),
			slog.Any("error", err))
		return
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(
		ctx, r.exchange, event, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		r.logger.Warn("relay publish failed, event dropped",
			slog.String("event", event),
			slog.Any("error", err))
	}
}

// Close closes the underlying connection
func (r *AMQPRelay) Close() error {
	return r.conn.Close()
}
