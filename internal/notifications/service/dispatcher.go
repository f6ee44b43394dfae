package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"campusres/pkg/logger"
	"campusres/pkg/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dispatcher delivers a notification to its requester's channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) error
	Close() error
}

// LogDispatcher writes notifications to the structured log. It backs local
// runs and deployments without a message broker.
type LogDispatcher struct {
	log *logger.Logger
}

func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, n model.Notification) error {
	d.log.Info("Notification dispatched",
		"event_id", n.EventID,
		"requester_id", n.RequesterID,
		"booking_id", n.BookingID,
		"category", n.Category,
		"title", n.Title,
		"body", n.Body,
		"deep_link", n.DeepLink,
	)
	return nil
}

func (d *LogDispatcher) Close() error { return nil }

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPDispatcher publishes to a durable topic exchange with routing key
// notification.<category>, leaving fan-out to push, email and in-app
// consumers bound to that exchange.
type AMQPDispatcher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	log      *logger.Logger
	mu       sync.Mutex
}

func NewAMQPDispatcher(url, exchange string, log *logger.Logger) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	d := newAMQPDispatcher(ch, exchange, log)
	d.conn = conn
	log.Info("AMQP dispatcher ready", "exchange", exchange)
	return d, nil
}

func newAMQPDispatcher(ch amqpChannel, exchange string, log *logger.Logger) *AMQPDispatcher {
	return &AMQPDispatcher{
		ch:       ch,
		exchange: exchange,
		log:      log,
	}
}

func RoutingKey(n model.Notification) string {
	return "notification." + string(n.Category)
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, n model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	// amqp091 channels are not safe for concurrent publishing.
	d.mu.Lock()
	defer d.mu.Unlock()

	err = d.ch.PublishWithContext(ctx, d.exchange, RoutingKey(n), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.EventID,
		Timestamp:    time.Now().UTC(),
		Type:         model.EventType(n.Action),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification %s: %w", n.EventID, err)
	}
	return nil
}

func (d *AMQPDispatcher) Close() error {
	var err error
	if d.ch != nil {
		err = d.ch.Close()
	}
	if d.conn != nil {
		if cerr := d.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
