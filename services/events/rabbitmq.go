// Package eventsvc publishes domain events (e.g. notification.created) for other systems to consume.
package eventsvc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/etarip26/EduConnect/core"
)

// RabbitMQPublisher publishes events to a durable topic exchange, routed by event type.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	exchange string
	cb       *gobreaker.CircuitBreaker
}

var _ core.EventPublisher = (*RabbitMQPublisher)(nil)

func NewRabbitMQPublisher(url, exchange string, cb *gobreaker.CircuitBreaker) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dialing rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "opening rabbitmq channel")
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declaring exchange")
	}

	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: exchange, cb: cb}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, evt core.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return nil, p.ch.PublishWithContext(
			ctx,
			p.exchange,
			evt.Type, // routing key
			false,    // mandatory
			false,    // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    evt.OccurredAt,
				Type:         evt.Type,
				Body:         body,
			},
		)
	})
	return errors.Wrapf(err, "publishing %s", evt.Type)
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
