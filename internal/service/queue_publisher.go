// Package service holds outbound integrations invoked from handlers.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/matchpoint/court-booking/internal/queue"
)

// EventPublisher publishes domain events to the broker.  Publishing is
// best effort: a broker outage must never fail the request that produced
// the event, so callers log and drop the returned error.
type EventPublisher struct {
	url string
}

// NewEventPublisher returns a publisher for the given AMQP URL.  An empty
// URL yields a disabled publisher whose methods are no-ops.
func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{url: url}
}

// BookingCreated publishes ev to the booking.created queue.
func (p *EventPublisher) BookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
	return p.publish(ctx, queue.BookingCreatedQueue, ev)
}

// RegistrationDecided publishes ev to the registration.decided queue.
func (p *EventPublisher) RegistrationDecided(ctx context.Context, ev queue.RegistrationDecidedEvent) error {
	return p.publish(ctx, queue.RegistrationDecidedQueue, ev)
}

// publish dials per call.  Event volume here is a handful per request at
// most, so a pooled connection is not worth the reconnect bookkeeping.
func (p *EventPublisher) publish(ctx context.Context, queueName string, event any) error {
	if p.url == "" {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Warn().Err(err).Str("queue", queueName).Msg("amqp dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn().Err(err).Str("queue", queueName).Msg("amqp channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Warn().Err(err).Str("queue", queueName).Msg("amqp queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Warn().Err(err).Str("queue", queueName).Msg("amqp publish failed")
		return err
	}
	return nil
}
