package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// StartNotificationConsumer connects to the broker, declares the booking
// and registration queues (durable) and consumes both, appending a
// human-readable line per event to logs/notifications.log.  It runs a
// reconnect loop with exponential backoff and never returns under normal
// operation; call it in its own goroutine.  An empty url disables the
// consumer entirely.
func StartNotificationConsumer(url string) {
	if url == "" {
		log.Info().Msg("amqp url not set, notification consumer disabled")
		return
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("notification consumer dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Warn().Err(err).Msg("notification consume loop ended, reconnecting")
		}
		_ = conn.Close()
		time.Sleep(2 * time.Second)
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("set qos failed")
	}

	for _, name := range []string{BookingCreatedQueue, RegistrationDecidedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	bookings, err := ch.Consume(BookingCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", BookingCreatedQueue, err)
	}
	decisions, err := ch.Consume(RegistrationDecidedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", RegistrationDecidedQueue, err)
	}

	for {
		select {
		case d, ok := <-bookings:
			if !ok {
				return errors.New("booking deliveries channel closed")
			}
			dispatch(d, handleBookingCreated)
		case d, ok := <-decisions:
			if !ok {
				return errors.New("registration deliveries channel closed")
			}
			dispatch(d, handleRegistrationDecided)
		}
	}
}

// dispatch acks on success and rejects without requeue on failure so a
// malformed message cannot spin the consumer.
func dispatch(d amqp.Delivery, handle func([]byte) error) {
	if err := handle(d.Body); err != nil {
		log.Error().Err(err).Str("queue", d.RoutingKey).Msg("handle message failed")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func handleBookingCreated(body []byte) error {
	var ev BookingCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	user := "guest"
	if ev.UserID != nil {
		user = fmt.Sprintf("%d", *ev.UserID)
	}
	line := fmt.Sprintf("[%s] Booking created | ref=%s | user=%s | court=%q | %s %s-%s | total=%.2f\n",
		ev.CreatedAt, ev.Reference, user, ev.CourtName, ev.Date, ev.StartTime, ev.EndTime, ev.TotalAmount)
	return appendNotification(line)
}

func handleRegistrationDecided(body []byte) error {
	var ev RegistrationDecidedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Registration %s | id=%d | business=%q | applicant=%s | admin=%d\n",
		ev.DecidedAt, ev.Decision, ev.RegistrationID, ev.BusinessName, ev.ApplicantEmail, ev.AdminID)
	return appendNotification(line)
}

func appendNotification(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "notifications.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
