package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// Publisher sends booking events to a durable queue on the default
// exchange.  It dials per message: bookings are low volume and this keeps
// the API independent of broker restarts.  Publisher satisfies
// service.Notifier.
type Publisher struct {
	url     string
	queue   string
	timeout time.Duration
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue, timeout: 3 * time.Second}
}

// Notify publishes the event as a persistent JSON message.  Errors are
// returned; the booking service logs and drops them.
func (p *Publisher) Notify(ctx context.Context, event string, b model.Booking) error {
	body, err := json.Marshal(NewBookingEvent(event, b, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.queue); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event,
		Body:         body,
	})
}

// declare makes sure the durable queue exists.  Publisher and consumer
// must agree on these arguments.
func declare(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
