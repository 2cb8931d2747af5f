package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends activity events.  Callers treat failures as non-fatal.
type Publisher interface {
    Publish(ctx context.Context, ev ActivityEvent) error
}

// NewPublisher returns an AMQP publisher, or a no-op one when url is empty.
func NewPublisher(url string) Publisher {
    if url == "" {
        return NopPublisher{}
    }
    return &AMQPPublisher{url: url}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ActivityEvent) error { return nil }

// AMQPPublisher dials the broker per event.  Events are rare (one per
// successful form submission) so no connection is held open.
type AMQPPublisher struct {
    url string
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev ActivityEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := declareActivityQueue(ch); err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", ActivityQueue, false, false, pub); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}

func declareActivityQueue(ch *amqp.Channel) (amqp.Queue, error) {
    q, err := ch.QueueDeclare(
        ActivityQueue, // name
        true,          // durable
        false,         // autoDelete
        false,         // exclusive
        false,         // noWait
        nil,           // args
    )
    if err != nil {
        return q, fmt.Errorf("queue declare: %w", err)
    }
    return q, nil
}
