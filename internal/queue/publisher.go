package queue

import (
    "context"
    "encoding/json"
    "log"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher enqueues jobs. It dials the broker per call; enqueue volume
// is a handful of messages per day, so connection reuse buys nothing and
// a dead broker is discovered on the next call instead of poisoning a
// cached connection.
type Publisher struct {
    url    string
    status *StatusStore
}

// NewPublisher builds a publisher for the given AMQP URL.
func NewPublisher(url string, status *StatusStore) *Publisher {
    return &Publisher{url: url, status: status}
}

// Enqueue publishes a job and records it as PENDING. It returns the job
// id clients poll for status. payload may be nil for jobs without
// arguments.
func (p *Publisher) Enqueue(ctx context.Context, name string, payload interface{}) (string, error) {
    req := JobRequest{
        ID:         uuid.NewString(),
        Name:       name,
        EnqueuedAt: time.Now().UTC(),
    }
    if payload != nil {
        raw, err := json.Marshal(payload)
        if err != nil {
            return "", err
        }
        req.Payload = raw
    }

    body, err := json.Marshal(req)
    if err != nil {
        return "", err
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("jobs: dial broker failed: %v", err)
        return "", err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("jobs: channel open failed: %v", err)
        return "", err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(jobQueueName, true, false, false, false, nil); err != nil {
        log.Printf("jobs: queue declare failed: %v", err)
        return "", err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    req.EnqueuedAt,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", jobQueueName, false, false, pub); err != nil {
        log.Printf("jobs: publish failed: %v", err)
        return "", err
    }

    if err := p.status.Set(ctx, JobStatus{ID: req.ID, Name: name, State: StatePending}); err != nil {
        log.Printf("jobs: record pending status failed: %v", err)
    }
    return req.ID, nil
}
