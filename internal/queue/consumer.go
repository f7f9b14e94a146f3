package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer pulls job requests off the queue and runs them. It keeps a
// reconnect loop with exponential backoff so a broker restart never
// takes the worker down with it.
type Consumer struct {
    url    string
    status *StatusStore
    jobs   *Jobs
}

// NewConsumer builds a consumer for the given AMQP URL.
func NewConsumer(url string, status *StatusStore, jobs *Jobs) *Consumer {
    return &Consumer{url: url, status: status, jobs: jobs}
}

// Start runs the consume loop until the context is cancelled. Dial
// failures back off up to 30 seconds; a dropped connection reconnects
// after a short pause.
func (c *Consumer) Start(ctx context.Context) {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            log.Printf("jobs: dial broker failed: %v; retrying in %s", err, backoff)
            select {
            case <-ctx.Done():
                return
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := c.consumeLoop(ctx, conn); err != nil {
            log.Printf("jobs: consume loop ended: %v; reconnecting", err)
            _ = conn.Close()
            select {
            case <-ctx.Done():
                return
            case <-time.After(2 * time.Second):
            }
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Jobs can run for a while; take them one at a time.
    if err := ch.Qos(1, 0, false); err != nil {
        log.Printf("jobs: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(jobQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(jobQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return nil
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(ctx, d.Body); err != nil {
                log.Printf("jobs: handle message failed: %v", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
    var req JobRequest
    if err := json.Unmarshal(body, &req); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := c.status.Set(ctx, JobStatus{ID: req.ID, Name: req.Name, State: StateProgress}); err != nil {
        log.Printf("jobs: record progress status failed: %v", err)
    }

    result, err := c.jobs.Run(ctx, req)
    if err != nil {
        if serr := c.status.Set(ctx, JobStatus{ID: req.ID, Name: req.Name, State: StateFailure, Error: err.Error()}); serr != nil {
            log.Printf("jobs: record failure status failed: %v", serr)
        }
        return fmt.Errorf("job %s (%s): %w", req.Name, req.ID, err)
    }

    if err := c.status.Set(ctx, JobStatus{ID: req.ID, Name: req.Name, State: StateSuccess, Percent: 100, Result: result}); err != nil {
        log.Printf("jobs: record success status failed: %v", err)
    }
    return nil
}
