package queue

import (
    "context"
    "log"

    "github.com/robfig/cron/v3"
)

// NewScheduler returns a cron scheduler that enqueues the recurring
// jobs: reminders every day, reports on the first of each month. The
// caller starts and stops it alongside the server.
func NewScheduler(pub *Publisher) *cron.Cron {
    c := cron.New()

    mustAdd(c, "@daily", func() {
        if _, err := pub.Enqueue(context.Background(), JobDailyReminders, nil); err != nil {
            log.Printf("scheduler: enqueue daily reminders failed: %v", err)
        }
    })
    mustAdd(c, "@monthly", func() {
        if _, err := pub.Enqueue(context.Background(), JobMonthlyReports, nil); err != nil {
            log.Printf("scheduler: enqueue monthly reports failed: %v", err)
        }
    })
    return c
}

func mustAdd(c *cron.Cron, spec string, fn func()) {
    if _, err := c.AddFunc(spec, fn); err != nil {
        // Specs are compile-time constants; a failure here is a bug.
        panic(err)
    }
}
