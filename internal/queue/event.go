// Package queue implements the background job system: a RabbitMQ-backed
// work queue, a Redis job status store, and the jobs themselves (CSV
// export, daily reminders, monthly reports).
package queue

import (
    "encoding/json"
    "time"
)

// Job names accepted by the consumer.
const (
    JobExportCSV      = "export_csv"
    JobDailyReminders = "daily_reminders"
    JobMonthlyReports = "monthly_reports"
)

// jobQueueName is the single durable queue all jobs flow through.
const jobQueueName = "parkwise.jobs"

// JobRequest is the message published for every enqueued job. Payload
// carries the job-specific arguments and stays opaque to the transport.
type JobRequest struct {
    ID         string          `json:"id"`
    Name       string          `json:"name"`
    Payload    json.RawMessage `json:"payload,omitempty"`
    EnqueuedAt time.Time       `json:"enqueued_at"`
}

// ExportCSVPayload are the arguments of an export_csv job. AdminScope
// exports every user's reservations instead of just the requester's.
type ExportCSVPayload struct {
    UserID     uint64 `json:"user_id"`
    AdminScope bool   `json:"admin_scope"`
}
