package queue

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "html/template"
    "log"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/mfarhadi/parkwise/internal/repository"
)

// exportTTL is how long a finished CSV export stays downloadable.
const exportTTL = time.Hour

// ErrExportNotFound is returned when a download key is unknown or the
// export has expired.
var ErrExportNotFound = errors.New("export not found")

// Jobs holds the dependencies shared by all background jobs and
// dispatches by job name.
type Jobs struct {
    stats  *repository.StatsRepo
    status *StatusStore
    redis  *redis.Client
    mailer *Mailer
    prefix string
    now    func() time.Time
}

// NewJobs wires the job implementations. redis may be nil, in which case
// CSV exports fail with an explicit error instead of vanishing.
func NewJobs(stats *repository.StatsRepo, status *StatusStore, client *redis.Client, mailer *Mailer, prefix string) *Jobs {
    if prefix == "" {
        prefix = "parkwise"
    }
    return &Jobs{
        stats:  stats,
        status: status,
        redis:  client,
        mailer: mailer,
        prefix: prefix,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// Run executes one job request and returns a result string stored with
// the SUCCESS status.
func (j *Jobs) Run(ctx context.Context, req JobRequest) (string, error) {
    switch req.Name {
    case JobExportCSV:
        var p ExportCSVPayload
        if err := json.Unmarshal(req.Payload, &p); err != nil {
            return "", fmt.Errorf("export payload: %w", err)
        }
        return j.exportCSV(ctx, req.ID, p)
    case JobDailyReminders:
        return j.dailyReminders(ctx)
    case JobMonthlyReports:
        return j.monthlyReports(ctx)
    default:
        return "", fmt.Errorf("unknown job %q", req.Name)
    }
}

func (j *Jobs) exportKey(id string) string { return j.prefix + ":csv_export:" + id }

// exportCSV renders the requester's reservation history to CSV and parks
// it in Redis under a download key. The job id doubles as the key so the
// status result is all a client needs to fetch the file.
func (j *Jobs) exportCSV(ctx context.Context, jobID string, p ExportCSVPayload) (string, error) {
    if j.redis == nil {
        return "", errors.New("export storage unavailable")
    }

    j.progress(ctx, jobID, JobExportCSV, 25)
    rows, err := j.stats.ExportRows(ctx, p.UserID, p.AdminScope)
    if err != nil {
        return "", err
    }

    j.progress(ctx, jobID, JobExportCSV, 60)
    doc, err := BuildReservationCSV(rows)
    if err != nil {
        return "", err
    }

    if err := j.redis.Set(ctx, j.exportKey(jobID), doc, exportTTL).Err(); err != nil {
        return "", err
    }
    return jobID, nil
}

// FetchExport returns a finished CSV document by its download key.
func (j *Jobs) FetchExport(ctx context.Context, key string) ([]byte, error) {
    if j.redis == nil {
        return nil, ErrExportNotFound
    }
    doc, err := j.redis.Get(ctx, j.exportKey(key)).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return nil, ErrExportNotFound
        }
        return nil, err
    }
    return doc, nil
}

// dailyReminders nudges every user without an active reservation, over
// email and chat. Delivery failures are logged per recipient and do not
// fail the job.
func (j *Jobs) dailyReminders(ctx context.Context) (string, error) {
    targets, err := j.stats.ReminderTargets(ctx)
    if err != nil {
        return "", err
    }
    sent := 0
    for _, t := range targets {
        body := fmt.Sprintf("Hi %s,\n\nYou have no active parking reservation. Book a spot if you plan to park today.\n", t.Username)
        if err := j.mailer.Send(t.Email, "Parking reminder", body, false); err != nil {
            log.Printf("jobs: reminder mail to %s failed: %v", t.Email, err)
        } else {
            sent++
        }
        if err := j.mailer.PostChat(ctx, fmt.Sprintf("Reminder: %s has no active parking reservation today.", t.Username)); err != nil {
            log.Printf("jobs: reminder chat post for %s failed: %v", t.Username, err)
        }
    }
    return fmt.Sprintf("reminded %d of %d users", sent, len(targets)), nil
}

var reportTmpl = template.Must(template.New("report").Parse(`<html><body>
<h2>Your parking activity for {{.Month}}</h2>
<p>Hi {{.Username}}, here is your monthly summary.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Date</th><th>Lot</th><th>Spot</th><th>Vehicle</th><th>Cost</th></tr>
{{range .Bookings}}<tr><td>{{.Date.Format "2006-01-02 15:04"}}</td><td>{{.LotName}}</td><td>{{.SpotNumber}}</td><td>{{.VehicleNumber}}</td><td>{{printf "%.2f" .Cost}}</td></tr>
{{end}}</table>
<p>Total bookings: {{len .Bookings}}. Total spent: {{printf "%.2f" .Total}}.
Most used lot: {{.TopLot}}.</p>
</body></html>`))

// monthlyReports mails each active user an HTML summary of the previous
// calendar month.
func (j *Jobs) monthlyReports(ctx context.Context) (string, error) {
    now := j.now()
    first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
    from := first.AddDate(0, -1, 0)
    to := first.Add(-time.Second)

    activity, err := j.stats.MonthlyActivity(ctx, from, to)
    if err != nil {
        return "", err
    }

    month := from.Format("January 2006")
    sent := 0
    for _, a := range activity {
        total := 0.0
        lotUse := map[string]int{}
        topLot := ""
        for _, b := range a.Bookings {
            total += b.Cost
            lotUse[b.LotName]++
            if lotUse[b.LotName] > lotUse[topLot] {
                topLot = b.LotName
            }
        }
        var buf bytes.Buffer
        err := reportTmpl.Execute(&buf, struct {
            Month    string
            Username string
            Bookings []repository.ReportBooking
            Total    float64
            TopLot   string
        }{month, a.Contact.Username, a.Bookings, total, topLot})
        if err != nil {
            log.Printf("jobs: render report for %s failed: %v", a.Contact.Email, err)
            continue
        }
        subject := "Parking report for " + month
        if err := j.mailer.Send(a.Contact.Email, subject, buf.String(), true); err != nil {
            log.Printf("jobs: report mail to %s failed: %v", a.Contact.Email, err)
            continue
        }
        sent++
    }
    return fmt.Sprintf("sent %d reports for %s", sent, month), nil
}

func (j *Jobs) progress(ctx context.Context, id, name string, percent int) {
    if err := j.status.Set(ctx, JobStatus{ID: id, Name: name, State: StateProgress, Percent: percent}); err != nil {
        log.Printf("jobs: record progress failed: %v", err)
    }
}
