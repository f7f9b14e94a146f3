package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/mfarhadi/parkwise/internal/cache"
    "github.com/mfarhadi/parkwise/internal/queue"
)

// JobHandler exposes the background job system over HTTP: starting CSV
// exports, polling job status, downloading finished exports, and the
// admin triggers for the scheduled jobs.
type JobHandler struct {
    Pub    *queue.Publisher
    Status *queue.StatusStore
    Jobs   *queue.Jobs
    Cache  *cache.Availability
}

func NewJobHandler(pub *queue.Publisher, status *queue.StatusStore, jobs *queue.Jobs, avail *cache.Availability) *JobHandler {
    return &JobHandler{Pub: pub, Status: status, Jobs: jobs, Cache: avail}
}

// StartExport handles POST /v1/exports: it enqueues a CSV export of the
// caller's reservations (every user's when the caller is an admin) and
// answers 202 with the job id to poll.
func (h *JobHandler) StartExport(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    payload := queue.ExportCSVPayload{UserID: uid, AdminScope: isAdmin(c)}
    jobID, err := h.Pub.Enqueue(c.Request().Context(), queue.JobExportCSV, payload)
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "job queue unavailable"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"job_id": jobID})
}

// JobStatus handles GET /v1/jobs/:id.
func (h *JobHandler) JobStatus(c echo.Context) error {
    st, err := h.Status.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        if errors.Is(err, queue.ErrJobNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status lookup failed"})
    }
    return c.JSON(http.StatusOK, st)
}

// DownloadExport handles GET /v1/exports/:key and streams the finished
// CSV document.
func (h *JobHandler) DownloadExport(c echo.Context) error {
    doc, err := h.Jobs.FetchExport(c.Request().Context(), c.Param("key"))
    if err != nil {
        if errors.Is(err, queue.ErrExportNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "export not found or expired"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export lookup failed"})
    }
    c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="reservations.csv"`)
    return c.Blob(http.StatusOK, "text/csv", doc)
}

// TriggerReminders handles POST /v1/admin/jobs/reminders, running the
// daily reminder job out of schedule.
func (h *JobHandler) TriggerReminders(c echo.Context) error {
    jobID, err := h.Pub.Enqueue(c.Request().Context(), queue.JobDailyReminders, nil)
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "job queue unavailable"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"job_id": jobID})
}

// TriggerReports handles POST /v1/admin/jobs/reports.
func (h *JobHandler) TriggerReports(c echo.Context) error {
    jobID, err := h.Pub.Enqueue(c.Request().Context(), queue.JobMonthlyReports, nil)
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "job queue unavailable"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"job_id": jobID})
}

// CacheStatus handles GET /v1/admin/cache.
func (h *JobHandler) CacheStatus(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"enabled": h.Cache.Enabled()})
}

// CacheClear handles DELETE /v1/admin/cache.
func (h *JobHandler) CacheClear(c echo.Context) error {
    h.Cache.Invalidate(c.Request().Context())
    return c.NoContent(http.StatusNoContent)
}
