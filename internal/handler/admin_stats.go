package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mfarhadi/parkwise/internal/repository"
    "github.com/mfarhadi/parkwise/internal/service"
)

// AdminStatsHandler serves the dashboard, statistics, user listing and
// the all-reservations view.
type AdminStatsHandler struct {
    Stats *repository.StatsRepo
    Users *repository.UserRepo
    Svc   *service.ReservationService
}

func NewAdminStatsHandler(stats *repository.StatsRepo, users *repository.UserRepo, svc *service.ReservationService) *AdminStatsHandler {
    return &AdminStatsHandler{Stats: stats, Users: users, Svc: svc}
}

// Dashboard handles GET /v1/admin/dashboard.
func (h *AdminStatsHandler) Dashboard(c echo.Context) error {
    counts, err := h.Stats.Dashboard(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, counts)
}

// Statistics handles GET /v1/admin/statistics: revenue by month, lot
// utilization and the reservation trend of the last seven days. Days
// without reservations are filled with zero counts so charts stay
// continuous.
func (h *AdminStatsHandler) Statistics(c echo.Context) error {
    ctx := c.Request().Context()
    now := time.Now().UTC()

    revenue, err := h.Stats.RevenueByMonth(ctx, now.AddDate(0, -6, 0))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    utilization, err := h.Stats.UtilizationByLot(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }

    weekAgo := now.AddDate(0, 0, -6).Truncate(24 * time.Hour)
    trend, err := h.Stats.DailyTrend(ctx, weekAgo)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }

    counts := make(map[string]int, len(trend))
    for _, d := range trend {
        counts[d.Day] = d.Count
    }
    filled := make([]repository.DailyCount, 0, 7)
    for i := 0; i < 7; i++ {
        day := weekAgo.AddDate(0, 0, i).Format("01/02")
        filled = append(filled, repository.DailyCount{Day: day, Count: counts[day]})
    }

    return c.JSON(http.StatusOK, echo.Map{
        "revenue_by_month":   revenue,
        "utilization_by_lot": utilization,
        "daily_trend":        filled,
    })
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminStatsHandler) ListUsers(c echo.Context) error {
    users, err := h.Users.ListWithReservationCounts(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// ListReservations handles GET /v1/admin/reservations across all users.
func (h *AdminStatsHandler) ListReservations(c echo.Context) error {
    items, err := h.Svc.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}
