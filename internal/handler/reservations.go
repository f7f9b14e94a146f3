package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/mfarhadi/parkwise/internal/repository"
    "github.com/mfarhadi/parkwise/internal/service"
)

// ReservationHandler serves the reserve/release flows and the per-user
// statistics.
type ReservationHandler struct {
    Svc   *service.ReservationService
    Stats *repository.StatsRepo
}

func NewReservationHandler(svc *service.ReservationService, stats *repository.StatsRepo) *ReservationHandler {
    return &ReservationHandler{Svc: svc, Stats: stats}
}

type reserveReq struct {
    LotID         uint64 `json:"lot_id"`
    VehicleNumber string `json:"vehicle_number"`
}

// Create handles POST /v1/reservations: it claims the lowest-numbered
// free spot in the requested lot.
func (h *ReservationHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req reserveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.VehicleNumber = strings.TrimSpace(req.VehicleNumber)
    if req.LotID == 0 || req.VehicleNumber == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "lot_id and vehicle_number required"})
    }

    rec, spot, err := h.Svc.Reserve(c.Request().Context(), uid, req.LotID, req.VehicleNumber)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrActiveReservationExists):
            return c.JSON(http.StatusConflict, echo.Map{"error": "an active reservation already exists"})
        case errors.Is(err, repository.ErrLotNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        case errors.Is(err, repository.ErrNoAvailableSpot):
            return c.JSON(http.StatusConflict, echo.Map{"error": "no available spot in this lot"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "reservation_id":    rec.ID,
        "spot_id":           spot.ID,
        "spot_number":       spot.SpotNumber,
        "lot_id":            spot.LotID,
        "vehicle_number":    rec.VehicleNumber,
        "parking_timestamp": rec.ParkingTimestamp,
        "hourly_rate":       rec.HourlyRate,
        "status":            rec.Status,
    })
}

// ListMine handles GET /v1/reservations and returns the caller's
// history, newest first, with live costs on active rows.
func (h *ReservationHandler) ListMine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Svc.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// Release handles PUT /v1/reservations/:id/release.
func (h *ReservationHandler) Release(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    res, err := h.Svc.Release(c.Request().Context(), uid, id)
    if err != nil {
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case errors.Is(err, repository.ErrAlreadyReleased):
            return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already released"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
    }
    return c.JSON(http.StatusOK, res)
}

// Cost handles GET /v1/reservations/:id/cost and prices the reservation
// as if it were released now.
func (h *ReservationHandler) Cost(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    bd, err := h.Svc.LiveCost(c.Request().Context(), uid, id, isAdmin(c))
    if err != nil {
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cost lookup failed"})
    }
    return c.JSON(http.StatusOK, bd)
}

// Statistics handles GET /v1/statistics: the caller's monthly spending
// and how their stays distribute across duration classes.
func (h *ReservationHandler) Statistics(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    since := time.Now().UTC().AddDate(0, -6, 0)

    spending, err := h.Stats.SpendingByMonth(ctx, uid, since)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    buckets, err := h.Stats.DurationBuckets(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }

    return c.JSON(http.StatusOK, echo.Map{
        "spending_by_month": spending,
        "duration_distribution": echo.Map{
            "labels": []string{"< 1 hour", "1-3 hours", "3-6 hours", "6+ hours"},
            "counts": buckets,
        },
    })
}
