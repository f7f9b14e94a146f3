package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/mfarhadi/parkwise/internal/cache"
    "github.com/mfarhadi/parkwise/internal/model"
    "github.com/mfarhadi/parkwise/internal/repository"
)

// AdminLotHandler serves lot and spot management for admins.
type AdminLotHandler struct {
    Lots     *repository.LotRepo
    SpotRepo *repository.SpotRepo
    Cache    *cache.Availability
}

func NewAdminLotHandler(lots *repository.LotRepo, spots *repository.SpotRepo, avail *cache.Availability) *AdminLotHandler {
    return &AdminLotHandler{Lots: lots, SpotRepo: spots, Cache: avail}
}

type lotReq struct {
    PrimeLocationName string  `json:"prime_location_name"`
    Price             float64 `json:"price"`
    Address           string  `json:"address"`
    PinCode           string  `json:"pin_code"`
    NumberOfSpots     int     `json:"number_of_spots"`
}

func (r *lotReq) validate() string {
    r.PrimeLocationName = strings.TrimSpace(r.PrimeLocationName)
    r.Address = strings.TrimSpace(r.Address)
    r.PinCode = strings.TrimSpace(r.PinCode)
    switch {
    case r.PrimeLocationName == "":
        return "prime_location_name is required"
    case r.Price < 0:
        return "price must not be negative"
    case r.NumberOfSpots < 1:
        return "number_of_spots must be at least 1"
    }
    return ""
}

// Create handles POST /v1/admin/lots. Spots are generated with the lot,
// numbered from one.
func (h *AdminLotHandler) Create(c echo.Context) error {
    var req lotReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    lot := &model.ParkingLot{
        PrimeLocationName: req.PrimeLocationName,
        Price:             req.Price,
        Address:           req.Address,
        PinCode:           req.PinCode,
        NumberOfSpots:     req.NumberOfSpots,
    }
    if err := h.Lots.Create(c.Request().Context(), lot); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create lot failed"})
    }
    h.Cache.Invalidate(c.Request().Context())
    return c.JSON(http.StatusCreated, lot)
}

// Update handles PUT /v1/admin/lots/:id. Changing number_of_spots grows
// or shrinks the lot; shrinking is refused while any spot beyond the new
// count is occupied.
func (h *AdminLotHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req lotReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    lot := model.ParkingLot{
        ID:                id,
        PrimeLocationName: req.PrimeLocationName,
        Price:             req.Price,
        Address:           req.Address,
        PinCode:           req.PinCode,
        NumberOfSpots:     req.NumberOfSpots,
    }
    if err := h.Lots.Update(c.Request().Context(), lot); err != nil {
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "occupied spots prevent shrinking the lot"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update lot failed"})
    }
    h.Cache.Invalidate(c.Request().Context())

    updated, err := h.Lots.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/admin/lots/:id. A lot with occupied spots
// cannot be removed.
func (h *AdminLotHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Lots.Delete(c.Request().Context(), id); err != nil {
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "lot has occupied spots"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete lot failed"})
    }
    h.Cache.Invalidate(c.Request().Context())
    return c.NoContent(http.StatusNoContent)
}

// Spots handles GET /v1/admin/lots/:id/spots: the per-spot status map
// plus who is parked where.
func (h *AdminLotHandler) Spots(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    summary, err := h.SpotRepo.SummaryByLot(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrLotNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, summary)
}
