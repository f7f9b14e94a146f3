package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/mfarhadi/parkwise/internal/cache"
)

// LotHandler serves the lot listing shown to every authenticated user.
type LotHandler struct {
    Cache *cache.Availability
}

func NewLotHandler(avail *cache.Availability) *LotHandler {
    return &LotHandler{Cache: avail}
}

// List handles GET /v1/lots. Counts come from the availability cache,
// which falls back to the database when Redis is down.
func (h *LotHandler) List(c echo.Context) error {
    lots, err := h.Cache.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"lots": lots})
}
