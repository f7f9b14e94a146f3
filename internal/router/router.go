// Package router maps the API surface onto the Echo instance.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/mfarhadi/parkwise/internal/handler"
    "github.com/mfarhadi/parkwise/internal/middleware"
    "github.com/mfarhadi/parkwise/internal/model"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
    Auth         *handler.AuthHandler
    Lots         *handler.LotHandler
    Reservations *handler.ReservationHandler
    AdminLots    *handler.AdminLotHandler
    AdminStats   *handler.AdminStatsHandler
    Jobs         *handler.JobHandler
}

// Register wires all routes. /healthz and /v1/auth are open; everything
// else under /v1 requires a valid token, and /v1/admin additionally
// requires the admin role. authLimit is the rate limiter applied to the
// credential endpoints.
func Register(e *echo.Echo, h Handlers, jwtSecret string, authLimit echo.MiddlewareFunc) {
    e.GET("/healthz", handler.Health)

    auth := e.Group("/v1/auth", authLimit)
    auth.POST("/register", h.Auth.Register)
    auth.POST("/login", h.Auth.Login)

    v1 := e.Group("/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleUser, model.RoleAdmin),
    )
    v1.GET("/me", h.Auth.Me)
    v1.GET("/lots", h.Lots.List)

    v1.POST("/reservations", h.Reservations.Create)
    v1.GET("/reservations", h.Reservations.ListMine)
    v1.PUT("/reservations/:id/release", h.Reservations.Release)
    v1.GET("/reservations/:id/cost", h.Reservations.Cost)
    v1.GET("/statistics", h.Reservations.Statistics)

    v1.POST("/exports", h.Jobs.StartExport)
    v1.GET("/exports/:key", h.Jobs.DownloadExport)
    v1.GET("/jobs/:id", h.Jobs.JobStatus)

    admin := e.Group("/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )
    admin.POST("/lots", h.AdminLots.Create)
    admin.PUT("/lots/:id", h.AdminLots.Update)
    admin.DELETE("/lots/:id", h.AdminLots.Delete)
    admin.GET("/lots/:id/spots", h.AdminLots.Spots)

    admin.GET("/dashboard", h.AdminStats.Dashboard)
    admin.GET("/statistics", h.AdminStats.Statistics)
    admin.GET("/users", h.AdminStats.ListUsers)
    admin.GET("/reservations", h.AdminStats.ListReservations)

    admin.POST("/jobs/reminders", h.Jobs.TriggerReminders)
    admin.POST("/jobs/reports", h.Jobs.TriggerReports)
    admin.GET("/cache", h.Jobs.CacheStatus)
    admin.DELETE("/cache", h.Jobs.CacheClear)
}
