// Package handler contains the HTTP handlers for the public, user and
// admin API surfaces.
package handler

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/mfarhadi/parkwise/internal/model"
)

// getUserID extracts the authenticated user's id from the context. The
// JWT middleware stores the raw claim value, which arrives as float64
// when decoded from JSON.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the request carries the admin role.
func isAdmin(c echo.Context) bool {
    role, _ := c.Get("role").(string)
    return role == model.RoleAdmin
}

// pathID parses a numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}
