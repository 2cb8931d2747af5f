package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health answers "ok" while the database responds and 503 otherwise, so
// load balancers stop routing to an instance that lost its store.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            c.Logger().Warnf("healthz: %v", err)
            return c.String(http.StatusServiceUnavailable, "unavailable")
        }
        return c.String(http.StatusOK, "ok")
    }
}
