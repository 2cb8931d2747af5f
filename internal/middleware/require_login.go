package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-finder/internal/session"
)

// RequireLogin lets the request through only when Sessions resolved a
// current user.  Anyone else gets a flash and a redirect to loginPath.
func RequireLogin(loginPath string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if CurrentUser(c) == nil {
                session.AddFlash(c, session.CategoryDanger, "You are not logged in.")
                return c.Redirect(http.StatusFound, loginPath)
            }
            return next(c)
        }
    }
}
