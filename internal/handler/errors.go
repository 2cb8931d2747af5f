package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cafe-finder/internal/view"
)

// HTTPErrorHandler logs the error and renders the error page.  Details of
// 5xx errors stay in the log.
func HTTPErrorHandler(log *logrus.Entry) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        code := http.StatusInternalServerError
        msg := http.StatusText(code)
        var he *echo.HTTPError
        if errors.As(err, &he) {
            code = he.Code
            if code < http.StatusInternalServerError {
                msg = fmt.Sprint(he.Message)
            }
        }

        entry := log.WithFields(logrus.Fields{
            "method":     c.Request().Method,
            "uri":        c.Request().RequestURI,
            "status":     code,
            "request_id": c.Response().Header().Get(echo.HeaderXRequestID),
        })
        if code >= http.StatusInternalServerError {
            entry.WithError(err).Error("request failed")
        } else {
            entry.WithError(err).Debug("request rejected")
        }

        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(code)
            return
        }
        if rerr := c.Render(code, view.ErrorPage, &view.Data{Status: code, Message: msg}); rerr != nil {
            entry.WithError(rerr).Error("render error page")
            _ = c.String(code, msg)
        }
    }
}
