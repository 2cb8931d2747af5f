package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/sirupsen/logrus"
)

// RequestLogger writes one logrus line per request.  Handler errors are
// logged by the HTTP error handler, so only the outcome is recorded here.
func RequestLogger(log *logrus.Entry) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            entry := log.WithFields(logrus.Fields{
                "method":     v.Method,
                "uri":        v.URI,
                "status":     v.Status,
                "latency":    v.Latency.String(),
                "remote_ip":  v.RemoteIP,
                "request_id": v.RequestID,
            })
            if v.Status >= 500 {
                entry.Warn("request")
            } else {
                entry.Info("request")
            }
            return nil
        },
    })
}
