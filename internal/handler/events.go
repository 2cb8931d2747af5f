package handler

import (
    "context"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cafe-finder/internal/metrics"
    "github.com/iliyamo/cafe-finder/internal/queue"
)

// Notifier publishes activity events after a successful write.  A failed
// publish never fails the request.
type Notifier struct {
    Publisher queue.Publisher
    Log       *logrus.Entry
}

func (n *Notifier) publish(c echo.Context, ev queue.ActivityEvent) {
    if n == nil || n.Publisher == nil {
        return
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
    defer cancel()

    ev = ev.Stamp(time.Now())
    err := n.Publisher.Publish(ctx, ev)
    metrics.RecordActivity(ev.Type, err == nil)
    if err != nil && n.Log != nil {
        n.Log.WithError(err).WithFields(logrus.Fields{
            "event":      ev.Type,
            "request_id": c.Response().Header().Get(echo.HeaderXRequestID),
        }).Warn("publish activity event")
    }
}
