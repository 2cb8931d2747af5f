package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// ActivityLogFile is the file consume-events appends to inside its log dir.
const ActivityLogFile = "activity.log"

// Consumer drains the activity queue into <LogDir>/activity.log.
type Consumer struct {
    URL    string
    LogDir string
    Log    *logrus.Entry
}

// Run connects, consumes and reconnects with backoff until ctx is
// cancelled.  Bad messages are rejected without requeue so one poison
// message cannot stall the queue.
func (c *Consumer) Run(ctx context.Context) error {
    if c.URL == "" {
        return errors.New("RABBITMQ_URL is not set")
    }
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).Warnf("dial broker failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.WithError(err).Warn("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("set QoS failed")
    }
    if _, err := declareActivityQueue(ch); err != nil {
        return err
    }
    msgs, err := ch.Consume(ActivityQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(c.LogDir, d.Body); err != nil {
                c.Log.WithError(err).Error("handle activity message")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends its line to the activity log.
func HandleMessage(logDir string, body []byte) error {
    var ev ActivityEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, ActivityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as one newline-terminated log line.
func FormatLine(ev ActivityEvent) string {
    parts := []string{fmt.Sprintf("[%s] %s", ev.OccurredAt, ev.Type)}
    if ev.UserID != 0 {
        parts = append(parts, fmt.Sprintf("user_id=%d", ev.UserID))
    }
    if ev.Username != "" {
        parts = append(parts, fmt.Sprintf("username=%q", ev.Username))
    }
    if ev.CafeID != 0 {
        parts = append(parts, fmt.Sprintf("cafe_id=%d", ev.CafeID))
    }
    if ev.CafeName != "" {
        parts = append(parts, fmt.Sprintf("cafe=%q", ev.CafeName))
    }
    if ev.CityCode != "" {
        parts = append(parts, "city="+ev.CityCode)
    }
    return strings.Join(parts, " | ") + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
