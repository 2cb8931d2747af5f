// Package queue carries activity events from the web process to the
// consume-events worker over RabbitMQ.
package queue

import "time"

// ActivityQueue is the durable queue both sides declare.
const ActivityQueue = "cafe.activity"

// Activity event types.
const (
    EventUserSignedUp = "user_signed_up"
    EventCafeAdded    = "cafe_added"
    EventCafeEdited   = "cafe_edited"
)

// ActivityEvent is published after a successful signup, cafe add or cafe
// edit.  It carries enough to write an audit line without querying the
// database.
type ActivityEvent struct {
    Type       string `json:"type"`
    UserID     int64  `json:"user_id,omitempty"`
    Username   string `json:"username,omitempty"`
    CafeID     int64  `json:"cafe_id,omitempty"`
    CafeName   string `json:"cafe_name,omitempty"`
    CityCode   string `json:"city_code,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// Stamp sets OccurredAt to t in RFC 3339 UTC.
func (e ActivityEvent) Stamp(t time.Time) ActivityEvent {
    e.OccurredAt = t.UTC().Format(time.RFC3339)
    return e
}
