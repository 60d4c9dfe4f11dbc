package domain

import "time"

// ActivityKind names an event published on the activity feed.
type ActivityKind string

const (
	ActivityAccountRegistered ActivityKind = "account.registered"
	ActivitySessionStarted    ActivityKind = "session.started"
	ActivitySessionEnded      ActivityKind = "session.ended"
)

// Activity is a single entry in the live activity feed.
type Activity struct {
	ID        string
	Kind      ActivityKind
	AccountID string
	Actor     string
	Message   string
	At        time.Time
}
