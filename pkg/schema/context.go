package schema

import "time"

// EventKind tags the kind of mail event a trigger context carries.
type EventKind string

const (
	EventEmailReceived EventKind = "email_received"
	EventEmailLabeled  EventKind = "email_labeled"
	EventSchedule      EventKind = "schedule"
)

// EmailSnapshot is the thread/email state captured when the event fired.
type EmailSnapshot struct {
	ThreadID   string    `json:"threadId"`
	Subject    string    `json:"subject,omitempty"`
	From       string    `json:"from,omitempty"`
	Labels     []string  `json:"labels,omitempty"`
	Snippet    string    `json:"snippet,omitempty"`
	ReceivedAt time.Time `json:"receivedAt,omitempty"`
}

// LabelChange is the payload of an email_labeled event.
type LabelChange struct {
	Label  string `json:"label"`
	Action string `json:"action"` // added | removed
}

// TriggerContext is the snapshot of the event that started (or is being
// tested against) a run. Email is present for mail events; LabelChange only
// for email_labeled; Schedule marks a fired schedule tick.
type TriggerContext struct {
	Kind        EventKind      `json:"kind"`
	Email       *EmailSnapshot `json:"email,omitempty"`
	LabelChange *LabelChange   `json:"labelChange,omitempty"`
	Schedule    *ScheduleEvent `json:"schedule,omitempty"`
}

// ScheduleEvent marks an already-fired schedule tick. The engine never
// evaluates cron timing itself; it only matches this marker.
type ScheduleEvent struct {
	FiredAt time.Time `json:"firedAt"`
}
