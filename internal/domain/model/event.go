// Package model contains domain models passed between layers.
package model

import "time"

// EventType is the driving-event category of a feedback entry.
type EventType string

// Known driving-event categories.
const (
	HarshBraking      EventType = "harsh_braking"
	SmoothDriving     EventType = "smooth_driving"
	RapidAcceleration EventType = "rapid_acceleration"
	Speeding          EventType = "speeding"
)

// Severity grades a feedback entry.
type Severity string

// Severity levels.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Tone is the display classification used to pick an icon and a color.
type Tone string

// Display tones.
const (
	TonePositive Tone = "positive"
	ToneCritical Tone = "critical"
	ToneWarning  Tone = "warning"
	ToneInfo     Tone = "info"
)

// Template is an immutable mock event definition.
type Template struct {
	Type        EventType `json:"type"`
	Severity    Severity  `json:"severity"`
	Location    string    `json:"location"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
	Impact      int       `json:"impact"`
}

// Tone classifies the template for display. Smooth driving is always
// positive; everything else is graded by severity.
func (t Template) Tone() Tone {
	if t.Type == SmoothDriving {
		return TonePositive
	}
	switch t.Severity {
	case SeverityHigh:
		return ToneCritical
	case SeverityMedium:
		return ToneWarning
	default:
		return ToneInfo
	}
}

// Feedback is a template instance stamped at capture time.
type Feedback struct {
	Template
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	Timestamp  string    `json:"timestamp"` // human-readable clock time
	Read       bool      `json:"read"`
}

// Stamp creates a Feedback instance from t. Suggestions are copied so the
// instance never aliases the catalog.
func (t Template) Stamp(id string, at time.Time) Feedback {
	tt := t
	tt.Suggestions = append([]string(nil), t.Suggestions...)
	return Feedback{
		Template:   tt,
		ID:         id,
		CapturedAt: at,
		Timestamp:  at.Format(ClockLayout),
		Read:       false,
	}
}

// ClockLayout renders capture times the way the dashboard shows them.
const ClockLayout = "3:04:05 PM"

// NotificationKind tells live feed consumers what changed.
type NotificationKind string

// Notification kinds. An empty kind is treated as NotificationFeedback.
const (
	NotificationFeedback NotificationKind = "feedback"
	NotificationIdle     NotificationKind = "idle"
)

// Notification is published after every simulator tick and when a run
// returns to idle. Feedback is empty for idle notifications.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	SessionID  string           `json:"session_id"`
	Feedback   Feedback         `json:"feedback"`
	Score      int              `json:"score"`
	Unread     int              `json:"unread"`
	Simulating bool             `json:"simulating"`
}
