// Package types contains the JSON shapes exchanged over the HTTP API.
package types

import (
	"time"

	"github.com/okian/telematics/internal/domain/dashboard"
	"github.com/okian/telematics/internal/domain/feedback"
	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/scoring"
)

// FeedbackEntry is a history row with its display tone.
type FeedbackEntry struct {
	model.Feedback
	Tone model.Tone `json:"tone"`
}

// Session is the snapshot of one feedback session.
type Session struct {
	ID             string          `json:"id"`
	PolicyholderID string          `json:"policyholder_id"`
	CreatedAt      time.Time       `json:"created_at"`
	Score          int             `json:"score"`
	Band           scoring.Band    `json:"band"`
	Trending       bool            `json:"trending"`
	Simulating     bool            `json:"simulating"`
	Unread         int             `json:"unread"`
	AlertLabel     string          `json:"alert_label,omitempty"`
	History        []FeedbackEntry `json:"history"`
}

// NewSession renders st for the API.
func NewSession(id, policyholderID string, createdAt time.Time, st feedback.State) Session {
	history := make([]FeedbackEntry, len(st.History))
	for i, fb := range st.History {
		history[i] = FeedbackEntry{Feedback: fb, Tone: fb.Tone()}
	}
	return Session{
		ID:             id,
		PolicyholderID: policyholderID,
		CreatedAt:      createdAt,
		Score:          st.Score,
		Band:           scoring.BandOf(st.Score),
		Trending:       scoring.Trending(st.Score),
		Simulating:     st.Simulating,
		Unread:         st.UnreadCount(),
		AlertLabel:     st.AlertLabel(),
		History:        history,
	}
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	PolicyholderID string `json:"policyholder_id"`
}

// StartResponse reports whether a start request began a new run.
type StartResponse struct {
	Started bool `json:"started"`
}

// DashboardResponse is the body of GET /api/dashboard/{id}.
type DashboardResponse struct {
	Loading   bool            `json:"loading"`
	Dashboard *dashboard.View `json:"dashboard,omitempty"`
}

// FeedEvent is the payload of one live feed message.
type FeedEvent struct {
	SessionID string        `json:"session_id"`
	Entry     FeedbackEntry `json:"entry"`
	Score     int           `json:"score"`
	Unread    int           `json:"unread"`
}

// NewFeedEvent renders a tick notification for the live feed.
func NewFeedEvent(n model.Notification) FeedEvent { //nolint:gocritic // hugeParam: value semantics
	return FeedEvent{
		SessionID: n.SessionID,
		Entry:     FeedbackEntry{Feedback: n.Feedback, Tone: n.Feedback.Tone()},
		Score:     n.Score,
		Unread:    n.Unread,
	}
}

// StateEvent is the payload sent when a run returns to idle.
type StateEvent struct {
	SessionID  string `json:"session_id"`
	Score      int    `json:"score"`
	Unread     int    `json:"unread"`
	Simulating bool   `json:"simulating"`
}

// NewStateEvent renders an idle notification for the live feed.
func NewStateEvent(n model.Notification) StateEvent { //nolint:gocritic // hugeParam: value semantics
	return StateEvent{
		SessionID:  n.SessionID,
		Score:      n.Score,
		Unread:     n.Unread,
		Simulating: n.Simulating,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
