// Package feedback implements the real-time driving feedback simulator: a
// score plus a bounded, newest-first event history mutated by timer ticks.
package feedback

import (
	"strconv"

	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/scoring"
)

// DefaultHistoryLimit caps the number of retained feedback entries.
const DefaultHistoryLimit = 10

// State is the simulator state. All transitions are pure: they return a new
// State and never write through the receiver's History slice.
type State struct {
	Score      int              `json:"score"`
	History    []model.Feedback `json:"history"`
	Simulating bool             `json:"simulating"`
	Limit      int              `json:"-"`
}

// NewState returns an idle state with an empty history.
func NewState(initialScore, limit int) State {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return State{
		Score:   scoring.Clamp(initialScore),
		History: []model.Feedback{},
		Limit:   limit,
	}
}

// Start moves Idle to Simulating. ok is false when already simulating.
func (s State) Start() (next State, ok bool) {
	if s.Simulating {
		return s, false
	}
	s.Simulating = true
	return s, true
}

// Stop returns to Idle.
func (s State) Stop() State {
	s.Simulating = false
	return s
}

// Apply prepends fb, evicts the oldest entries beyond the limit and adds the
// event impact to the clamped score.
func (s State) Apply(fb model.Feedback) State {
	limit := s.Limit
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	keep := min(len(s.History), limit-1)

	h := make([]model.Feedback, 0, keep+1)
	h = append(h, fb)
	h = append(h, s.History[:keep]...)

	s.History = h
	s.Score = scoring.Apply(s.Score, fb.Impact)
	return s
}

// MarkRead flags the entry with the given id as read. found is false when no
// entry matches, in which case the state is returned unchanged.
func (s State) MarkRead(id string) (next State, found bool) {
	idx := -1
	for i := range s.History {
		if s.History[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, false
	}
	if s.History[idx].Read {
		return s, true
	}
	h := append([]model.Feedback(nil), s.History...)
	h[idx].Read = true
	s.History = h
	return s, true
}

// UnreadCount counts entries not yet marked read.
func (s State) UnreadCount() int {
	n := 0
	for i := range s.History {
		if !s.History[i].Read {
			n++
		}
	}
	return n
}

// AlertLabel renders the unread badge text, empty when nothing is unread.
func (s State) AlertLabel() string {
	n := s.UnreadCount()
	switch n {
	case 0:
		return ""
	case 1:
		return "1 new alert"
	default:
		return strconv.Itoa(n) + " new alerts"
	}
}

// Clone copies the history so the caller may keep the snapshot.
func (s State) Clone() State {
	s.History = append([]model.Feedback{}, s.History...)
	return s
}
