// Package repository holds the in-memory feedback sessions and the static
// dashboard dataset.
package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/telematics/internal/domain/feedback"
	"github.com/okian/telematics/internal/domain/model"
)

// Session is the server-side lifetime of one mounted feedback view.
type Session struct {
	ID             string
	PolicyholderID string
	CreatedAt      time.Time
	Simulator      *feedback.Simulator

	lastSeen atomic.Int64 // unix nanos
}

// NewSession builds a session around sim.
func NewSession(id, policyholderID string, sim *feedback.Simulator, now time.Time) *Session {
	s := &Session{ID: id, PolicyholderID: policyholderID, CreatedAt: now, Simulator: sim}
	s.Touch(now)
	return s
}

// Touch records activity at t.
func (s *Session) Touch(t time.Time) { s.lastSeen.Store(t.UnixNano()) }

// LastSeen returns the last recorded activity.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// SessionStore provides access to the open feedback sessions.
type SessionStore interface {
	// Create adds s. Returns ErrCapacity when the store is full and
	// ErrDuplicate when the id is taken.
	Create(ctx context.Context, s *Session) error

	// Get returns the session and marks it as seen.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes and returns the session.
	// Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) (*Session, error)

	// Idle removes and returns every session last seen before cutoff.
	Idle(ctx context.Context, cutoff time.Time) []*Session

	// Drain removes and returns all sessions.
	Drain(ctx context.Context) []*Session

	// Count returns the number of open sessions.
	Count(ctx context.Context) int
}

// DashboardSource reads the dashboard dataset for a policyholder.
type DashboardSource interface {
	// Dashboard returns a copy of the dataset.
	// Returns ErrNotFound if the policyholder is unknown.
	Dashboard(ctx context.Context, policyholderID string) (model.DashboardData, error)
}
