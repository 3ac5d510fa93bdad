package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/telematics/pkg/metrics"
)

const defaultMaxSessions = 1000

// MemoryStore is a map-backed SessionStore.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]*Session
	maxSessions int
	now         func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:        make(map[string]*Session),
		maxSessions: defaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements SessionStore.Create.
func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[sess.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, sess.ID)
	}
	if len(s.byID) >= s.maxSessions {
		return ErrCapacity
	}
	s.byID[sess.ID] = sess
	metrics.UpdateSessionsActive(len(s.byID))
	return nil
}

// Get implements SessionStore.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	sess.Touch(s.now())
	return sess, nil
}

// Delete implements SessionStore.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	delete(s.byID, id)
	metrics.UpdateSessionsActive(len(s.byID))
	return sess, nil
}

// Idle implements SessionStore.Idle. Results are ordered by last activity.
func (s *MemoryStore) Idle(_ context.Context, cutoff time.Time) []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Session
	for id, sess := range s.byID {
		if sess.LastSeen().Before(cutoff) {
			out = append(out, sess)
			delete(s.byID, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen().Before(out[j].LastSeen()) })
	metrics.UpdateSessionsActive(len(s.byID))
	return out
}

// Drain implements SessionStore.Drain.
func (s *MemoryStore) Drain(_ context.Context) []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.byID))
	for _, sess := range s.byID {
		out = append(out, sess)
	}
	clear(s.byID)
	metrics.UpdateSessionsActive(0)
	return out
}

// Count implements SessionStore.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
