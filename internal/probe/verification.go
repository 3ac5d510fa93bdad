package probe

import (
	"fmt"
	"strconv"

	"github.com/okian/telematics/internal/domain/scoring"
	"github.com/okian/telematics/internal/domain/types"
)

// verifySnapshot checks the invariants every session snapshot must hold:
// bounded history, newest entry first, and a score inside the scale.
func verifySnapshot(s *types.Session, limit int) error {
	if len(s.History) > limit {
		return fmt.Errorf("history has %d entries, limit is %d", len(s.History), limit)
	}
	if s.Score < scoring.MinScore || s.Score > scoring.MaxScore {
		return fmt.Errorf("score %d outside [%d,%d]", s.Score, scoring.MinScore, scoring.MaxScore)
	}
	prev := -1
	unread := 0
	for i, e := range s.History {
		id, err := strconv.Atoi(e.ID)
		if err != nil {
			return fmt.Errorf("entry %d has non-numeric id %q", i, e.ID)
		}
		if prev >= 0 && id >= prev {
			return fmt.Errorf("entry %d (id %d) is not older than entry %d (id %d)", i, id, i-1, prev)
		}
		prev = id
		if !e.Read {
			unread++
		}
	}
	if unread != s.Unread {
		return fmt.Errorf("unread is %d but %d entries are unread", s.Unread, unread)
	}
	return nil
}

// sameEntries reports whether two snapshots hold the same entries with the
// same read flags.
func sameEntries(a, b *types.Session) bool {
	if len(a.History) != len(b.History) {
		return false
	}
	for i := range a.History {
		if a.History[i].ID != b.History[i].ID || a.History[i].Read != b.History[i].Read {
			return false
		}
	}
	return a.Unread == b.Unread && a.Score == b.Score
}
