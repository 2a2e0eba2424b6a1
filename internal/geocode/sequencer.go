package geocode

import (
	"sync"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Token identifies one issued geocode request.
type Token uint64

// Sequencer hands out monotonically increasing tokens and accepts a result
// only for the most recently issued one. Earlier requests that finish late
// are rejected with core.ErrStaleResult, whatever order responses arrive in.
type Sequencer struct {
	mu        sync.Mutex
	latest    Token
	committed Token
}

// Issue returns a new token that supersedes every earlier one.
func (s *Sequencer) Issue() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Commit marks t as settled if it is still the latest issued token.
func (s *Sequencer) Commit(t Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.latest || t == s.committed {
		return core.ErrStaleResult
	}
	s.committed = t
	return nil
}

// Cancel supersedes any outstanding request without issuing a new one.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.committed = s.latest
}

// Pending reports whether the latest issued request has not committed yet.
func (s *Sequencer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest != s.committed
}
