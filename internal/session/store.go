package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps sessions in process memory only. Sessions are independent;
// idle ones are swept after the TTL.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	memoSize int
	now      func() time.Time
}

func NewStore(ttl time.Duration, memoSize int) *Store {
	return &Store{
		sessions: map[string]*Session{},
		ttl:      ttl,
		memoSize: memoSize,
		now:      time.Now,
	}
}

// Lookup returns the live session for id, or nil when it is unknown or
// expired. A hit refreshes the idle timer.
func (st *Store) Lookup(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil
	}
	now := st.now()
	if now.Sub(s.lastSeen) > st.ttl {
		delete(st.sessions, id)
		return nil
	}
	s.lastSeen = now
	return s
}

func (st *Store) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := newSession(uuid.NewString(), st.memoSize, st.now())
	st.sessions[s.ID] = s
	return s
}

// Sweep drops expired sessions and reports how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	removed := 0
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Run sweeps on an interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := st.Sweep(); n > 0 {
				log.Debug("swept idle sessions", "removed", n)
			}
		}
	}
}
