package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the process-wide arena of live sessions, keyed by an opaque
// handle. Sessions leave the arena only through Sweep.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxAge   time.Duration
	now      func() time.Time
}

// NewRegistry creates an arena. maxAge bounds how long an unfinished session
// may stay reachable; zero disables the bound.
func NewRegistry(maxAge time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (r *Registry) Create() *Session {
	s := New(uuid.NewString())
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes every session whose terminal event has fired and that has no
// subscriber left, plus sessions older than maxAge. It returns how many
// sessions were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		expired := r.maxAge > 0 && now.Sub(s.CreatedAt()) > r.maxAge
		if expired || (s.Terminated() && s.SubscriberCount() == 0) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
