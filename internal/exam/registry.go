package exam

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds live sessions by handle. Each browser tab gets its own
// session, so concurrent users never share state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// NewID returns a fresh time-ordered session handle.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions not used since now-idle and returns their IDs.
func (r *Registry) Sweep(now time.Time, idle time.Duration) []string {
	cutoff := now.Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	var dropped []string
	for id, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(r.sessions, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}
