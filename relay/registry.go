// Package relay implements the real-time relay server: authentication
// handshake, session registry, room membership and best-effort fan-out.
package relay

import (
	"sync"

	"chat-relay/domain"
)

// SessionRegistry maps a member identity to its live session. It is the
// single source of truth for who is currently reachable.
//
// Invariant: at most one live session per member. A new authentication
// for the same identity silently replaces the previous entry; there is
// no dual-session detection.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[domain.MemberID]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[domain.MemberID]*Session)}
}

// Put registers a session, replacing whatever was there for the member.
func (r *SessionRegistry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Member()] = s
}

func (r *SessionRegistry) Get(id domain.MemberID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the entry only if s is still the registered session.
// A handler tearing itself down after being replaced must not evict its
// replacement.
func (r *SessionRegistry) Remove(id domain.MemberID, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[id]; ok && current == s {
		delete(r.sessions, id)
	}
}

// Drain empties the registry and returns the removed sessions.
func (r *SessionRegistry) Drain() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		drained = append(drained, s)
	}
	r.sessions = make(map[domain.MemberID]*Session)
	return drained
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
