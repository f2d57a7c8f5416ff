package session

import "sync"

// Registry enforces the single-active-session policy: at most one Session
// may be accepted at a time (spec.md §4.3, §9's "single-connection
// invariant"). It is the Go rewrite's TryLock-guarded slot, in place of the
// source's plain member-variable check.
type Registry struct {
	mu      sync.Mutex
	current *Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// TryAccept installs s as the active session if none is active. It returns
// false if a session is already active, in which case the caller must
// close the new connection immediately without further handshake.
func (r *Registry) TryAccept(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return false
	}
	r.current = s
	return true
}

// Current returns the active session, or nil if none.
func (r *Registry) Current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Release clears the registry's slot if it currently holds s, called from
// s's disconnect hook.
func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == s {
		r.current = nil
	}
}
