package identity

import (
	"maps"
	"slices"
	"sync"

	"instafeed/internal/core"
)

// Session is the in-process identity provider: whoever signed in last is the current identity.
type Session struct {
	mu        sync.Mutex
	current   *core.Identity
	listeners map[int]func(*core.Identity)
	nextID    int
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) CurrentIdentity() (core.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return core.Identity{}, false
	}
	return *s.current, true
}

func (s *Session) OnIdentityChange(cb func(*core.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = map[int]func(*core.Identity){}
	}
	s.nextID++
	id := s.nextID
	s.listeners[id] = cb

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) SignIn(identity core.Identity) {
	s.set(&identity)
}

func (s *Session) SignOut() {
	s.set(nil)
}

func (s *Session) set(identity *core.Identity) {
	s.mu.Lock()
	s.current = identity
	ids := slices.Sorted(maps.Keys(s.listeners))
	callbacks := make([]func(*core.Identity), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, s.listeners[id])
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		if identity == nil {
			cb(nil)
			continue
		}
		copied := *identity
		cb(&copied)
	}
}

// Static always reports the same identity.
type Static core.Identity

func (s Static) CurrentIdentity() (core.Identity, bool) {
	return core.Identity(s), s.ID != ""
}

func (s Static) OnIdentityChange(func(*core.Identity)) func() {
	return func() {}
}
