package app

import (
	"sync"

	"github.com/dkeye/Switchboard/internal/core"
	"github.com/dkeye/Switchboard/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session core.Session
	User    *domain.User
}

// Registry tracks open sessions and which user each one authenticated as.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	users    map[domain.UserID]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		users:    make(map[domain.UserID]core.SessionID),
	}
}

func (r *Registry) Add(s core.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		return
	}
	r.sessions[s.ID()] = &sessionEntry{Session: s}
	log.Info().Str("module", "app.registry").Str("sid", string(s.ID())).Msg("added session")
}

// BindUser authenticates sid as u. A user has at most one session; an older
// session of the same user loses its binding but stays open.
func (r *Registry) BindUser(sid core.SessionID, u *domain.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if e.User != nil && e.User.ID != u.ID {
		delete(r.users, e.User.ID)
	}
	if prev, ok := r.users[u.ID]; ok && prev != sid {
		if pe, ok := r.sessions[prev]; ok {
			pe.User = nil
		}
		log.Info().Str("module", "app.registry").Str("user", string(u.ID)).Str("replaced", string(prev)).Msg("user moved to new session")
	}
	e.User = u
	r.users[u.ID] = sid
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(u.ID)).Msg("bound user")
	return true
}

func (r *Registry) UserOf(sid core.SessionID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == nil {
		return nil, false
	}
	return e.User, true
}

func (r *Registry) SessionOf(uid domain.UserID) (core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.users[uid]
	if !ok {
		return nil, false
	}
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	return e.Session, true
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	if e.User != nil && r.users[e.User.ID] == sid {
		delete(r.users, e.User.ID)
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

type regSnap struct {
	SID     core.SessionID
	User    *domain.User
	Session core.Session
}

// Authenticated returns every session bound to a user.
func (r *Registry) Authenticated() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.users))
	for sid, e := range r.sessions {
		if e.User != nil {
			out = append(out, regSnap{SID: sid, User: e.User, Session: e.Session})
		}
	}
	return out
}
